package layout

import (
	"math"
	"strings"

	"github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax14"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
	"github.com/Emasoft/svg-text2path/engine/glyphing/bidi"
)

// ScanRunProvider yields the horizontal extent available to a line at a
// given vertical position. The default provider is unbounded.
type ScanRunProvider interface {
	RunWidth(baselineY, lineHeight float64) float64
}

type unboundedRun struct{}

func (unboundedRun) RunWidth(float64, float64) float64 { return math.Inf(1) }

type fixedRun struct{ width float64 }

func (f fixedRun) RunWidth(float64, float64) float64 { return f.width }

// RunProviderFor selects the scan-run provider for an input: bounded by
// inline-size when declared, unbounded otherwise.
func RunProviderFor(in *Input) ScanRunProvider {
	if in.InlineSize > 0 {
		return fixedRun{width: in.InlineSize}
	}
	return unboundedRun{}
}

// position is the chunker's read cursor over the input sources.
type position struct {
	srcIdx  int
	runeOff int
}

// Chunker groups text sources into chunks and spans, measuring them
// through the shaper. It keeps a read position so the line engine can
// pull one line's worth of chunks at a time, and can rewind to a
// snapshot for the one permitted chunk-refill.
type Chunker struct {
	in       *Input
	shaper   glyphing.Shaper
	resolver *fontregistry.Resolver
	pos      position
}

// NewChunker creates a chunker over prepared input.
func NewChunker(in *Input, shaper glyphing.Shaper, resolver *fontregistry.Resolver) *Chunker {
	return &Chunker{in: in, shaper: shaper, resolver: resolver}
}

// More reports whether input sources remain. An empty source still
// counts: it yields a zero-width record for cursor bookkeeping.
func (c *Chunker) More() bool {
	return c.pos.srcIdx < len(c.in.Sources)
}

// Snapshot captures the read position for a possible rewind.
func (c *Chunker) Snapshot() interface{} {
	return c.pos
}

// Rewind restores a snapshot taken before a line fill.
func (c *Chunker) Rewind(snap interface{}) {
	c.pos = snap.(position)
}

// NextLineChunks fills one line: it appends chunks until a source with
// an explicit vertical position starts, a paragraph break is consumed,
// the available width is exhausted, or input ends. The returned line is
// measured but not yet anchored.
func (c *Chunker) NextLineChunks(avail float64) (*Line, error) {
	line := &Line{}
	lineWidth := 0.0
	for c.pos.srcIdx < len(c.in.Sources) {
		src := c.in.Sources[c.pos.srcIdx]
		atSourceStart := c.pos.runeOff == 0
		if atSourceStart && src.IsParagraphBreak {
			if len(line.Chunks) > 0 {
				break // break terminates the current line, consume it next call
			}
			c.appendBreakRecord(line, src)
			c.pos.srcIdx++
			c.pos.runeOff = 0
			return line, nil
		}
		// a source positioned absolutely in y starts a new line
		if atSourceStart && src.HasExplicitY() && len(line.Chunks) > 0 {
			break
		}
		if c.pos.runeOff >= len(src.Text) {
			if atSourceStart && len(src.Text) == 0 {
				c.appendBreakRecord(line, src)
			}
			c.pos.srcIdx++
			c.pos.runeOff = 0
			continue
		}
		used, fits, err := c.fillFromSource(line, src, avail-lineWidth)
		if err != nil {
			return nil, err
		}
		lineWidth += used
		if !fits {
			break // line full, remaining text continues on the next line
		}
	}
	c.finalizeChunks(line)
	return line, nil
}

// appendBreakRecord adds the zero-width character record of an empty or
// break source, keeping cursor bookkeeping consistent.
func (c *Chunker) appendBreakRecord(line *Line, src *TextSource) {
	srcIdx := c.indexOf(src)
	charIdx := len(line.Chars)
	line.Chars = append(line.Chars, Character{
		SourceIdx: srcIdx,
		Hidden:    true,
		ZeroWidth: true,
	})
	line.Spans = append(line.Spans, Span{
		CharStart: charIdx,
		CharEnd:   charIdx + 1,
		SourceIdx: srcIdx,
		Font:      src.Style.Font,
	})
	line.Chunks = append(line.Chunks, Chunk{
		SpanStart: len(line.Spans) - 1,
		SpanEnd:   len(line.Spans),
		Anchor:    src.Style.Anchor,
	})
	c.applyChunkOrigin(&line.Chunks[len(line.Chunks)-1], src)
}

// fillFromSource shapes and appends text from one source, respecting
// the remaining width. It returns the width consumed and whether the
// source was fully consumed.
func (c *Chunker) fillFromSource(line *Line, src *TextSource, remaining float64) (float64, bool, error) {
	srcIdx := c.indexOf(src)
	text := src.Text[c.pos.runeOff:]
	logicalBase := c.pos.runeOff

	// take at most the runes fitting the remaining width, cutting at a
	// uax14 break opportunity
	take := len(text)
	bounded := !math.IsInf(remaining, 1)
	var consumed float64

	atStart := logicalBase == 0
	// shape the (sub)run and measure; on overflow back out to the last
	// break opportunity and retry with the shorter run
	for {
		spans, width, err := c.shapeRun(src, srcIdx, text[:take], logicalBase)
		if err != nil {
			return 0, false, err
		}
		if !bounded || width <= remaining || take == 0 {
			c.commitSpans(line, src, spans, atStart)
			consumed = width
			break
		}
		cut := lastBreakBefore(text[:take], remaining, spans)
		if cut <= 0 || cut >= take {
			if len(line.Chunks) > 0 || len(line.Chars) > 0 {
				// nothing fits on this line, push the whole run to the next
				return 0, false, nil
			}
			// overlong unbreakable run on an empty line is emitted anyway
			c.commitSpans(line, src, spans, atStart)
			consumed = width
			break
		}
		take = cut
	}
	c.pos.runeOff = logicalBase + take
	if c.pos.runeOff >= len(src.Text) {
		c.pos.srcIdx++
		c.pos.runeOff = 0
		return consumed, true, nil
	}
	return consumed, false, nil
}

// pendingSpans is the unit shapeRun hands back before commit: spans
// plus their character records, not yet in the line arena.
type pendingSpans struct {
	spans []Span
	chars []Character
}

// shapeRun segments one run by BiDi direction and font coverage,
// shapes every span and distributes glyph advances onto characters.
// The returned width includes letter- and word-spacing.
func (c *Chunker) shapeRun(src *TextSource, srcIdx int, text []rune, logicalBase int) (*pendingSpans, float64, error) {
	if len(text) == 0 {
		return &pendingSpans{}, 0, nil
	}
	runs, err := bidi.Resolve(text, src.Style.BaseDirection)
	if err != nil {
		return nil, 0, core.WrapError(err, core.EINVALID, "bidi resolution failed")
	}
	pending := &pendingSpans{}
	total := 0.0
	for _, run := range runs {
		for _, seg := range c.splitByCoverage(src, text[run.Start:run.End]) {
			segText := text[run.Start+seg.start : run.Start+seg.end]
			tc := src.Style.Font
			if seg.needsFallback {
				fb, err := c.resolver.ResolveCovering(seg.missing, src.Style.Weight, src.Style.StyleKeyword, src.Style.Size)
				if err != nil {
					return nil, 0, err
				}
				tc = fb
			}
			seq, err := c.shapeWithRecovery(segText, src, tc, run.Dir)
			if err != nil {
				return nil, 0, err
			}
			span := Span{
				CharStart: len(pending.chars),
				SourceIdx: srcIdx,
				Dir:       run.Dir,
				Font:      tc,
				Glyphs:    seq,
			}
			scale := tc.Scale()
			chars := distributeAdvances(segText, seq, scale, src.Style)
			for i := range chars {
				chars[i].SourceIdx = srcIdx
				chars[i].LogicalIdx = logicalBase + run.Start + seg.start + i
				span.Advance += chars[i].Advance
			}
			span.CharEnd = span.CharStart + len(chars)
			pending.chars = append(pending.chars, chars...)
			pending.spans = append(pending.spans, span)
			total += span.Advance
		}
	}
	return pending, total, nil
}

// shapeWithRecovery shapes a run and, when the font maps characters to
// .notdef, reshapes once with a covering fallback font. A fallback that
// still produces .notdef escalates to a missing font.
func (c *Chunker) shapeWithRecovery(text []rune, src *TextSource, tc *font.TypeCase, dir glyphing.Direction) (glyphing.GlyphSequence, error) {
	params := glyphing.Params{
		Font:      tc,
		Direction: dir,
		Language:  src.Style.Language,
	}
	seq, err := c.shaper.Shape(text, params)
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	if !hasVisibleNotdef(text, seq, tc.ScalableFontParent()) {
		return seq, nil
	}
	missing := notdefRunes(text, seq, tc.ScalableFontParent())
	fb, err := c.resolver.ResolveCovering(missing, src.Style.Weight, src.Style.StyleKeyword, src.Style.Size)
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	params.Font = fb
	seq, err = c.shaper.Shape(text, params)
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	if hasVisibleNotdef(text, seq, fb.ScalableFontParent()) {
		return glyphing.GlyphSequence{}, core.MissingFontError{
			Family: strings.Join(src.Style.Families, ", "),
			Weight: src.Style.Weight,
			Style:  src.Style.StyleKeyword,
			Detail: "no font in the fallback chain covers the text",
		}
	}
	return seq, nil
}

// isSpaceRune marks expandable whitespace: plain and no-break space.
func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\u00a0'
}

// hasVisibleNotdef reports whether seq maps a non-whitespace rune of
// text to .notdef, or to a glyph id the font has no outline for.
func hasVisibleNotdef(text []rune, seq glyphing.GlyphSequence, sf *font.ScalableFont) bool {
	for _, g := range seq.Glyphs {
		if g.Cluster < 0 || g.Cluster >= len(text) || isSpaceRune(text[g.Cluster]) {
			continue
		}
		if g.GID == 0 || (sf != nil && !sf.HasOutline(g.GID)) {
			return true
		}
	}
	return false
}

// notdefRunes collects the runes a shaping pass could not map to an
// outlined glyph.
func notdefRunes(text []rune, seq glyphing.GlyphSequence, sf *font.ScalableFont) []rune {
	var out []rune
	for _, g := range seq.Glyphs {
		if g.Cluster < 0 || g.Cluster >= len(text) || isSpaceRune(text[g.Cluster]) {
			continue
		}
		if g.GID == 0 || (sf != nil && !sf.HasOutline(g.GID)) {
			out = append(out, text[g.Cluster])
		}
	}
	return out
}

type coverageSeg struct {
	start, end    int
	needsFallback bool
	missing       []rune
}

// splitByCoverage splits a run where primary-font coverage flips.
// Whitespace always counts as covered so it never forces a font switch.
func (c *Chunker) splitByCoverage(src *TextSource, text []rune) []coverageSeg {
	sf := src.Style.Font.ScalableFontParent()
	covered := func(r rune) bool {
		return isSpaceRune(r) || sf.HasGlyph(r)
	}
	var segs []coverageSeg
	start := 0
	cov := true
	if len(text) > 0 {
		cov = covered(text[0])
	}
	for i := 1; i <= len(text); i++ {
		if i == len(text) || covered(text[i]) != cov {
			seg := coverageSeg{start: start, end: i, needsFallback: !cov}
			if !cov {
				for _, r := range text[start:i] {
					seg.missing = append(seg.missing, r)
				}
			}
			segs = append(segs, seg)
			if i < len(text) {
				start = i
				cov = covered(text[i])
			}
		}
	}
	return segs
}

// distributeAdvances maps glyph advances onto character records by
// cluster. In a multi-character cluster the first character carries the
// cluster advance, the rest are zero-width. Letter-spacing applies to
// every character, word-spacing to expandable spaces.
func distributeAdvances(text []rune, seq glyphing.GlyphSequence, scale float64, style ResolvedStyle) []Character {
	chars := make([]Character, len(text))
	for i, r := range text {
		chars[i].Rune = r
		chars[i].IsSpace = isSpaceRune(r)
	}
	for _, g := range seq.Glyphs {
		if g.Cluster >= 0 && g.Cluster < len(chars) {
			chars[g.Cluster].Advance += g.XAdvance * scale
		}
	}
	for i := range chars {
		chars[i].Advance += style.LetterSpacing
		if chars[i].IsSpace {
			chars[i].Advance += style.WordSpacing
		}
	}
	return chars
}

// commitSpans moves pending spans into the line arena, opening a new
// chunk when the source demands one or none is open yet.
func (c *Chunker) commitSpans(line *Line, src *TextSource, pending *pendingSpans, atSourceStart bool) {
	if len(pending.spans) == 0 {
		return
	}
	charBase := len(line.Chars)
	line.Chars = append(line.Chars, pending.chars...)
	spanBase := len(line.Spans)
	for _, sp := range pending.spans {
		sp.CharStart += charBase
		sp.CharEnd += charBase
		line.Spans = append(line.Spans, sp)
	}
	newChunk := len(line.Chunks) == 0 ||
		(atSourceStart && (src.HasExplicitX() || src.HasExplicitY())) ||
		(atSourceStart && src.IsLineStart)
	if newChunk {
		chunk := Chunk{
			SpanStart: spanBase,
			SpanEnd:   len(line.Spans),
			Anchor:    src.Style.Anchor,
		}
		// a continuation of a wrapped source opens a chunk without an
		// origin of its own
		if atSourceStart {
			c.applyChunkOrigin(&chunk, src)
		}
		line.Chunks = append(line.Chunks, chunk)
	} else {
		line.Chunks[len(line.Chunks)-1].SpanEnd = len(line.Spans)
	}
}

func (c *Chunker) applyChunkOrigin(chunk *Chunk, src *TextSource) {
	if x, ok := at(src.X, 0); ok {
		chunk.OriginX = x
		chunk.HasX = true
	}
	if y, ok := at(src.Y, 0); ok {
		chunk.OriginY = y
		chunk.HasY = true
	}
}

// finalizeChunks measures every chunk and trims trailing whitespace
// advance and trailing letter-spacing: anchoring uses ink width.
func (c *Chunker) finalizeChunks(line *Line) {
	for ci := range line.Chunks {
		chunk := &line.Chunks[ci]
		width := 0.0
		for si := chunk.SpanStart; si < chunk.SpanEnd; si++ {
			width += line.Spans[si].Advance
		}
		// walk characters backwards over trailing whitespace
		trim := 0.0
		letterSpacing := 0.0
	trimloop:
		for si := chunk.SpanEnd - 1; si >= chunk.SpanStart; si-- {
			sp := line.Spans[si]
			letterSpacing = styleOf(c.in, sp.SourceIdx).LetterSpacing
			for i := sp.CharEnd - 1; i >= sp.CharStart; i-- {
				ch := line.Chars[i]
				if ch.ZeroWidth {
					continue
				}
				if !ch.IsSpace {
					trim += letterSpacing // spacing after the last ink glyph
					break trimloop
				}
				trim += ch.Advance
			}
		}
		chunk.Width = width - trim
		if chunk.Width < 0 {
			chunk.Width = 0
		}
	}
}

// lastBreakBefore finds the largest uax14 break opportunity in text
// whose prefix width fits the budget. pending.chars is parallel to
// text: spans are produced in logical order.
func lastBreakBefore(text []rune, budget float64, pending *pendingSpans) int {
	opportunities := breakOpportunities(text)
	if len(opportunities) == 0 {
		return 0
	}
	width := 0.0
	fitUpTo := 0
	for i := range text {
		if i < len(pending.chars) {
			width += pending.chars[i].Advance
		}
		if width <= budget {
			fitUpTo = i + 1
		} else {
			break
		}
	}
	best := 0
	for _, op := range opportunities {
		if op <= fitUpTo && op > best {
			best = op
		}
	}
	return best
}

// breakOpportunities returns the rune indices after which a line break
// is allowed, per UAX#14.
func breakOpportunities(text []rune) []int {
	linewrap := uax14.NewLineWrap()
	seg := segment.NewSegmenter(linewrap)
	seg.Init(strings.NewReader(string(text)))
	var ops []int
	pos := 0
	for seg.Next() {
		pos += len([]rune(string(seg.Bytes())))
		if pos < len(text) {
			ops = append(ops, pos)
		}
	}
	return ops
}

func (c *Chunker) indexOf(src *TextSource) int {
	for i, s := range c.in.Sources {
		if s == src {
			return i
		}
	}
	return -1
}

func styleOf(in *Input, srcIdx int) ResolvedStyle {
	if srcIdx >= 0 && srcIdx < len(in.Sources) {
		return in.Sources[srcIdx].Style
	}
	return ResolvedStyle{}
}
