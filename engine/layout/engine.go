package layout

import (
	"math"

	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
	"github.com/Emasoft/svg-text2path/engine/glyphing/bidi"
)

// Policy holds the configurable layout decisions that SVG renderers
// disagree on.
type Policy struct {
	// DyResetsBaseline treats a dy on a line-starting source as an
	// absolute offset from the block origin instead of a shift from
	// the previous baseline.
	DyResetsBaseline bool
}

// Engine lays out prepared input line by line. The vertical cursor is
// explicit state threaded through line invocations, never global.
type Engine struct {
	shaper   glyphing.Shaper
	resolver *fontregistry.Resolver
	policy   Policy
}

// NewEngine creates a layout engine.
func NewEngine(shaper glyphing.Shaper, resolver *fontregistry.Resolver, policy Policy) *Engine {
	return &Engine{shaper: shaper, resolver: resolver, policy: policy}
}

// Layout runs the full line pipeline over one text subtree and returns
// absolutely positioned glyph placements plus decorations.
func (e *Engine) Layout(in *Input) (*Result, error) {
	chunker := NewChunker(in, e.shaper, e.resolver)
	provider := RunProviderFor(in)
	res := &Result{}
	cursor := Cursor{}
	blockOriginY := 0.0
	firstLine := true
	for chunker.More() {
		line, next, err := e.layoutLine(chunker, provider, in, cursor, firstLine, blockOriginY)
		if err != nil {
			return nil, err
		}
		if firstLine {
			blockOriginY = line.BaselineY
		}
		cursor = next
		firstLine = false
		res.Lines = append(res.Lines, line)
		e.emit(res, line, in)
	}
	res.Cursor = cursor
	placeDecorations(res, in)
	return res, nil
}

// layoutLine collects, measures and anchors one line. When the line's
// height grows beyond the estimate used to pick the scan run, the
// chunk-fill is restarted once with the corrected height.
func (e *Engine) layoutLine(chunker *Chunker, provider ScanRunProvider, in *Input, cursor Cursor, firstLine bool, blockOriginY float64) (*Line, Cursor, error) {
	estimate := e.estimateLineHeight(in)
	retried := false
	for {
		snap := chunker.Snapshot()
		avail := provider.RunWidth(cursor.Y, estimate)
		line, err := chunker.NextLineChunks(avail)
		if err != nil {
			return nil, cursor, err
		}
		measureVertical(line, in)
		height := line.Ascent + line.Descent
		if height > 0 && math.Abs(height-estimate) > 1e-6 && !retried {
			if provider.RunWidth(cursor.Y, height) != avail {
				// line height changed the available run, refill once
				chunker.Rewind(snap)
				estimate = height
				retried = true
				continue
			}
		}
		next := e.anchorLine(line, in, cursor, firstLine, blockOriginY, avail)
		return line, next, nil
	}
}

func (e *Engine) estimateLineHeight(in *Input) float64 {
	if len(in.Sources) == 0 {
		return 0
	}
	rs := in.Sources[0].Style
	m := rs.Font.ScalableFontParent().DesignMetrics()
	scale := rs.Scale()
	return (m.Ascent + m.Descent) * scale
}

// measureVertical computes the line box from the member spans.
func measureVertical(line *Line, in *Input) {
	for _, sp := range line.Spans {
		rs := styleOf(in, sp.SourceIdx)
		if rs.Font == nil {
			continue
		}
		m := rs.Font.ScalableFontParent().DesignMetrics()
		scale := rs.Scale()
		asc := m.Ascent * scale
		desc := m.Descent * scale
		if asc > line.Ascent {
			line.Ascent = asc
		}
		if desc > line.Descent {
			line.Descent = desc
		}
	}
}

// anchorLine resolves the baseline and every chunk's left edge, then
// returns the cursor for the following line.
func (e *Engine) anchorLine(line *Line, in *Input, cursor Cursor, firstLine bool, blockOriginY float64, avail float64) Cursor {
	baseline := cursor.Y
	advanceForWrap := line.Ascent + line.Descent
	firstSrc := e.firstSourceOf(line, in)

	switch {
	case firstSrc != nil && len(line.Chunks) > 0 && line.Chunks[0].HasY:
		// absolute reset declared by the chunk's first source
		baseline = line.Chunks[0].OriginY
	case firstLine:
		// no explicit y anywhere: baseline starts at the block origin
	default:
		baseline = cursor.Y + advanceForWrap
	}
	if firstSrc != nil {
		if dy, ok := at(firstSrc.Dy, 0); ok {
			if e.policy.DyResetsBaseline && !firstLine {
				baseline = blockOriginY + dy
			} else {
				baseline += dy
			}
		}
	}
	line.BaselineY = baseline

	penX := cursor.X
	if in.InlineSize > 0 {
		// wrapped lines restart at the flow origin
		penX = 0
	}
	for ci := range line.Chunks {
		chunk := &line.Chunks[ci]
		if chunk.HasX {
			penX = chunk.OriginX
		}
		chunk.OriginX = penX
		chunk.HasX = true
		dir := e.chunkBaseDirection(line, chunk, in)
		chunk.LeftX = anchorOffset(chunk.Anchor, chunk.Width, dir, avail)
		if chunk.Anchor == AnchorJustify && !math.IsInf(avail, 1) {
			justifyChunk(line, chunk, avail)
		}
		penX = chunk.OriginX + chunk.LeftX + chunkFullAdvance(line, chunk)
	}
	return Cursor{X: penX, Y: baseline}
}

func (e *Engine) firstSourceOf(line *Line, in *Input) *TextSource {
	for _, ch := range line.Chars {
		if ch.SourceIdx >= 0 && ch.SourceIdx < len(in.Sources) {
			if ch.LogicalIdx == 0 || ch.ZeroWidth {
				return in.Sources[ch.SourceIdx]
			}
			return nil
		}
	}
	return nil
}

func (e *Engine) chunkBaseDirection(line *Line, chunk *Chunk, in *Input) glyphing.Direction {
	if chunk.SpanStart < len(line.Spans) {
		return styleOf(in, line.Spans[chunk.SpanStart].SourceIdx).BaseDirection
	}
	return glyphing.LeftToRight
}

// anchorOffset computes the chunk's left edge relative to its origin.
// RTL base direction flips the start/end anchors.
func anchorOffset(a Anchor, width float64, dir glyphing.Direction, avail float64) float64 {
	rtl := dir == glyphing.RightToLeft
	switch a {
	case AnchorMiddle:
		return -width / 2
	case AnchorEnd:
		if rtl {
			return 0
		}
		return -width
	case AnchorJustify:
		return 0
	default: // AnchorStart
		if rtl {
			return -width
		}
		return 0
	}
}

// chunkFullAdvance is the untrimmed advance of a chunk, the amount the
// pen moves past it.
func chunkFullAdvance(line *Line, chunk *Chunk) float64 {
	w := 0.0
	for si := chunk.SpanStart; si < chunk.SpanEnd && si < len(line.Spans); si++ {
		w += line.Spans[si].Advance
	}
	return w
}

// justifyChunk distributes the slack of a bounded run onto every
// expandable space.
func justifyChunk(line *Line, chunk *Chunk, avail float64) {
	slack := avail - chunk.Width
	if slack <= 0 {
		return
	}
	spaces := 0
	for si := chunk.SpanStart; si < chunk.SpanEnd; si++ {
		sp := line.Spans[si]
		for i := sp.CharStart; i < sp.CharEnd; i++ {
			if line.Chars[i].IsSpace {
				spaces++
			}
		}
	}
	if spaces == 0 {
		return
	}
	extra := slack / float64(spaces)
	for si := chunk.SpanStart; si < chunk.SpanEnd; si++ {
		sp := &line.Spans[si]
		for i := sp.CharStart; i < sp.CharEnd; i++ {
			if line.Chars[i].IsSpace {
				line.Chars[i].Advance += extra
				sp.Advance += extra
			}
		}
	}
}

// emit walks every chunk's spans in visual order and records one glyph
// placement per shaped glyph, resolving per-character dx/dy/rotate and
// textLength adjustments.
func (e *Engine) emit(res *Result, line *Line, in *Input) {
	stretch, perGap := e.textLengthAdjust(line, in)
	foldedSrc := e.firstSourceOf(line, in)
	for ci := range line.Chunks {
		chunk := &line.Chunks[ci]
		penX := chunk.OriginX + chunk.LeftX
		curDy := 0.0
		curRotate := math.NaN()
		order := visualSpanOrder(line, chunk, in)
		for _, si := range order {
			sp := &line.Spans[si]
			src := in.Sources[sp.SourceIdx]
			scale := 0.0
			if sp.Font != nil {
				scale = sp.Font.Scale()
			}
			// characters of an RTL span advance across its extent in
			// visual order; glyph buffers already are visual
			lastCluster := -1
			innerOffset := 0.0
			for _, g := range sp.Glyphs.Glyphs {
				charIdx := sp.CharStart + g.Cluster
				if charIdx < sp.CharStart || charIdx >= sp.CharEnd {
					continue
				}
				ch := &line.Chars[charIdx]
				if g.Cluster != lastCluster {
					if lastCluster >= 0 {
						prev := &line.Chars[sp.CharStart+lastCluster]
						penX += prev.Advance*stretch + perGap
					}
					// per-character overrides from the source arrays;
					// index 0 of x/y is already folded into the chunk
					// origin
					if ch.LogicalIdx > 0 {
						if x, ok := charOverride(src.X, ch.LogicalIdx); ok {
							penX = x + chunk.LeftX
						}
						if y, ok := charOverride(src.Y, ch.LogicalIdx); ok {
							line.BaselineY = y
							curDy = 0
						}
						if dyv, ok := at(src.Dy, ch.LogicalIdx); ok {
							curDy += dyv
						}
						if dxv, ok := at(src.Dx, ch.LogicalIdx); ok {
							penX += dxv
						}
					} else {
						if dxv, ok := at(src.Dx, 0); ok {
							penX += dxv
						}
						// a source continuing the line carries its own
						// leading dy; the line-opening source's dy is
						// already folded into the baseline
						if src != foldedSrc {
							if dyv, ok := at(src.Dy, 0); ok {
								curDy += dyv
							}
						}
					}
					if rot, ok := at(src.Rotate, ch.LogicalIdx); ok {
						curRotate = rot
					}
					ch.X = penX
					ch.Y = line.BaselineY + curDy
					if !math.IsNaN(curRotate) {
						ch.Rotation = curRotate
					}
					lastCluster = g.Cluster
					innerOffset = 0
				}
				if ch.ZeroWidth || ch.Hidden {
					continue
				}
				res.Placements = append(res.Placements, GlyphPlacement{
					Font:      sp.Font.ScalableFontParent(),
					GID:       g.GID,
					X:         ch.X + (innerOffset+g.XOffset*scale)*stretch,
					Y:         ch.Y - g.YOffset*scale,
					Rotation:  ch.Rotation,
					ScaleX:    scale * stretch,
					ScaleY:    scale,
					Advance:   ch.Advance * stretch,
					LineIdx:   len(res.Lines) - 1,
					SourceIdx: sp.SourceIdx,
				})
				innerOffset += g.XAdvance * scale
			}
			if lastCluster >= 0 {
				prev := &line.Chars[sp.CharStart+lastCluster]
				penX += prev.Advance*stretch + perGap
			}
		}
	}
}

// charOverride reads an absolute-position array. Unlike the relative
// arrays, positions beyond the array's length do not repeat: the pen
// simply continues.
func charOverride(arr []float64, i int) (float64, bool) {
	if i < len(arr) {
		return arr[i], true
	}
	return 0, false
}

// textLengthAdjust computes the glyph stretch factor and the per-gap
// spacing increment for a line under textLength.
func (e *Engine) textLengthAdjust(line *Line, in *Input) (stretch, perGap float64) {
	stretch = 1
	if in.TextLength <= 0 {
		return stretch, 0
	}
	actual := 0.0
	chars := 0
	for _, ch := range line.Chars {
		if !ch.ZeroWidth {
			actual += ch.Advance
			chars++
		}
	}
	if actual <= 0 || chars == 0 {
		return stretch, 0
	}
	if in.LengthAdjust == AdjustSpacingAndGlyphs {
		return in.TextLength / actual, 0
	}
	if chars > 1 {
		perGap = (in.TextLength - actual) / float64(chars-1)
	}
	return stretch, perGap
}

// visualSpanOrder maps the chunk's spans to visual order: maximal
// sequences of RTL spans are reversed within an LTR base direction and
// vice versa.
func visualSpanOrder(line *Line, chunk *Chunk, in *Input) []int {
	n := chunk.SpanEnd - chunk.SpanStart
	if n <= 0 {
		return nil
	}
	runs := make([]bidi.Run, n)
	for i := 0; i < n; i++ {
		runs[i] = bidi.Run{Start: chunk.SpanStart + i, End: chunk.SpanStart + i + 1, Dir: line.Spans[chunk.SpanStart+i].Dir}
	}
	base := glyphing.LeftToRight
	if chunk.SpanStart < len(line.Spans) {
		base = styleOf(in, line.Spans[chunk.SpanStart].SourceIdx).BaseDirection
	}
	ordered := bidi.VisualOrder(runs, base)
	out := make([]int, n)
	for i, r := range ordered {
		out[i] = r.Start
	}
	return out
}
