/*
Package layout computes glyph placements for SVG text.

The pipeline follows the document structure: an input builder walks a
<text> subtree and produces ordered text sources; a chunker groups
sources into anchor units (chunks) and shaping units (spans); the line
engine measures, anchors and emits absolutely positioned glyphs, one
line at a time, threading the vertical cursor between lines. Path-bound
text and decorations are post-processing passes over emitted lines.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package layout

import (
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"

	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

// tracer traces with key 't2p.layout'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.layout")
}

// Anchor is the horizontal alignment of a chunk relative to its origin.
type Anchor int

// Anchor values. Justify only applies to shape-bound flow.
const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
	AnchorJustify
)

// LengthAdjust selects the textLength distribution mode.
type LengthAdjust int

const (
	AdjustSpacing LengthAdjust = iota
	AdjustSpacingAndGlyphs
)

// ResolvedStyle is the style of one text source, computed once at
// input-building time. Layout never re-resolves styles.
type ResolvedStyle struct {
	Font          *font.TypeCase
	Families      []string
	Weight        int
	StyleKeyword  string // normal, italic, oblique
	Size          float64
	LetterSpacing float64 // user units, applied on every advance
	WordSpacing   float64 // user units, applied on expandable spaces
	BaseDirection glyphing.Direction
	Anchor        Anchor
	Underline     bool
	Strikethrough bool
	Language      language.Tag
}

// Scale converts font design units to user units for this style.
func (rs ResolvedStyle) Scale() float64 {
	return rs.Font.Scale()
}

// TextSource is a leaf character-data node prepared for layout.
// Positional override arrays are per character index; arrays shorter
// than the character count reuse their last value for the remaining
// characters.
type TextSource struct {
	Text  []rune
	Style ResolvedStyle

	X, Y, Dx, Dy []float64 // absolute / relative position overrides
	Rotate       []float64 // per-character rotation, degrees

	IsLineStart      bool
	IsParagraphBreak bool // synthetic zero-width source, keeps vertical advance

	Node *svgdom.Element // originating DOM node, for output attributes
}

// HasExplicitX reports whether the source positions its first character
// absolutely on the horizontal axis.
func (ts *TextSource) HasExplicitX() bool { return len(ts.X) > 0 }

// HasExplicitY reports whether the source positions its first character
// absolutely on the vertical axis.
func (ts *TextSource) HasExplicitY() bool { return len(ts.Y) > 0 }

// at reads a per-character array, reusing the last value when the array
// is shorter than the character index. ok is false for empty arrays.
func at(arr []float64, i int) (v float64, ok bool) {
	if len(arr) == 0 {
		return 0, false
	}
	if i >= len(arr) {
		return arr[len(arr)-1], true
	}
	return arr[i], true
}

// Input is a prepared text subtree, the unit of one layout run.
type Input struct {
	Sources []*TextSource

	// textLength parameters of the root element
	TextLength   float64 // 0 = unset
	LengthAdjust LengthAdjust

	// shape-bound flow: wrap width from inline-size (0 = unbounded)
	InlineSize float64

	// textPath binding of the whole subtree, empty if none
	PathHref        string
	StartOffset     string // absolute number or percentage
	PathSide        string // "left" (default) or "right"
	Root            *svgdom.Element
}

// --- Arena model -----------------------------------------------------------

// Character is the per-code-point layout record. Characters live in a
// line-local array; spans and chunks reference them by index range.
type Character struct {
	Rune       rune
	SourceIdx  int // index into Input.Sources
	LogicalIdx int // rune index within the source text

	X, Y     float64 // absolute position, filled during emission
	Rotation float64 // degrees
	Advance  float64 // user units, including letter/word spacing
	Hidden   bool    // culled (off-path) or control character
	ZeroWidth bool   // space-only or synthetic break record
	IsSpace  bool    // expandable whitespace, receives word-spacing and justify slack
}

// Span is a maximal run of characters sharing one font and one BiDi
// embedding direction: the shaping unit. CharStart/CharEnd index the
// line's character array.
type Span struct {
	CharStart, CharEnd int
	SourceIdx          int
	Dir                glyphing.Direction
	Font               *font.TypeCase
	Glyphs             glyphing.GlyphSequence
	Advance            float64 // measured advance in user units, incl. spacing
}

// Chunk is the anchor-resolution unit: a span index range sharing one
// text-anchor computation and one origin.
type Chunk struct {
	SpanStart, SpanEnd int
	Anchor             Anchor
	OriginX, OriginY   float64
	HasX, HasY         bool
	LeftX              float64 // anchor-resolved left edge relative to origin
	Width              float64 // trimmed width used for anchoring
}

// Line is one output unit: a baseline with its chunks, spans and
// characters. Lines are immutable after emission.
type Line struct {
	BaselineY       float64
	Chunks          []Chunk
	Spans           []Span
	Chars           []Character
	Ascent, Descent float64 // user units, max over member spans
}

// GlyphPlacement is the final position of one glyph, ready for outline
// extraction.
type GlyphPlacement struct {
	Font      *font.ScalableFont
	GID       uint16
	X, Y      float64
	Rotation  float64 // degrees
	ScaleX    float64 // user units per design unit, incl. textLength stretch
	ScaleY    float64
	Advance   float64 // owning character's advance, used for on-path centering
	LineIdx   int
	SourceIdx int
	Hidden    bool
}

// DecorationRect is an underline or strikethrough bar in user units,
// positioned before rotation.
type DecorationRect struct {
	X, Y, W, H float64
	SourceIdx  int
	Strike     bool // strikethrough instead of underline
}

// Result is the outcome of laying out one text subtree.
type Result struct {
	Lines       []*Line
	Placements  []GlyphPlacement
	Decorations []DecorationRect
	Cursor      Cursor // final pen position after the subtree
}

// Cursor is the explicit pen state threaded between line invocations.
type Cursor struct {
	X, Y float64
}
