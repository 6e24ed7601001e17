/*
Package glyphing defines the contract between text layout and shaping
engines.

A Shaper turns a run of Unicode code-points into a sequence of
positioned glyphs. Shapers live in font design space: advances and
offsets are expressed in font units (UnitsPerEm per em), scaling to
user units is the layout engine's business.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package glyphing

import (
	"fmt"

	"github.com/Emasoft/svg-text2path/core/font"
	"golang.org/x/text/language"
)

// Direction is the direction to typeset text in.
type Direction int

// Direction to typeset text in.
const (
	LeftToRight Direction = iota
	RightToLeft
	TopToBottom
	BottomToTop
)

func (d Direction) String() string {
	switch d {
	case LeftToRight:
		return "LeftToRight"
	case RightToLeft:
		return "RightToLeft"
	case TopToBottom:
		return "TopToBottom"
	case BottomToTop:
		return "BottomToTop"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// IsReversed reports whether d runs against the primary axis.
func (d Direction) IsReversed() bool {
	return d == RightToLeft || d == BottomToTop
}

// A ShapedGlyph lives in design space (the result of a shaper, which
// operates in design space as well).
type ShapedGlyph struct {
	Cluster   int     // rune index of the first code-point producing this glyph
	XAdvance  float64 // advance after the glyph is set, in design units
	YAdvance  float64 //
	XOffset   float64 // offset of the glyph from the current point, in design units
	YOffset   float64 //
	GID       uint16  // glyph index within the font
	CodePoint rune    // first rune producing this glyph
}

func (g ShapedGlyph) String() string {
	return fmt.Sprintf("(GID=%d, cluster=%d, advance=%.1f)", g.GID, g.Cluster, g.XAdvance)
}

// IsNotdef reports whether the glyph is the font's .notdef glyph,
// meaning the font has no mapping for the code-point.
func (g ShapedGlyph) IsNotdef() bool {
	return g.GID == 0
}

// GlyphSequence is the result of shaping one run.
type GlyphSequence struct {
	Glyphs  []ShapedGlyph
	Advance float64 // sum of main-axis advances, in design units
}

// HasNotdef reports whether any glyph in the sequence is .notdef.
func (seq GlyphSequence) HasNotdef() bool {
	for _, g := range seq.Glyphs {
		if g.IsNotdef() {
			return true
		}
	}
	return false
}

// A Shaper creates a sequence of glyphs from a run of Unicode
// code-points. Glyphs are taken from a font given in Params.
type Shaper interface {
	Shape(runes []rune, params Params) (GlyphSequence, error)
}

// Params collects shaping parameters.
type Params struct {
	Font      *font.TypeCase  // font at a given size
	Direction Direction       // writing direction of the run
	Script    language.Script // 4-letter ISO 15924 script identifier
	Language  language.Tag    // BCP 47 language tag
	Features  []FeatureRange  // OpenType features to apply
}

// FeatureRange tells a shaper to turn an OpenType feature on or off for
// a run of code-points.
type FeatureRange struct {
	Feature    string // 4-letter feature tag
	Arg        int    // optional argument for this feature
	On         bool   // turn it on or off?
	Start, End int    // position of code-points to apply feature for
}
