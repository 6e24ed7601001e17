/*
Package monospace implements a simple shaper for monospace output.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package monospace

import (
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax11"

	"github.com/Emasoft/svg-text2path/engine/glyphing"
)

type msshape struct {
	cellAdvance      float64 // design units per monospace cell
	graphemeSplitter *segment.Segmenter
	context          *uax11.Context
}

// Shaper creates a shaper for monospace output. cellAdvance is the
// advance per grapheme cell in font design units; zero selects half an
// em of a 1000-unit design space. Wide (East Asian) graphemes occupy
// two cells.
//
// The shaper ignores the font's actual metrics, which makes layout
// arithmetic in tests exactly predictable.
func Shaper(cellAdvance float64, context *uax11.Context) glyphing.Shaper {
	if cellAdvance == 0 {
		cellAdvance = 500
	}
	sh := &msshape{cellAdvance: cellAdvance}
	if context == nil {
		sh.context = uax11.LatinContext
	} else {
		sh.context = context
	}
	onGraphemes := grapheme.NewBreaker(1)
	sh.graphemeSplitter = segment.NewSegmenter(onGraphemes)
	grapheme.SetupGraphemeClasses()
	return sh
}

// Shape creates a glyph sequence with one glyph per grapheme and a
// fixed advance per cell. Glyph IDs come from the font's cmap when a
// font is given, so missing-glyph handling stays testable.
func (ms *msshape) Shape(runes []rune, params glyphing.Params) (glyphing.GlyphSequence, error) {
	if len(runes) == 0 {
		return glyphing.GlyphSequence{}, nil
	}
	var seq glyphing.GlyphSequence
	ms.graphemeSplitter.Init(strings.NewReader(string(runes)))
	cluster := 0
	for ms.graphemeSplitter.Next() {
		grphm := ms.graphemeSplitter.Bytes()
		w := uax11.Width(grphm, ms.context)
		codepoint, _ := utf8.DecodeRune(grphm)
		g := glyphing.ShapedGlyph{
			Cluster:   cluster,
			XAdvance:  float64(w) * ms.cellAdvance,
			CodePoint: codepoint,
		}
		if params.Font != nil {
			g.GID = params.Font.ScalableFontParent().GlyphIndex(codepoint)
		} else {
			g.GID = uint16(codepoint & 0xffff)
		}
		seq.Glyphs = append(seq.Glyphs, g)
		seq.Advance += g.XAdvance
		cluster += utf8.RuneCount(grphm)
	}
	if params.Direction == glyphing.RightToLeft {
		reverse(seq.Glyphs)
	}
	return seq, nil
}

func reverse(glyphs []glyphing.ShapedGlyph) {
	for i, j := 0, len(glyphs)-1; i < j; i, j = i+1, j-1 {
		glyphs[i], glyphs[j] = glyphs[j], glyphs[i]
	}
}
