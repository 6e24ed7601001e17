/*
Package harfbuzz adapts the HarfBuzz shaping engine to the glyphing
contract.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package harfbuzz

import (
	"bytes"
	"encoding/binary"
	"sync"
	"unicode"

	hbtt "github.com/benoitkugler/textlayout/fonts/truetype"
	hb "github.com/benoitkugler/textlayout/harfbuzz"
	hblang "github.com/benoitkugler/textlayout/language"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/language"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
)

// tracer traces with key 't2p.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.glyphs")
}

// --- Type conversion -------------------------------------------------------

// Lang4HB returns a language tag as a HarfBuzz language.
func Lang4HB(l language.Tag) hblang.Language {
	return hblang.NewLanguage(l.String())
}

// Script4HB returns a script as a HarfBuzz script.
func Script4HB(s language.Script) hblang.Script {
	b := []byte(s.String())
	b[0] = byte(unicode.ToLower(rune(b[0])))
	h := binary.BigEndian.Uint32(b)
	return hblang.Script(h)
}

// Direction4HB translates a direction to a HarfBuzz direction.
func Direction4HB(d glyphing.Direction) hb.Direction {
	switch d {
	case glyphing.LeftToRight:
		return hb.LeftToRight
	case glyphing.RightToLeft:
		return hb.RightToLeft
	case glyphing.TopToBottom:
		return hb.TopToBottom
	case glyphing.BottomToTop:
		return hb.BottomToTop
	}
	return hb.LeftToRight
}

// FeatureRange4HB converts a feature range to a HarfBuzz feature switch.
func FeatureRange4HB(frng glyphing.FeatureRange) hb.Feature {
	tag := []byte("    ")
	copy(tag, frng.Feature)
	f := hb.Feature{
		Tag:   hbtt.Tag(binary.BigEndian.Uint32(tag)),
		Start: frng.Start,
		End:   frng.End,
	}
	if frng.On {
		if frng.Arg > 0 {
			f.Value = uint32(frng.Arg)
		} else {
			f.Value = 1
		}
	}
	return f
}

// --- Shaper ----------------------------------------------------------------

// Shaper shapes text with HarfBuzz. HarfBuzz fonts are parsed once per
// scalable font and cached; the cache is safe for concurrent use.
type Shaper struct {
	mu    sync.Mutex
	fonts map[*font.ScalableFont]*hb.Font
}

// NewShaper creates a HarfBuzz-backed shaper.
func NewShaper() *Shaper {
	return &Shaper{fonts: make(map[*font.ScalableFont]*hb.Font)}
}

var _ glyphing.Shaper = (*Shaper)(nil)

func (sh *Shaper) hbFont(sf *font.ScalableFont) (*hb.Font, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if f, ok := sh.fonts[sf]; ok {
		return f, nil
	}
	face, err := hbtt.Parse(bytes.NewReader(sf.Binary), true)
	if err != nil {
		return nil, core.ShapingError{Font: sf.Fontname, Err: err}
	}
	f := hb.NewFont(face)
	sh.fonts[sf] = f
	return f, nil
}

// Shape shapes a run of code-points, selecting a shape plan from params.
// Advances and offsets of the returned glyphs are in font design units.
func (sh *Shaper) Shape(runes []rune, params glyphing.Params) (glyphing.GlyphSequence, error) {
	if len(runes) == 0 || params.Font == nil {
		return glyphing.GlyphSequence{}, nil
	}
	sf := params.Font.ScalableFontParent()
	hbFont, err := sh.hbFont(sf)
	if err != nil {
		return glyphing.GlyphSequence{}, err
	}
	hbFont.Ptem = float32(params.Font.Size())

	var props hb.SegmentProperties
	if params.Language != (language.Tag{}) {
		props.Language = Lang4HB(params.Language)
	}
	var noScript language.Script
	if params.Script != noScript {
		props.Script = Script4HB(params.Script)
	}
	props.Direction = Direction4HB(params.Direction)

	features := make([]hb.Feature, 0, len(params.Features))
	for _, feat := range params.Features {
		features = append(features, FeatureRange4HB(feat))
	}

	buf := hb.NewBuffer()
	buf.Props = props
	buf.AddRunes(runes, 0, len(runes))
	buf.Shape(hbFont, features)

	seq := glyphing.GlyphSequence{
		Glyphs: make([]glyphing.ShapedGlyph, len(buf.Info)),
	}
	// HarfBuzz positions are 26.6-scaled font units with the default
	// font scale (upem << 6).
	for i, ginfo := range buf.Info {
		gpos := buf.Pos[i]
		g := &seq.Glyphs[i]
		g.Cluster = ginfo.Cluster
		g.GID = uint16(ginfo.Glyph)
		g.XAdvance = float64(gpos.XAdvance) / 64
		g.YAdvance = float64(gpos.YAdvance) / 64
		g.XOffset = float64(gpos.XOffset) / 64
		g.YOffset = float64(gpos.YOffset) / 64
		if g.Cluster >= 0 && g.Cluster < len(runes) {
			g.CodePoint = runes[g.Cluster]
		}
		seq.Advance += g.XAdvance
	}
	tracer().Debugf("shaped %d runes into %d glyphs, advance=%.1f du",
		len(runes), len(seq.Glyphs), seq.Advance)
	return seq, nil
}
