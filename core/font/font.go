/*
Package font is for typeface and font handling during SVG text conversion.

We stick to the following definitions:

* A "typeface" is a family of fonts. An example is "Helvetica".

* A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc. An example is "Helvetica regular".

* A "typecase" is a scaled font, i.e. a font at a certain size
(in SVG user units). An example is "Helvetica regular 16px".

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package font

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 't2p.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.fonts")
}

// ScalableFont is a parsed font program, together with the raw bytes it
// has been parsed from. The raw bytes are kept around because the shaper
// maintains its own font representation and parses them again.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, empty for in-memory fonts
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// TypeCase is a scalable font at a fixed size, the unit fonts are handed
// to the layout engine in.
type TypeCase struct {
	scalableFontParent *ScalableFont
	size               float64 // in user units (px)
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont interprets a byte sequence as OpenType font.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return
}

// PrepareCase derives a typecase at a given size (user units) from a
// scalable font.
func (sf *ScalableFont) PrepareCase(size float64) (*TypeCase, error) {
	if sf == nil || sf.SFNT == nil {
		return nil, fmt.Errorf("cannot prepare typecase from null font")
	}
	if size <= 0 {
		tracer().Infof("font size must be positive, is %g (set to 16)", size)
		size = 16.0
	}
	return &TypeCase{scalableFontParent: sf, size: size}, nil
}

// UnitsPerEm returns the design units per em of the font.
func (sf *ScalableFont) UnitsPerEm() float64 {
	return float64(sf.SFNT.UnitsPerEm())
}

// HasGlyph reports whether the font maps r to a real glyph (not .notdef).
func (sf *ScalableFont) HasGlyph(r rune) bool {
	return sf.GlyphIndex(r) != 0
}

// HasOutline reports whether the font carries outline data for a glyph
// id. Fonts occasionally map a rune in the cmap but ship no contours
// for it.
func (sf *ScalableFont) HasOutline(gid uint16) bool {
	var buf sfnt.Buffer
	ppem := fixed.I(int(sf.SFNT.UnitsPerEm()))
	_, err := sf.SFNT.LoadGlyph(&buf, sfnt.GlyphIndex(gid), ppem, nil)
	return err == nil
}

// GlyphIndex returns the glyph id for rune r, 0 if unmapped.
func (sf *ScalableFont) GlyphIndex(r rune) uint16 {
	var buf sfnt.Buffer
	gid, err := sf.SFNT.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return uint16(gid)
}

// ScalableFontParent returns the scalable font a typecase has been
// derived from.
func (tc *TypeCase) ScalableFontParent() *ScalableFont {
	return tc.scalableFontParent
}

// Size returns the size of the typecase in user units.
func (tc *TypeCase) Size() float64 {
	return tc.size
}

// Scale returns the factor converting font design units to user units
// for this typecase.
func (tc *TypeCase) Scale() float64 {
	return tc.size / tc.scalableFontParent.UnitsPerEm()
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}

// --- Font naming and matching ----------------------------------------------

// NormalizeFontname produces a canonical registry key from a font name
// plus style and weight.
func NormalizeFontname(fname string, style xfont.Style, weight xfont.Weight) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		fname = fname[:dot]
	}
	fname = strings.ToLower(fname)
	switch style {
	case xfont.StyleItalic, xfont.StyleOblique:
		fname += "-italic"
	}
	switch weight {
	case xfont.WeightThin, xfont.WeightExtraLight, xfont.WeightLight:
		fname += "-light"
	case xfont.WeightSemiBold, xfont.WeightBold, xfont.WeightExtraBold, xfont.WeightBlack:
		fname += "-bold"
	}
	return fname
}

// Matches checks whether a font file path looks like a given family with
// a given style and weight.
func Matches(fpath string, family string, style xfont.Style, weight xfont.Weight) bool {
	base := strings.ToLower(path.Base(fpath))
	family = strings.ToLower(strings.ReplaceAll(family, " ", ""))
	squashed := strings.ReplaceAll(base, " ", "")
	if !strings.HasPrefix(squashed, family) && !strings.Contains(squashed, family) {
		return false
	}
	s, w := GuessStyleAndWeight(fpath)
	return s == style && w == weight
}

// StyleAndWeight reports the font's style and weight as declared in the
// subfamily entry of the name table. Falls back to file-name guessing
// when the entry is absent.
func (sf *ScalableFont) StyleAndWeight() (xfont.Style, xfont.Weight) {
	var buf sfnt.Buffer
	if sub, err := sf.SFNT.Name(&buf, sfnt.NameIDSubfamily); err == nil && sub != "" {
		return GuessStyleAndWeight(sub)
	}
	return GuessStyleAndWeight(sf.Filepath)
}

// GuessStyleAndWeight trys to guess a font's style and weight from the
// font's file name.
func GuessStyleAndWeight(fontfilename string) (xfont.Style, xfont.Weight) {
	fontfilename = path.Base(fontfilename)
	ext := path.Ext(fontfilename)
	fontfilename = strings.ToLower(fontfilename[:len(fontfilename)-len(ext)])
	fontfilename = strings.ReplaceAll(fontfilename, "_", " ")
	fontfilename = strings.ReplaceAll(fontfilename, "-", " ")
	style, weight := xfont.StyleNormal, xfont.WeightNormal
	for _, word := range strings.Fields(fontfilename) {
		switch word {
		case "italic", "it", "i", "oblique":
			style = xfont.StyleItalic
		case "bolditalic", "boldoblique":
			style = xfont.StyleItalic
			weight = xfont.WeightBold
		case "thin", "hairline":
			weight = xfont.WeightThin
		case "extralight", "ultralight", "xlight":
			weight = xfont.WeightExtraLight
		case "light":
			weight = xfont.WeightLight
		case "medium":
			weight = xfont.WeightMedium
		case "semibold", "demibold", "demi":
			weight = xfont.WeightSemiBold
		case "bold", "b":
			weight = xfont.WeightBold
		case "extrabold", "ultrabold", "xbold":
			weight = xfont.WeightExtraBold
		case "black", "heavy":
			weight = xfont.WeightBlack
		}
	}
	return style, weight
}

// WeightFromCSS converts a numeric CSS font-weight (100…900) to the
// x/image weight scale.
func WeightFromCSS(w int) xfont.Weight {
	switch {
	case w <= 0:
		return xfont.WeightNormal
	case w < 150:
		return xfont.WeightThin
	case w < 250:
		return xfont.WeightExtraLight
	case w < 350:
		return xfont.WeightLight
	case w < 450:
		return xfont.WeightNormal
	case w < 550:
		return xfont.WeightMedium
	case w < 650:
		return xfont.WeightSemiBold
	case w < 750:
		return xfont.WeightBold
	case w < 850:
		return xfont.WeightExtraBold
	}
	return xfont.WeightBlack
}

// StyleFromCSS converts a CSS font-style keyword to the x/image style scale.
func StyleFromCSS(s string) xfont.Style {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "italic":
		return xfont.StyleItalic
	case "oblique":
		return xfont.StyleOblique
	}
	return xfont.StyleNormal
}
