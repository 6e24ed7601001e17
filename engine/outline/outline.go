/*
Package outline extracts glyph outlines from fonts and renders them as
SVG path data.

Glyph contours are loaded in font design units and mapped to user
space through an affine transform provided by the caller, which bakes
the font scale, the y-axis flip between font and SVG coordinates, any
per-glyph rotation and the glyph position.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package outline

import (
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

// tracer traces with key 't2p.outline'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.outline")
}

// DefaultPrecision is the number of decimals in emitted coordinates.
const DefaultPrecision = 3

// PathData renders the outline of one glyph as SVG path data. The
// transform m maps font design units to user space. Glyphs without
// contours (spaces) yield an empty string. A glyph the font cannot load
// yields GlyphNotFoundError.
func PathData(sf *font.ScalableFont, gid uint16, m svgdom.Matrix, precision int) (string, error) {
	var buf sfnt.Buffer
	upem := fixed.I(int(sf.UnitsPerEm()))
	segments, err := sf.SFNT.LoadGlyph(&buf, sfnt.GlyphIndex(gid), upem, nil)
	if err != nil {
		tracer().Errorf("font %s cannot load glyph %d: %v", sf.Fontname, gid, err)
		return "", core.GlyphNotFoundError{Font: sf.Fontname, GID: gid}
	}
	if len(segments) == 0 {
		return "", nil
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	var sb strings.Builder
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			x, y := apply(m, seg.Args[0])
			sb.WriteString("M")
			writePoint(&sb, x, y, precision)
		case sfnt.SegmentOpLineTo:
			x, y := apply(m, seg.Args[0])
			sb.WriteString("L")
			writePoint(&sb, x, y, precision)
		case sfnt.SegmentOpQuadTo:
			cx, cy := apply(m, seg.Args[0])
			x, y := apply(m, seg.Args[1])
			sb.WriteString("Q")
			writePoint(&sb, cx, cy, precision)
			sb.WriteString(" ")
			writePoint(&sb, x, y, precision)
		case sfnt.SegmentOpCubeTo:
			c1x, c1y := apply(m, seg.Args[0])
			c2x, c2y := apply(m, seg.Args[1])
			x, y := apply(m, seg.Args[2])
			sb.WriteString("C")
			writePoint(&sb, c1x, c1y, precision)
			sb.WriteString(" ")
			writePoint(&sb, c2x, c2y, precision)
			sb.WriteString(" ")
			writePoint(&sb, x, y, precision)
		}
	}
	sb.WriteString("Z")
	return sb.String(), nil
}

// Rect renders an axis-aligned rectangle (used for decoration bars) as
// SVG path data after applying the transform m.
func Rect(x, y, w, h float64, m svgdom.Matrix, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	var sb strings.Builder
	corners := [4][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i, c := range corners {
		if i == 0 {
			sb.WriteString("M")
		} else {
			sb.WriteString("L")
		}
		px, py := m.Apply(c[0], c[1])
		writePoint(&sb, px, py, precision)
	}
	sb.WriteString("Z")
	return sb.String()
}

func apply(m svgdom.Matrix, p fixed.Point26_6) (float64, float64) {
	// LoadGlyph at upem ppem delivers 26.6 font units
	return m.Apply(float64(p.X)/64, float64(p.Y)/64)
}

func writePoint(sb *strings.Builder, x, y float64, precision int) {
	sb.WriteString(FormatNumber(x, precision))
	sb.WriteString(",")
	sb.WriteString(FormatNumber(y, precision))
}

// FormatNumber formats a coordinate with at most precision decimals,
// trimming trailing zeros.
func FormatNumber(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
