package font

import (
	"encoding/binary"
)

// Metrics holds the font-level metrics the layout engine needs, all in
// font design units (y up). Decoration values default to fractions of
// the em square when the corresponding table is absent.
type Metrics struct {
	UnitsPerEm         float64
	Ascent             float64 // typically positive
	Descent            float64 // typically positive (magnitude below baseline)
	UnderlinePosition  float64 // offset from baseline, negative below
	UnderlineThickness float64
	StrikeoutPosition  float64 // offset from baseline, positive above
	StrikeoutThickness float64
}

// DesignMetrics reads ascent/descent and decoration metrics from the
// font's raw tables. Fonts without post or OS/2 tables get the usual
// defaults (-0.1em underline position, 0.05em thickness, 0.3em strikeout
// position).
func (sf *ScalableFont) DesignMetrics() Metrics {
	upem := sf.UnitsPerEm()
	m := Metrics{
		UnitsPerEm:         upem,
		Ascent:             0.8 * upem,
		Descent:            0.2 * upem,
		UnderlinePosition:  -0.1 * upem,
		UnderlineThickness: 0.05 * upem,
		StrikeoutPosition:  0.3 * upem,
		StrikeoutThickness: 0.05 * upem,
	}
	if hhea := sf.table("hhea"); len(hhea) >= 8 {
		m.Ascent = float64(int16(binary.BigEndian.Uint16(hhea[4:])))
		m.Descent = -float64(int16(binary.BigEndian.Uint16(hhea[6:])))
	}
	if post := sf.table("post"); len(post) >= 12 {
		m.UnderlinePosition = float64(int16(binary.BigEndian.Uint16(post[8:])))
		m.UnderlineThickness = float64(int16(binary.BigEndian.Uint16(post[10:])))
	}
	if os2 := sf.table("OS/2"); len(os2) >= 30 {
		m.StrikeoutThickness = float64(int16(binary.BigEndian.Uint16(os2[26:])))
		m.StrikeoutPosition = float64(int16(binary.BigEndian.Uint16(os2[28:])))
	}
	return m
}

// table locates a top-level sfnt table in the raw font binary. Returns nil
// if the table is not present or the binary is truncated. For TrueType
// collections the first font of the collection is used.
func (sf *ScalableFont) table(tag string) []byte {
	b := sf.Binary
	if len(b) < 12 {
		return nil
	}
	base := 0
	if string(b[0:4]) == "ttcf" {
		if len(b) < 16 {
			return nil
		}
		base = int(binary.BigEndian.Uint32(b[12:]))
		if base+12 > len(b) {
			return nil
		}
	}
	numTables := int(binary.BigEndian.Uint16(b[base+4:]))
	recs := base + 12
	for i := 0; i < numTables; i++ {
		rec := recs + 16*i
		if rec+16 > len(b) {
			return nil
		}
		if string(b[rec:rec+4]) != tag {
			continue
		}
		off := int(binary.BigEndian.Uint32(b[rec+8:]))
		length := int(binary.BigEndian.Uint32(b[rec+12:]))
		if off < 0 || length < 0 || off+length > len(b) {
			return nil
		}
		return b[off : off+length]
	}
	return nil
}
