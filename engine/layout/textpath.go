package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/Emasoft/svg-text2path/engine/path"
)

// PlaceOnPath re-maps the linear glyph placements of a path-bound
// subtree onto the arc of a path geometry. Each glyph's midpoint is
// placed at its arc-length position, the glyph is rotated to the local
// tangent plus its own rotation, and its baseline offset is carried
// along the path normal. Glyphs whose midpoint falls outside the path
// are hidden, not clamped.
func PlaceOnPath(res *Result, in *Input, pg *path.PathGeometry) {
	if in.PathHref == "" || pg == nil {
		return
	}
	offset := resolveStartOffset(in.StartOffset, pg.Length())
	for i := range res.Placements {
		p := &res.Placements[i]
		baseline := 0.0
		if p.LineIdx >= 0 && p.LineIdx < len(res.Lines) {
			baseline = res.Lines[p.LineIdx].BaselineY
		}
		normalShift := p.Y - baseline
		mid := offset + p.X + p.Advance/2
		pt, tangent, ok := pg.PointAtLength(mid)
		if !ok {
			p.Hidden = true
			continue
		}
		angle := math.Atan2(tangent.Y, tangent.X)
		// step back half the advance along the tangent, then shift
		// along the normal by the glyph's baseline offset
		nx, ny := -tangent.Y, tangent.X
		p.X = pt.X - tangent.X*p.Advance/2 + nx*normalShift
		p.Y = pt.Y - tangent.Y*p.Advance/2 + ny*normalShift
		p.Rotation += angle * 180 / math.Pi
	}
	// decorations do not follow the path, path-bound text drops them
	res.Decorations = nil
}

// resolveStartOffset parses a startOffset attribute: a plain number in
// user units or a percentage of the path length.
func resolveStartOffset(v string, pathLength float64) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if strings.HasSuffix(v, "%") {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err == nil {
			return n / 100 * pathLength
		}
		return 0
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return 0
}
