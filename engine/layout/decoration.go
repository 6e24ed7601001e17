package layout

import (
	"github.com/Emasoft/svg-text2path/core/font"
)

// placeDecorations computes underline and strikethrough bars for every
// decorated run after anchoring. A run is a maximal sequence of spans
// in one line sharing the source's decoration flags; its metrics come
// from the dominant font of the run, the face used by the majority of
// its characters.
func placeDecorations(res *Result, in *Input) {
	for _, line := range res.Lines {
		var run []int // span indices of the open run
		flush := func() {
			if len(run) == 0 {
				return
			}
			emitDecoration(res, line, in, run)
			run = nil
		}
		for si := range line.Spans {
			rs := styleOf(in, line.Spans[si].SourceIdx)
			if !rs.Underline && !rs.Strikethrough {
				flush()
				continue
			}
			if len(run) > 0 {
				prev := styleOf(in, line.Spans[run[len(run)-1]].SourceIdx)
				if prev.Underline != rs.Underline || prev.Strikethrough != rs.Strikethrough {
					flush()
				}
			}
			run = append(run, si)
		}
		flush()
	}
}

func emitDecoration(res *Result, line *Line, in *Input, run []int) {
	first := line.Spans[run[0]]
	last := line.Spans[run[len(run)-1]]
	if first.CharStart >= len(line.Chars) || last.CharEnd > len(line.Chars) {
		return
	}
	startChar := line.Chars[first.CharStart]
	endChar := line.Chars[last.CharEnd-1]
	x0 := startChar.X
	x1 := endChar.X + endChar.Advance
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if x1-x0 <= 0 {
		return
	}
	tc, scale := dominantFont(line, run)
	if tc == nil {
		return
	}
	m := tc.DesignMetrics()
	rs := styleOf(in, first.SourceIdx)
	srcIdx := first.SourceIdx
	if rs.Underline {
		y := line.BaselineY - m.UnderlinePosition*scale
		res.Decorations = append(res.Decorations, DecorationRect{
			X: x0, Y: y,
			W: x1 - x0, H: m.UnderlineThickness * scale,
			SourceIdx: srcIdx,
		})
	}
	if rs.Strikethrough {
		y := line.BaselineY - m.StrikeoutPosition*scale
		res.Decorations = append(res.Decorations, DecorationRect{
			X: x0, Y: y,
			W: x1 - x0, H: m.StrikeoutThickness * scale,
			SourceIdx: srcIdx,
			Strike:    true,
		})
	}
}

// dominantFont returns the scalable font covering the most characters
// of the run, with its design-to-user scale.
func dominantFont(line *Line, run []int) (*font.ScalableFont, float64) {
	counts := make(map[*font.ScalableFont]int)
	scales := make(map[*font.ScalableFont]float64)
	for _, si := range run {
		sp := line.Spans[si]
		if sp.Font == nil {
			continue
		}
		sf := sp.Font.ScalableFontParent()
		counts[sf] += sp.CharEnd - sp.CharStart
		scales[sf] = sp.Font.Scale()
	}
	var best *font.ScalableFont
	bestN := 0
	for sf, n := range counts {
		if n > bestN {
			best, bestN = sf, n
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, scales[best]
}
