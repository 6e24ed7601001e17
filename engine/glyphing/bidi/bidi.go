/*
Package bidi resolves bidirectional text into directional runs.

It wraps the Unicode Bidirectional Algorithm from golang.org/x/text,
exposing the run structure the chunker needs: maximal runs of uniform
direction, in logical order, plus the visual reordering of a line.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package bidi

import (
	"sort"

	xbidi "golang.org/x/text/unicode/bidi"

	"github.com/Emasoft/svg-text2path/engine/glyphing"
)

// Run is a maximal run of uniform direction. Start and End are rune
// indices into the analyzed text, End exclusive.
type Run struct {
	Start, End int
	Dir        glyphing.Direction
}

// RTL reports whether the run is right-to-left.
func (r Run) RTL() bool {
	return r.Dir == glyphing.RightToLeft
}

// Resolve applies the bidi algorithm to text with the given base
// direction and returns the directional runs in logical order. Text
// without RTL characters yields a single left-to-right run.
func Resolve(text []rune, base glyphing.Direction) ([]Run, error) {
	if len(text) == 0 {
		return nil, nil
	}
	def := xbidi.DefaultDirection(xbidi.LeftToRight)
	if base == glyphing.RightToLeft {
		def = xbidi.DefaultDirection(xbidi.RightToLeft)
	}
	var p xbidi.Paragraph
	p.SetString(string(text), def)
	ordering, err := p.Order()
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		r := ordering.Run(i)
		start, end := r.Pos() // rune positions, end inclusive
		run := Run{
			Start: start,
			End:   end + 1,
			Dir:   glyphing.LeftToRight,
		}
		if r.Direction() == xbidi.RightToLeft {
			run.Dir = glyphing.RightToLeft
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Start < runs[j].Start })
	return runs, nil
}

// VisualOrder reorders logical runs for display. With a left-to-right
// base direction, maximal sequences of RTL runs are reversed among
// themselves; with an RTL base the whole line is reversed and embedded
// LTR sequences are restored.
func VisualOrder(runs []Run, base glyphing.Direction) []Run {
	out := append([]Run(nil), runs...)
	if base == glyphing.RightToLeft {
		reverseRuns(out)
		reverseSequencesOf(out, glyphing.LeftToRight)
		return out
	}
	reverseSequencesOf(out, glyphing.RightToLeft)
	return out
}

func reverseSequencesOf(runs []Run, dir glyphing.Direction) {
	i := 0
	for i < len(runs) {
		if runs[i].Dir != dir {
			i++
			continue
		}
		j := i
		for j < len(runs) && runs[j].Dir == dir {
			j++
		}
		reverseRuns(runs[i:j])
		i = j
	}
}

func reverseRuns(runs []Run) {
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
}

// BaseDirection derives the paragraph direction from a CSS `direction`
// property value.
func BaseDirection(cssDirection string) glyphing.Direction {
	if cssDirection == "rtl" {
		return glyphing.RightToLeft
	}
	return glyphing.LeftToRight
}
