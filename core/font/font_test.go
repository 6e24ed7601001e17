package font

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	xfont "golang.org/x/image/font"
)

type sw struct {
	s xfont.Style
	w xfont.Weight
}

func TestGuess(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	for k, v := range map[string]sw{
		"fonts/Clarendon-bold.ttf":               {xfont.StyleNormal, xfont.WeightBold},
		"Microsoft/Gill Sans MT Bold Italic.ttf": {xfont.StyleItalic, xfont.WeightBold},
		"Cambria Math.ttf":                       {xfont.StyleNormal, xfont.WeightNormal},
	} {
		style, weight := GuessStyleAndWeight(k)
		t.Logf("style = %d, weight = %d", style, weight)
		if style != v.s || weight != v.w {
			t.Errorf("expected different style or weight for %s", k)
		}
	}
}

func TestMatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	if !Matches("fonts/Clarendon-bold.ttf",
		"clarendon", xfont.StyleNormal, xfont.WeightBold) {
		t.Errorf("expected match for Clarendon, haven't")
	}
	if !Matches("Microsoft/Gill Sans MT Bold Italic.ttf",
		"gill sans", xfont.StyleItalic, xfont.WeightBold) {
		t.Errorf("expected match for Gill, haven't")
	}
	if !Matches("Cambria Math.ttf",
		"cambria", xfont.StyleNormal, xfont.WeightNormal) {
		t.Errorf("expected match for Cambria Math, haven't")
	}
}

func TestNormalizeFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	n := NormalizeFontname("Clarendon", xfont.StyleItalic, xfont.WeightBold)
	if n != "clarendon-italic-bold" {
		t.Errorf("expected different normalized name for clarendon")
	}
}

func TestTypeCaseCreation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	f := FallbackFont()
	tc, err := f.PrepareCase(12.0)
	if err != nil {
		t.Fatal(err)
	}
	if tc.ScalableFontParent() != f {
		t.Errorf("typecase does not point back to its scalable font")
	}
	expect := 12.0 / f.UnitsPerEm()
	if tc.Scale() != expect {
		t.Errorf("expected scale %g, have %g", expect, tc.Scale())
	}
	if !f.HasGlyph('A') {
		t.Errorf("fallback font should cover latin letters")
	}
}

func TestDesignMetricsSanity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	m := FallbackFont().DesignMetrics()
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Errorf("ascent and descent must be positive magnitudes, have %g/%g", m.Ascent, m.Descent)
	}
	if m.UnderlinePosition >= 0 {
		t.Errorf("underline position must sit below the baseline, have %g", m.UnderlinePosition)
	}
	if m.UnderlineThickness <= 0 || m.StrikeoutThickness <= 0 {
		t.Errorf("decoration thicknesses must be positive")
	}
	if m.StrikeoutPosition <= 0 {
		t.Errorf("strikeout position must sit above the baseline, have %g", m.StrikeoutPosition)
	}
}
