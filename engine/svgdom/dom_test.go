package svgdom

import (
	"math"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	input := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50"><text id="t1" x="10" y="20">Hello</text></svg>`
	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out := doc.String()
	if out != input {
		t.Errorf("round trip changed document:\n in: %s\nout: %s", input, out)
	}
}

func TestParseKeepsAttributeOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	doc, err := ParseString(`<svg xmlns="http://www.w3.org/2000/svg"><rect z="1" a="2" m="3"/></svg>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rect := doc.Root.FindAll("rect")[0]
	var names []string
	for _, a := range rect.Attrs {
		names = append(names, a.Local)
	}
	if got := strings.Join(names, ","); got != "z,a,m" {
		t.Errorf("attribute order not preserved, got %s", got)
	}
}

func TestRejectSodipodi(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	_, err := ParseString(`<svg xmlns="http://www.w3.org/2000/svg"
		xmlns:sodipodi="http://sodipodi.sourceforge.net/DTD/sodipodi-0.0.dtd">
		<text sodipodi:role="line">x</text></svg>`)
	if err == nil {
		t.Error("expected rejection of sodipodi document")
	}
}

func TestCascadeOverrideOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	doc, err := ParseString(`<svg xmlns="http://www.w3.org/2000/svg">
		<text font-size="10" style="font-size: 24px">x</text></svg>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	text := doc.Root.FindAll("text")[0]
	sm := CascadedStyle(text, StyleMap{"font-size": "8", "font-family": "Courier"})
	if got := sm.FontSize(); got != 24 {
		t.Errorf("style attribute should win cascade, font-size = %g", got)
	}
	if got := sm.Get("font-family", ""); got != "Courier" {
		t.Errorf("inherited font-family lost, got %q", got)
	}
}

func TestTextAlignAlias(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	doc, _ := ParseString(`<svg xmlns="http://www.w3.org/2000/svg">
		<text style="text-align: center">x</text></svg>`)
	text := doc.Root.FindAll("text")[0]
	sm := CascadedStyle(text, nil)
	if got := sm.Get("text-anchor", ""); got != "middle" {
		t.Errorf("text-align:center should alias to text-anchor:middle, got %q", got)
	}
}

func TestCascadeUnterminatedDeclaration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	// without a trailing semicolon the last declaration must not lose
	// its value
	doc, _ := ParseString(`<svg xmlns="http://www.w3.org/2000/svg">
		<text style="direction: rtl; text-decoration: underline">x</text></svg>`)
	text := doc.Root.FindAll("text")[0]
	sm := CascadedStyle(text, nil)
	if got := sm.Get("direction", ""); got != "rtl" {
		t.Errorf("direction = %q, want rtl", got)
	}
	if got := sm.Get("text-decoration", ""); got != "underline" {
		t.Errorf("text-decoration = %q, want underline", got)
	}
}

func TestParseLengthUnits(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"12", 12},
		{"12px", 12},
		{"12pt", 16},
		{"2em", 32},
		{"50%", 8},
	}
	for _, c := range cases {
		got, ok := ParseLength(c.in, 16)
		if !ok || math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ParseLength(%q) = %g, want %g", c.in, got, c.want)
		}
	}
}

func TestParseTransformBaking(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	m, ok, err := ParseTransform("translate(10 5) scale(2)")
	if err != nil || !ok {
		t.Fatalf("transform should be bakeable: %v", err)
	}
	x, y := m.Apply(3, 4)
	if x != 16 || y != 13 {
		t.Errorf("translate∘scale applied wrongly, got (%g, %g)", x, y)
	}
	if s := m.ScaleFactor(); math.Abs(s-2) > 1e-9 {
		t.Errorf("scale factor = %g, want 2", s)
	}
}

func TestParseTransformSkewNotBakeable(t *testing.T) {
	_, ok, err := ParseTransform("skewX(20)")
	if err != nil {
		t.Fatalf("skew should not error: %v", err)
	}
	if ok {
		t.Error("skew transforms must not be baked")
	}
}

func TestFlattenedTransform(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.dom")
	defer teardown()
	doc, _ := ParseString(`<svg xmlns="http://www.w3.org/2000/svg">
		<g transform="translate(100 0)"><text transform="scale(2)">x</text></g></svg>`)
	text := doc.Root.FindAll("text")[0]
	m, ok := FlattenedTransform(text)
	if !ok {
		t.Fatal("chain should be bakeable")
	}
	x, _ := m.Apply(1, 0)
	if x != 102 {
		t.Errorf("flattened transform x = %g, want 102", x)
	}
}
