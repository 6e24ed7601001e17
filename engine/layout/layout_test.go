package layout

import (
	"errors"
	"strconv"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
	"github.com/Emasoft/svg-text2path/engine/glyphing/monospace"
	"github.com/Emasoft/svg-text2path/engine/path"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

// cellDU is the monospace test shaper's advance per cell in design units.
const cellDU = 500

type fixture struct {
	engine  *Engine
	builder *InputBuilder
	adv     float64 // user-unit advance of one monospace cell at size 10
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := fontregistry.NewRegistry()
	resolver := fontregistry.NewResolver(reg, nil)
	shaper := monospace.Shaper(cellDU, nil)
	eng := NewEngine(shaper, resolver, Policy{})
	scale := 10 / font.FallbackFont().UnitsPerEm()
	return &fixture{
		engine:  eng,
		builder: NewInputBuilder(resolver),
		adv:     cellDU * scale,
	}
}

func (fx *fixture) layout(t *testing.T, svg string) *Result {
	t.Helper()
	doc, err := svgdom.ParseString(svg)
	require.NoError(t, err)
	texts := doc.Root.FindAll("text")
	require.NotEmpty(t, texts)
	in, err := fx.builder.Build(texts[0], svgdom.StyleMap{"font-size": "10"})
	require.NoError(t, err)
	res, err := fx.engine.Layout(in)
	require.NoError(t, err)
	return res
}

func (fx *fixture) build(t *testing.T, svg string) *Input {
	t.Helper()
	doc, err := svgdom.ParseString(svg)
	require.NoError(t, err)
	in, err := fx.builder.Build(doc.Root.FindAll("text")[0], svgdom.StyleMap{"font-size": "10"})
	require.NoError(t, err)
	return in
}

func TestSingleLinePlacements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.layout")
	defer teardown()
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="10" y="20">Hello</text></svg>`)
	require.Len(t, res.Placements, 5)
	require.InDelta(t, 10.0, res.Placements[0].X, 1e-9)
	for i := 1; i < len(res.Placements); i++ {
		require.Greater(t, res.Placements[i].X, res.Placements[i-1].X,
			"glyph origins must increase monotonically in x")
		require.InDelta(t, fx.adv, res.Placements[i].X-res.Placements[i-1].X, 1e-9)
	}
	for _, p := range res.Placements {
		require.InDelta(t, 20.0, p.Y, 1e-9)
	}
	require.Len(t, res.Lines, 1)
	require.InDelta(t, 20.0, res.Lines[0].BaselineY, 1e-9)
}

func TestAnchorMiddle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.layout")
	defer teardown()
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" text-anchor="middle">AB</text></svg>`)
	require.Len(t, res.Placements, 2)
	require.InDelta(t, -fx.adv, res.Placements[0].X, 1e-9)
	require.InDelta(t, 0.0, res.Placements[1].X, 1e-9)
	// midpoint of the visual extent sits on the declared origin
	mid := (res.Placements[0].X + res.Placements[1].X + fx.adv) / 2
	require.InDelta(t, 0.0, mid, 1e-9)
}

func TestAnchorEnd(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" text-anchor="end">AB</text></svg>`)
	require.Len(t, res.Placements, 2)
	require.InDelta(t, -2*fx.adv, res.Placements[0].X, 1e-9)
}

func TestRTLBaseFlipsStartAnchor(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" style="direction: rtl">AB</text></svg>`)
	require.Len(t, res.Placements, 2)
	require.InDelta(t, -2*fx.adv, res.Placements[0].X, 1e-9)
}

func TestTrailingWhitespaceTrimmedBeforeAnchoring(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" text-anchor="end">AB </text></svg>`)
	// the trailing space does not count into the anchored width
	require.InDelta(t, -2*fx.adv, res.Placements[0].X, 1e-9)
	require.Len(t, res.Lines, 1)
	require.InDelta(t, 2*fx.adv, res.Lines[0].Chunks[0].Width, 1e-9)
}

func TestChunkWidthsSumToLineWidth(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0">ab<tspan x="30">cd</tspan></text></svg>`)
	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	require.Len(t, line.Chunks, 2)
	total := 0.0
	for _, c := range line.Chunks {
		total += c.Width
	}
	require.InDelta(t, 4*fx.adv, total, 1e-6)
}

func TestShortDyArrayReusesLastValue(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="20" dy="5">abc</text></svg>`)
	require.Len(t, res.Placements, 3)
	require.InDelta(t, 25.0, res.Placements[0].Y, 1e-9)
	require.InDelta(t, 30.0, res.Placements[1].Y, 1e-9)
	require.InDelta(t, 35.0, res.Placements[2].Y, 1e-9)
}

func TestTspanDyShiftsMidLine(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="20">ab<tspan dy="5">cd</tspan></text></svg>`)
	require.Len(t, res.Placements, 4)
	require.InDelta(t, 20.0, res.Placements[0].Y, 1e-9)
	require.InDelta(t, 20.0, res.Placements[1].Y, 1e-9)
	// the subscript tspan shifts down without restarting the pen
	require.InDelta(t, 25.0, res.Placements[2].Y, 1e-9)
	require.InDelta(t, 30.0, res.Placements[3].Y, 1e-9)
	require.InDelta(t, 2*fx.adv, res.Placements[2].X, 1e-9)
}

func TestEmbeddedRTLRunReversed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.layout")
	defer teardown()
	fx := newFixture(t)
	doc, err := svgdom.ParseString(`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0">ab אב cd</text></svg>`)
	require.NoError(t, err)
	in, err := fx.builder.Build(doc.Root.FindAll("text")[0], svgdom.StyleMap{"font-size": "10"})
	require.NoError(t, err)
	res, err := fx.engine.Layout(in)
	if err != nil {
		var mfe core.MissingFontError
		if errors.As(err, &mfe) {
			t.Skip("no font covering Hebrew installed")
		}
		t.Fatal(err)
	}
	require.Len(t, res.Lines, 1)
	pos := make(map[rune]float64)
	for _, ch := range res.Lines[0].Chars {
		pos[ch.Rune] = ch.X
	}
	// the Hebrew run reads right to left inside the LTR paragraph
	require.Greater(t, pos['א'], pos['ב'])
	require.Greater(t, pos['ב'], pos['b'])
	require.Greater(t, pos['c'], pos['א'])
}

func TestRotatePersistence(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" rotate="10 20">abc</text></svg>`)
	require.Len(t, res.Placements, 3)
	require.InDelta(t, 10.0, res.Placements[0].Rotation, 1e-9)
	require.InDelta(t, 20.0, res.Placements[1].Rotation, 1e-9)
	require.InDelta(t, 20.0, res.Placements[2].Rotation, 1e-9)
}

func TestTextLengthSpacing(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" textLength="100">AB</text></svg>`)
	require.Len(t, res.Placements, 2)
	gap := res.Placements[1].X - res.Placements[0].X
	require.InDelta(t, fx.adv+(100-2*fx.adv), gap, 1e-9)
	// spacing mode leaves glyph geometry alone
	require.InDelta(t, res.Placements[0].ScaleY, res.Placements[0].ScaleX, 1e-12)
}

func TestTextLengthSpacingAndGlyphs(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" textLength="100" lengthAdjust="spacingAndGlyphs">AB</text></svg>`)
	require.Len(t, res.Placements, 2)
	stretch := 100 / (2 * fx.adv)
	require.InDelta(t, fx.adv*stretch, res.Placements[1].X-res.Placements[0].X, 1e-9)
	require.InDelta(t, res.Placements[0].ScaleY*stretch, res.Placements[0].ScaleX, 1e-12)
}

func TestTspanAbsoluteYStartsNewLine(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10">ab<tspan x="0" y="30">cd</tspan></text></svg>`)
	require.Len(t, res.Lines, 2)
	require.InDelta(t, 10.0, res.Lines[0].BaselineY, 1e-9)
	require.InDelta(t, 30.0, res.Lines[1].BaselineY, 1e-9)
}

func TestInlineSizeWraps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.layout")
	defer teardown()
	fx := newFixture(t)
	wrap := 5.5 * fx.adv
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0" style="inline-size: `+
		outlineFmt(wrap)+`px">aa bb cc</text></svg>`)
	require.Len(t, res.Lines, 2)
	require.Greater(t, res.Lines[1].BaselineY, res.Lines[0].BaselineY)
}

func TestMissingFontAborts(t *testing.T) {
	fx := newFixture(t)
	doc, err := svgdom.ParseString(`<svg xmlns="http://www.w3.org/2000/svg"><text font-family="NoSuchFamilyXYZZY">x</text></svg>`)
	require.NoError(t, err)
	_, err = fx.builder.Build(doc.Root.FindAll("text")[0], nil)
	require.Error(t, err)
	var mfe core.MissingFontError
	require.True(t, errors.As(err, &mfe))
}

func TestInputNormalizedToNFC(t *testing.T) {
	fx := newFixture(t)
	// combining acute composes with the base letter before shaping
	in := fx.build(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="0">e&#x301;</text></svg>`)
	require.Len(t, in.Sources, 1)
	require.Equal(t, []rune{'é'}, in.Sources[0].Text)
}

func TestUnoutlineableGlyphTriggersFallback(t *testing.T) {
	sf := font.FallbackFont()
	gid := sf.GlyphIndex('A')
	require.NotZero(t, gid)
	require.True(t, sf.HasOutline(gid))
	// a glyph id the font maps but cannot outline counts as .notdef,
	// so the reshape-with-fallback path fires for it
	seq := glyphing.GlyphSequence{Glyphs: []glyphing.ShapedGlyph{{GID: 0xfffe, Cluster: 0}}}
	require.True(t, hasVisibleNotdef([]rune{'A'}, seq, sf))
	require.Equal(t, []rune{'A'}, notdefRunes([]rune{'A'}, seq, sf))
}

func TestEmptyTextKeepsVerticalBookkeeping(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="5" y="20"></text></svg>`)
	require.Len(t, res.Lines, 1)
	require.InDelta(t, 20.0, res.Lines[0].BaselineY, 1e-9)
	require.NotEmpty(t, res.Lines[0].Chars)
	require.Empty(t, res.Placements)
}

func TestSpaceOnlySourceKeepsBookkeeping(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="5" y="6"> </text></svg>`)
	require.Len(t, res.Lines, 1)
	require.NotEmpty(t, res.Lines[0].Chars)
	require.InDelta(t, 0.0, res.Lines[0].Chunks[0].Width, 1e-9)
}

func TestTextPathStraight(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.layout")
	defer teardown()
	fx := newFixture(t)
	in := fx.build(t, `<svg xmlns="http://www.w3.org/2000/svg"><text><textPath href="#p">AB</textPath></text></svg>`)
	require.Equal(t, "p", in.PathHref)
	res, err := fx.engine.Layout(in)
	require.NoError(t, err)
	pg, err := path.FromSVGPath("M 0 0 L 100 0")
	require.NoError(t, err)
	PlaceOnPath(res, in, pg)
	require.Len(t, res.Placements, 2)
	require.InDelta(t, 0.0, res.Placements[0].X, 1e-9)
	require.InDelta(t, fx.adv, res.Placements[1].X, 1e-9)
	for _, p := range res.Placements {
		require.InDelta(t, 0.0, p.Rotation, 1e-9)
		require.False(t, p.Hidden)
	}
}

func TestTextPathDeterministic(t *testing.T) {
	fx := newFixture(t)
	pg, err := path.FromSVGPath("M 0 0 C 20 -30 80 -30 100 0")
	require.NoError(t, err)
	var first []GlyphPlacement
	for round := 0; round < 2; round++ {
		in := fx.build(t, `<svg xmlns="http://www.w3.org/2000/svg"><text><textPath href="#p">path</textPath></text></svg>`)
		res, err := fx.engine.Layout(in)
		require.NoError(t, err)
		PlaceOnPath(res, in, pg)
		if round == 0 {
			first = res.Placements
			continue
		}
		require.Equal(t, len(first), len(res.Placements))
		for i := range first {
			require.InDelta(t, first[i].X, res.Placements[i].X, 1e-12)
			require.InDelta(t, first[i].Y, res.Placements[i].Y, 1e-12)
			require.InDelta(t, first[i].Rotation, res.Placements[i].Rotation, 1e-12)
		}
	}
}

func TestTextPathOverflowHidden(t *testing.T) {
	fx := newFixture(t)
	in := fx.build(t, `<svg xmlns="http://www.w3.org/2000/svg"><text><textPath href="#p">wide text run</textPath></text></svg>`)
	res, err := fx.engine.Layout(in)
	require.NoError(t, err)
	pg, err := path.FromSVGPath("M 0 0 L 4 0")
	require.NoError(t, err)
	PlaceOnPath(res, in, pg)
	hidden := 0
	for _, p := range res.Placements {
		if p.Hidden {
			hidden++
		}
	}
	require.Greater(t, hidden, 0, "glyphs beyond the path end must be hidden")
}

func TestUnderlineUsesDominantFontMetrics(t *testing.T) {
	fx := newFixture(t)
	res := fx.layout(t, `<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="50" style="text-decoration: underline">abc</text></svg>`)
	require.Len(t, res.Decorations, 1)
	d := res.Decorations[0]
	sf := font.FallbackFont()
	m := sf.DesignMetrics()
	scale := 10 / sf.UnitsPerEm()
	require.InDelta(t, 50-m.UnderlinePosition*scale, d.Y, 1e-9)
	require.InDelta(t, m.UnderlineThickness*scale, d.H, 1e-9)
	require.False(t, d.Strike)
}

func outlineFmt(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
