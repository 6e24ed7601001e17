package convert

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"

	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing/monospace"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

func newTestConverter() *Converter {
	resolver := fontregistry.NewResolver(fontregistry.NewRegistry(), nil)
	return NewWithShaper(DefaultParams(), monospace.Shaper(0, nil), resolver)
}

func convertString(t *testing.T, svg string) *svgdom.Document {
	t.Helper()
	doc, err := svgdom.ParseString(svg)
	require.NoError(t, err)
	require.NoError(t, newTestConverter().Document(doc))
	return doc
}

func TestConvertReplacesTextWithPath(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.convert")
	defer teardown()
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text id="t1" x="10" y="20" fill="red">AB</text></svg>`)
	require.Empty(t, doc.Root.FindAll("text"))
	paths := doc.Root.FindAll("path")
	require.Len(t, paths, 1)
	p := paths[0]
	require.Equal(t, "t1", p.Attr("id"))
	require.Equal(t, "red", p.Attr("fill"))
	require.True(t, strings.HasPrefix(p.Attr("d"), "M"))
	require.True(t, strings.HasSuffix(p.Attr("d"), "Z"))
}

func TestConvertGroupsPerSourceNode(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10">ab<tspan fill="blue">cd</tspan></text></svg>`)
	gs := doc.Root.FindAll("g")
	require.Len(t, gs, 1)
	paths := gs[0].FindAll("path")
	require.Len(t, paths, 2)
	require.Equal(t, "", paths[0].Attr("fill"))
	require.Equal(t, "blue", paths[1].Attr("fill"))
}

func TestConvertPreservesAnimationChildren(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10">ab<animate attributeName="opacity" from="0" to="1" dur="1s"/></text></svg>`)
	gs := doc.Root.FindAll("g")
	require.Len(t, gs, 1)
	require.Len(t, gs[0].FindAll("animate"), 1)
	require.Len(t, gs[0].FindAll("path"), 1)
}

func TestTransformBakedIntoCoordinates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.convert")
	defer teardown()
	plain := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10">A</text></svg>`)
	moved := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10" transform="translate(25 0)">A</text></svg>`)
	p1 := plain.Root.FindAll("path")[0]
	p2 := moved.Root.FindAll("path")[0]
	require.Empty(t, p2.Attr("transform"))
	require.NotEqual(t, p1.Attr("d"), p2.Attr("d"))
}

func TestSkewTransformPreservedVerbatim(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10" transform="skewX(10)">A</text></svg>`)
	p := doc.Root.FindAll("path")[0]
	require.Equal(t, "skewX(10)", p.Attr("transform"))
}

func TestStrokeWidthScaledWhenBaked(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10" transform="scale(2)" stroke="black" stroke-width="1.5">A</text></svg>`)
	p := doc.Root.FindAll("path")[0]
	require.Empty(t, p.Attr("transform"))
	require.Equal(t, "3", p.Attr("stroke-width"))
}

func TestBrokenTextPathDegrades(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.convert")
	defer teardown()
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><text><textPath href="#nope">hidden</textPath></text></svg>`)
	require.Empty(t, doc.Root.FindAll("text"))
	for _, p := range doc.Root.FindAll("path") {
		require.Empty(t, p.Attr("d"))
	}
}

func TestTextOnPathConverts(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg"><defs><path id="wave" d="M 0 0 L 200 0"/></defs><text><textPath href="#wave">hi</textPath></text></svg>`)
	require.Empty(t, doc.Root.FindAll("text"))
	var converted []*svgdom.Element
	for _, p := range doc.Root.FindAll("path") {
		if p.Attr("id") != "wave" {
			converted = append(converted, p)
		}
	}
	require.Len(t, converted, 1)
	require.NotEmpty(t, converted[0].Attr("d"))
}

func TestMissingFontLeavesDocumentUntouched(t *testing.T) {
	doc, err := svgdom.ParseString(
		`<svg xmlns="http://www.w3.org/2000/svg"><text x="0" y="10">ok</text><text font-family="NoSuchFamilyXYZZY">bad</text></svg>`)
	require.NoError(t, err)
	err = newTestConverter().Document(doc)
	require.Error(t, err)
	require.Len(t, doc.Root.FindAll("text"), 2, "failed conversion must not modify the document")
}

func TestConvertRoundTripWritesValidSVG(t *testing.T) {
	doc := convertString(t,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text x="5" y="50">go</text></svg>`)
	out := doc.String()
	require.Contains(t, out, `viewBox="0 0 100 100"`)
	reparsed, err := svgdom.ParseString(out)
	require.NoError(t, err)
	require.Empty(t, reparsed.Root.FindAll("text"))
}
