/*
Package convert turns the <text> elements of an SVG document into
vector outline paths.

Each <text> subtree is laid out by the engine packages and replaced in
place by path elements carrying the glyph outlines. Presentation
attributes, ids and animation children survive the conversion, so the
output renders identically without any font being installed.

Conversion works on a deep copy of the document tree; a fatal error
(missing font, shaping failure) leaves the caller's document untouched.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package convert

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing"
	"github.com/Emasoft/svg-text2path/engine/glyphing/harfbuzz"
	"github.com/Emasoft/svg-text2path/engine/layout"
	"github.com/Emasoft/svg-text2path/engine/outline"
	"github.com/Emasoft/svg-text2path/engine/path"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

// tracer traces with key 't2p.convert'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.convert")
}

// Converter converts the text content of SVG documents to outline
// paths. A Converter is safe to reuse across documents; the font
// registry behind it is read-shared.
type Converter struct {
	params   Params
	shaper   glyphing.Shaper
	resolver *fontregistry.Resolver
}

// New creates a converter shaping with HarfBuzz and resolving fonts
// through the global registry.
func New(params Params) *Converter {
	resolver := fontregistry.NewResolver(fontregistry.GlobalRegistry(), params.FallbackFamilies)
	return NewWithShaper(params, harfbuzz.NewShaper(), resolver)
}

// NewWithShaper creates a converter with an explicit shaper and font
// resolver. Tests use this with the deterministic monospace shaper.
func NewWithShaper(params Params, shaper glyphing.Shaper, resolver *fontregistry.Resolver) *Converter {
	if params.Precision <= 0 {
		params.Precision = outline.DefaultPrecision
	}
	return &Converter{
		params:   params,
		shaper:   shaper,
		resolver: resolver,
	}
}

// Convert reads an SVG document, converts its text and writes the
// result. On error nothing is written.
func (cv *Converter) Convert(r io.Reader, w io.Writer) error {
	doc, err := svgdom.Parse(r)
	if err != nil {
		return err
	}
	if err := cv.Document(doc); err != nil {
		return err
	}
	return doc.WriteTo(w)
}

// Document converts every <text> element of doc in place. Fatal error
// categories abort before doc is modified; a broken textPath target
// only suppresses the characters bound to it.
func (cv *Converter) Document(doc *svgdom.Document) error {
	root := doc.Root.Clone()
	cache := path.NewCache()
	engine := layout.NewEngine(cv.shaper, cv.resolver, layout.Policy{
		DyResetsBaseline: cv.params.DyResetsBaseline,
	})
	builder := layout.NewInputBuilder(cv.resolver)

	texts := root.FindAll("text")
	tracer().Infof("converting %d text elements", len(texts))
	for _, el := range texts {
		replacement, err := cv.convertText(el, root, builder, engine, cache)
		if err != nil {
			return err
		}
		if el.Parent == nil || !el.Parent.ReplaceChild(el, replacement) {
			return core.Error(core.EINTERNAL, "text element lost its parent during conversion")
		}
	}
	doc.Root = root
	return nil
}

func (cv *Converter) convertText(el *svgdom.Element, root *svgdom.Element,
	builder *layout.InputBuilder, engine *layout.Engine, cache *path.Cache) (*svgdom.Element, error) {
	//
	in, err := builder.Build(el, ancestorStyle(el))
	if err != nil {
		return nil, err
	}
	res, err := engine.Layout(in)
	if err != nil {
		return nil, err
	}
	if in.PathHref != "" {
		cv.bindToPath(res, in, root, cache)
	}
	return cv.emit(el, in, res)
}

// bindToPath maps the laid-out characters onto the referenced path. A
// missing or degenerate target path hides the bound characters and
// conversion continues.
func (cv *Converter) bindToPath(res *layout.Result, in *layout.Input, root *svgdom.Element, cache *path.Cache) {
	target := root.FindByID(in.PathHref)
	if target == nil {
		tracer().Errorf("textPath references #%s, no such element", in.PathHref)
		hideAll(res)
		return
	}
	pg, err := cache.Geometry(in.PathHref, target.Attr("d"))
	if err != nil {
		var pge core.PathGeometryError
		if errors.As(err, &pge) {
			tracer().Errorf("textPath target #%s unusable: %v", in.PathHref, err)
			hideAll(res)
			return
		}
		hideAll(res)
		return
	}
	layout.PlaceOnPath(res, in, pg)
}

func hideAll(res *layout.Result) {
	for i := range res.Placements {
		res.Placements[i].Hidden = true
	}
	res.Decorations = nil
}

// emit builds the replacement element for one <text> subtree: one
// <path> per source node, grouped under a <g> when the subtree had
// several sources or animation children.
func (cv *Converter) emit(el *svgdom.Element, in *layout.Input, res *layout.Result) (*svgdom.Element, error) {
	bake := svgdom.Identity
	baked := false
	if tr := el.Attr("transform"); tr != "" {
		m, bakeable, err := svgdom.ParseTransform(tr)
		if err != nil {
			return nil, err
		}
		if bakeable {
			bake = m
			baked = true
		}
	}

	paths := make([]*svgdom.Element, 0, len(in.Sources))
	for srcIdx, src := range in.Sources {
		var sb strings.Builder
		for _, p := range res.Placements {
			if p.SourceIdx != srcIdx || p.Hidden || p.Font == nil {
				continue
			}
			m := bake.Mul(placementMatrix(p))
			d, err := outline.PathData(p.Font, p.GID, m, cv.params.Precision)
			if err != nil {
				// unoutlineable glyphs are reshaped with a fallback
				// during chunking, so this only catches the unexpected
				tracer().Errorf("skipping glyph %d: %v", p.GID, err)
				continue
			}
			sb.WriteString(d)
		}
		for _, deco := range res.Decorations {
			if deco.SourceIdx != srcIdx {
				continue
			}
			sb.WriteString(outline.Rect(deco.X, deco.Y, deco.W, deco.H, bake, cv.params.Precision))
		}
		if sb.Len() == 0 {
			continue
		}
		p := svgdom.NewElement("path")
		p.SetAttr("d", sb.String())
		copyPaintAttrs(src.Node, p, bake, baked)
		paths = append(paths, p)
	}

	anim := animationChildren(el)
	if len(paths) == 1 && len(anim) == 0 {
		out := paths[0]
		copyStructuralAttrs(el, out, baked)
		return out, nil
	}
	g := svgdom.NewElement("g")
	copyStructuralAttrs(el, g, baked)
	for _, p := range paths {
		g.AppendChild(p)
	}
	for _, a := range anim {
		g.AppendChild(a.Clone())
	}
	return g, nil
}

// placementMatrix maps one glyph's design units into user space:
// scale (with textLength stretch), rotate about the glyph origin, then
// translate to the resolved position.
func placementMatrix(p layout.GlyphPlacement) svgdom.Matrix {
	translate := svgdom.Matrix{1, 0, 0, 1, p.X, p.Y}
	scale := svgdom.Matrix{p.ScaleX, 0, 0, p.ScaleY, 0, 0}
	if p.Rotation == 0 {
		return translate.Mul(scale)
	}
	return translate.Mul(svgdom.Rotation(p.Rotation)).Mul(scale)
}

// paintAttrs are carried from the source text/tspan element onto the
// generated path element.
var paintAttrs = []string{
	"fill", "fill-opacity", "fill-rule",
	"stroke", "stroke-width", "stroke-opacity",
	"stroke-dasharray", "stroke-dashoffset",
	"stroke-linecap", "stroke-linejoin",
	"opacity", "style", "class",
	"paint-order", "visibility",
}

func copyPaintAttrs(src *svgdom.Element, dst *svgdom.Element, bake svgdom.Matrix, baked bool) {
	if src == nil {
		return
	}
	for _, name := range paintAttrs {
		if v := src.Attr(name); v != "" {
			dst.SetAttr(name, v)
		}
	}
	if baked {
		scaleStrokeWidth(dst, bake.ScaleFactor())
	}
}

// copyStructuralAttrs carries identity and accessibility attributes of
// the converted <text> onto its replacement. An unbakeable transform
// is preserved verbatim.
func copyStructuralAttrs(src *svgdom.Element, dst *svgdom.Element, baked bool) {
	for _, a := range src.Attrs {
		switch {
		case a.Local == "id" || a.Local == "role" || a.Local == "tabindex":
			dst.Attrs = append(dst.Attrs, a)
		case strings.HasPrefix(a.Local, "aria-") || strings.HasPrefix(a.Local, "data-"):
			dst.Attrs = append(dst.Attrs, a)
		case a.Local == "transform" && !baked:
			dst.Attrs = append(dst.Attrs, a)
		}
	}
}

// scaleStrokeWidth adjusts an explicit stroke width for a transform
// that was baked into the path coordinates.
func scaleStrokeWidth(el *svgdom.Element, factor float64) {
	if factor == 1 {
		return
	}
	if v := el.Attr("stroke-width"); v != "" {
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil {
			el.SetAttr("stroke-width", outline.FormatNumber(n*factor, 6))
		}
	}
	if style := el.Attr("style"); strings.Contains(style, "stroke-width") {
		el.SetAttr("style", scaleStrokeWidthInStyle(style, factor))
	}
}

func scaleStrokeWidthInStyle(style string, factor float64) string {
	decls := strings.Split(style, ";")
	for i, d := range decls {
		key, val, ok := strings.Cut(d, ":")
		if !ok || strings.TrimSpace(key) != "stroke-width" {
			continue
		}
		raw := strings.TrimSpace(val)
		if n, err := strconv.ParseFloat(strings.TrimSuffix(raw, "px"), 64); err == nil {
			decls[i] = strings.TrimSpace(key) + ":" + outline.FormatNumber(n*factor, 6)
		}
	}
	return strings.Join(decls, ";")
}

// animationChildren returns the SMIL animation elements directly under
// el, which must survive on the replacement element.
func animationChildren(el *svgdom.Element) []*svgdom.Element {
	var out []*svgdom.Element
	for _, c := range el.ChildElements() {
		switch c.Local {
		case "animate", "animateTransform", "animateMotion", "set":
			out = append(out, c)
		}
	}
	return out
}

// ancestorStyle computes the inherited style of el's parent chain,
// outermost ancestor first.
func ancestorStyle(el *svgdom.Element) svgdom.StyleMap {
	var chain []*svgdom.Element
	for p := el.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	var style svgdom.StyleMap
	for i := len(chain) - 1; i >= 0; i-- {
		style = svgdom.CascadedStyle(chain[i], style)
	}
	return style
}
