package layout

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
	"github.com/Emasoft/svg-text2path/engine/glyphing/bidi"
	"github.com/Emasoft/svg-text2path/engine/svgdom"
)

// InputBuilder walks a <text> subtree and produces the ordered text
// sources for layout. Font resolution happens here, once per source.
type InputBuilder struct {
	resolver *fontregistry.Resolver
}

// NewInputBuilder creates a builder resolving fonts through resolver.
func NewInputBuilder(resolver *fontregistry.Resolver) *InputBuilder {
	return &InputBuilder{resolver: resolver}
}

// Build prepares the subtree rooted at the <text> element for layout.
// inherited is the computed style of the element's parent chain.
func (b *InputBuilder) Build(root *svgdom.Element, inherited svgdom.StyleMap) (*Input, error) {
	in := &Input{Root: root}
	rootStyle := svgdom.CascadedStyle(root, inherited)
	if v := root.Attr("textLength"); v != "" {
		if n, ok := svgdom.ParseLength(v, rootStyle.FontSize()); ok && n > 0 {
			in.TextLength = n
		} else {
			return nil, core.LayoutInputError{Attr: "textLength", Detail: "unparsable value " + v}
		}
	}
	if root.Attr("lengthAdjust") == "spacingAndGlyphs" {
		in.LengthAdjust = AdjustSpacingAndGlyphs
	}
	if v, ok := rootStyle["inline-size"]; ok {
		if n, ok := svgdom.ParseLength(v, rootStyle.FontSize()); ok && n > 0 {
			in.InlineSize = n
		}
	}
	if err := b.walk(in, root, rootStyle, true); err != nil {
		return nil, err
	}
	if len(in.Sources) > 0 {
		in.Sources[0].IsLineStart = true
	}
	if in.PathSide == "right" {
		tracer().Infof("textPath side=right is not supported, falling back to left")
	}
	tracer().Debugf("input builder: %d sources from <%s>", len(in.Sources), root.Local)
	return in, nil
}

// walk descends an element, creating one TextSource per character-data
// child. Positional override arrays of an element attach to the first
// source created below it.
func (b *InputBuilder) walk(in *Input, el *svgdom.Element, style svgdom.StyleMap, isRoot bool) error {
	if el.Local == "textPath" {
		href := el.Attr("href")
		if href == "" {
			// SVG 1.1 form
			for _, a := range el.Attrs {
				if a.Local == "href" {
					href = a.Value
				}
			}
		}
		in.PathHref = strings.TrimPrefix(href, "#")
		in.StartOffset = el.Attr("startOffset")
		in.PathSide = el.Attr("side")
	}
	rs, err := b.resolveStyle(style)
	if err != nil {
		return err
	}
	pos := positionArrays(el, style.FontSize())
	first := true
	for _, child := range el.Children {
		switch c := child.(type) {
		case svgdom.Text:
			text := collapseWhitespace(norm.NFC.String(string(c)))
			if text == "" {
				continue
			}
			src := &TextSource{
				Text:  []rune(text),
				Style: rs,
				Node:  el,
			}
			if first {
				src.X, src.Y = pos.x, pos.y
				src.Dx, src.Dy = pos.dx, pos.dy
				src.Rotate = pos.rotate
				first = false
			}
			// wrapped flow ignores positional overrides on descendants
			if in.InlineSize > 0 && !isRoot {
				src.X, src.Y, src.Dx, src.Dy = nil, nil, nil, nil
			}
			in.Sources = append(in.Sources, src)
		case *svgdom.Element:
			switch c.Local {
			case "tspan", "textPath":
				childStyle := svgdom.CascadedStyle(c, style)
				if in.InlineSize > 0 && len(in.Sources) > 0 {
					// each tspan is a paragraph in wrapped flow
					in.Sources = append(in.Sources, syntheticBreak(rs, el))
				}
				if err := b.walk(in, c, childStyle, false); err != nil {
					return err
				}
				first = first && !containsText(c)
			default:
				// animation and metadata children are preserved by the
				// converter, they carry no layout content
			}
		}
	}
	// keep vertical bookkeeping alive for empty containers
	if isRoot && len(in.Sources) == 0 {
		in.Sources = append(in.Sources, &TextSource{
			Text:  nil,
			Style: rs,
			Node:  el,
			X:     pos.x,
			Y:     pos.y,
		})
	}
	return nil
}

func (b *InputBuilder) resolveStyle(style svgdom.StyleMap) (ResolvedStyle, error) {
	size := style.FontSize()
	rs := ResolvedStyle{
		Families:      style.FontFamilies(),
		Weight:        style.FontWeight(),
		StyleKeyword:  style.FontStyle(),
		Size:          size,
		LetterSpacing: style.LetterSpacing(size),
		WordSpacing:   style.WordSpacing(size),
		BaseDirection: bidi.BaseDirection(style.Get("direction", "ltr")),
		Anchor:        anchorFromStyle(style),
		Language:      language.Und,
	}
	if lang := style.Get("xml:lang", ""); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			rs.Language = tag
		}
	}
	deco := style.Get("text-decoration", "")
	rs.Underline = strings.Contains(deco, "underline")
	rs.Strikethrough = strings.Contains(deco, "line-through")
	tc, err := b.resolver.Resolve(rs.Families, rs.Weight, rs.StyleKeyword, size)
	if err != nil {
		return ResolvedStyle{}, err
	}
	rs.Font = tc
	return rs, nil
}

func anchorFromStyle(style svgdom.StyleMap) Anchor {
	switch style.Get("text-anchor", "start") {
	case "middle":
		return AnchorMiddle
	case "end":
		return AnchorEnd
	case "justify":
		return AnchorJustify
	}
	return AnchorStart
}

type posArrays struct {
	x, y, dx, dy, rotate []float64
}

func positionArrays(el *svgdom.Element, fontSize float64) posArrays {
	return posArrays{
		x:      parseNumberList(el.Attr("x"), fontSize),
		y:      parseNumberList(el.Attr("y"), fontSize),
		dx:     parseNumberList(el.Attr("dx"), fontSize),
		dy:     parseNumberList(el.Attr("dy"), fontSize),
		rotate: parseNumberList(el.Attr("rotate"), fontSize),
	}
}

// parseNumberList parses an SVG number list ("10, 20 30"). Unparsable
// entries are dropped; units are resolved against fontSize.
func parseNumberList(s string, fontSize float64) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, n)
		} else if n, ok := svgdom.ParseLength(f, fontSize); ok {
			out = append(out, n)
		}
	}
	return out
}

// collapseWhitespace applies default SVG white-space handling: newlines
// and tabs become spaces, runs of spaces collapse to one.
func collapseWhitespace(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			if !prevSpace {
				sb.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func syntheticBreak(rs ResolvedStyle, node *svgdom.Element) *TextSource {
	return &TextSource{
		Style:            rs,
		Node:             node,
		IsParagraphBreak: true,
		IsLineStart:      true,
	}
}

func containsText(el *svgdom.Element) bool {
	for _, c := range el.Children {
		switch n := c.(type) {
		case svgdom.Text:
			if strings.TrimSpace(string(n)) != "" {
				return true
			}
		case *svgdom.Element:
			if containsText(n) {
				return true
			}
		}
	}
	return false
}
