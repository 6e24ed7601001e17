package svgdom

import (
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
)

// StyleMap holds computed style properties for one element, property
// name to raw value string.
type StyleMap map[string]string

// Properties inherited from parent text containers. Geometry attributes
// (x, y, dx, dy, rotate) are deliberately absent: they do not inherit.
var inheritedProperties = []string{
	"font-family", "font-size", "font-style", "font-weight", "font-stretch",
	"letter-spacing", "word-spacing", "direction", "unicode-bidi",
	"text-anchor", "text-decoration", "dominant-baseline", "writing-mode",
	"fill", "fill-opacity", "stroke", "stroke-width", "stroke-opacity",
	"stroke-dasharray", "opacity", "xml:lang",
}

// Presentation attributes that participate in the cascade. A style=""
// declaration overrides the presentation attribute of the same name.
var presentationAttrs = []string{
	"font-family", "font-size", "font-style", "font-weight", "font-stretch",
	"letter-spacing", "word-spacing", "direction", "unicode-bidi",
	"text-anchor", "text-decoration", "dominant-baseline", "writing-mode",
	"fill", "fill-opacity", "stroke", "stroke-width", "stroke-opacity",
	"stroke-dasharray", "opacity", "textLength", "lengthAdjust",
}

// CascadedStyle computes the style map of an element: inherited
// properties from parent, overridden by presentation attributes,
// overridden by style="" declarations. text-align is accepted as an
// authoring-mistake alias for text-anchor when the latter is absent.
func CascadedStyle(el *Element, inherited StyleMap) StyleMap {
	sm := make(StyleMap, len(inherited)+4)
	for _, p := range inheritedProperties {
		if v, ok := inherited[p]; ok {
			sm[p] = v
		}
	}
	for _, p := range presentationAttrs {
		if v := el.Attr(p); v != "" {
			sm[p] = v
		}
	}
	if lang := el.Attr("lang"); lang != "" {
		sm["xml:lang"] = lang
	}
	if style := el.Attr("style"); style != "" {
		// douceur drops the value of an unterminated final declaration
		if !strings.HasSuffix(strings.TrimSpace(style), ";") {
			style += ";"
		}
		decls, err := parser.ParseDeclarations(style)
		if err != nil {
			tracer().Errorf("unparsable style attribute %q: %v", style, err)
		} else {
			for _, d := range decls {
				sm[strings.ToLower(strings.TrimSpace(d.Property))] = strings.TrimSpace(d.Value)
			}
		}
	}
	if _, ok := sm["text-anchor"]; !ok {
		switch sm["text-align"] {
		case "center":
			sm["text-anchor"] = "middle"
		case "left":
			sm["text-anchor"] = "start"
		case "right":
			sm["text-anchor"] = "end"
		}
	}
	delete(sm, "text-align")
	return sm
}

// Get returns a property value or a default.
func (sm StyleMap) Get(prop, dflt string) string {
	if v, ok := sm[prop]; ok && v != "" {
		return v
	}
	return dflt
}

// FontFamilies splits the font-family list, trimming quotes.
func (sm StyleMap) FontFamilies() []string {
	v := sm.Get("font-family", "")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FontSize returns the font size in user units (px). Missing or
// unparsable sizes yield the SVG default of 16.
func (sm StyleMap) FontSize() float64 {
	v := sm.Get("font-size", "")
	if v == "" {
		return 16
	}
	size, ok := ParseLength(v, 16)
	if !ok || size <= 0 {
		return 16
	}
	return size
}

// FontWeight returns the numeric CSS weight (100…900).
func (sm StyleMap) FontWeight() int {
	switch v := strings.ToLower(sm.Get("font-weight", "normal")); v {
	case "normal":
		return 400
	case "bold":
		return 700
	case "bolder":
		return 700
	case "lighter":
		return 300
	default:
		if n, err := strconv.Atoi(v); err == nil && n >= 100 && n <= 900 {
			return n
		}
		return 400
	}
}

// FontStyle returns the normalized style keyword (normal, italic, oblique).
func (sm StyleMap) FontStyle() string {
	switch v := strings.ToLower(sm.Get("font-style", "normal")); v {
	case "italic", "oblique":
		return v
	}
	return "normal"
}

// LetterSpacing returns the letter-spacing in user units. The keyword
// "normal" maps to 0.
func (sm StyleMap) LetterSpacing(fontSize float64) float64 {
	return sm.spacing("letter-spacing", fontSize)
}

// WordSpacing returns the word-spacing in user units.
func (sm StyleMap) WordSpacing(fontSize float64) float64 {
	return sm.spacing("word-spacing", fontSize)
}

func (sm StyleMap) spacing(prop string, fontSize float64) float64 {
	v := sm.Get(prop, "normal")
	if v == "normal" {
		return 0
	}
	n, ok := ParseLength(v, fontSize)
	if !ok {
		return 0
	}
	return n
}

// ParseLength parses a CSS length into user units (px). Supported units
// are px (default), pt (×4/3), em (relative to fontSize) and a bare
// percent sign (relative to fontSize). Returns ok=false for garbage.
func ParseLength(v string, fontSize float64) (float64, bool) {
	v = strings.TrimSpace(v)
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
		scale = 4.0 / 3.0
	case strings.HasSuffix(v, "em"):
		v = strings.TrimSuffix(v, "em")
		scale = fontSize
	case strings.HasSuffix(v, "%"):
		v = strings.TrimSuffix(v, "%")
		scale = fontSize / 100
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return n * scale, true
}
