/*
Package svgdom provides a minimal DOM for SVG documents.

It parses SVG XML into an ordered element tree, preserving attribute
order and namespace prefixes, and serializes the tree back to XML.
The tree is deliberately small: just enough structure for locating
text elements and path definitions, cascading styles, and splicing
converted output back into the document.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package svgdom

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 't2p.dom'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.dom")
}

// Well-known namespaces.
const (
	SVGNamespace      = "http://www.w3.org/2000/svg"
	XLinkNamespace    = "http://www.w3.org/1999/xlink"
	XMLNamespace      = "http://www.w3.org/XML/1998/namespace"
	SodipodiNamespace = "http://sodipodi.sourceforge.net/DTD/sodipodi-0.0.dtd"
	InkscapeNamespace = "http://www.inkscape.org/namespaces/inkscape"
)

// Node is an entry in an element's child list. Concrete types are
// *Element, Text and Comment.
type Node interface {
	node()
}

// Text is character data between elements.
type Text string

func (Text) node() {}

// Comment is an XML comment (without the delimiters).
type Comment string

func (Comment) node() {}

// Attr is a single attribute. Space holds the namespace URL for
// prefixed attributes and is empty otherwise.
type Attr struct {
	Space string
	Local string
	Value string
}

// Element is an XML element with ordered attributes and children.
type Element struct {
	Space    string // namespace URL
	Local    string
	Attrs    []Attr
	Children []Node
	Parent   *Element
}

func (*Element) node() {}

// Document is a parsed SVG document.
type Document struct {
	Root     *Element
	preamble []string          // XML declaration, doctype, top-level comments
	prefixes map[string]string // namespace URL -> prefix ("" for default)
}

// Parse reads an SVG document from r. Inkscape documents carrying the
// sodipodi namespace are rejected: their text markup relies on editor
// extensions this converter does not interpret.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{prefixes: map[string]string{
		XMLNamespace: "xml",
	}}
	dec := xml.NewDecoder(r)
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "malformed SVG document")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Space: t.Name.Space, Local: t.Name.Local}
			for _, a := range t.Attr {
				doc.recordNamespace(a)
				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, core.Error(core.EINVALID, "multiple root elements")
				}
				doc.Root = el
			} else {
				parent := stack[len(stack)-1]
				el.Parent = parent
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, core.Error(core.EINVALID, "unbalanced end tag </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Children = append(top.Children, Text(string(t)))
			}
		case xml.Comment:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Children = append(top.Children, Comment(string(t)))
			} else {
				doc.preamble = append(doc.preamble, "<!--"+string(t)+"-->")
			}
		case xml.ProcInst:
			if len(stack) == 0 {
				doc.preamble = append(doc.preamble, "<?"+t.Target+" "+string(t.Inst)+"?>")
			}
		case xml.Directive:
			if len(stack) == 0 {
				doc.preamble = append(doc.preamble, "<!"+string(t)+">")
			}
		}
	}
	if doc.Root == nil {
		return nil, core.Error(core.EINVALID, "empty SVG document")
	}
	if doc.usesSodipodi() {
		return nil, core.Error(core.EINVALID,
			"document uses Inkscape/sodipodi extensions; re-export as plain SVG first")
	}
	tracer().Debugf("parsed SVG document, root <%s>", doc.Root.Local)
	return doc, nil
}

// ParseString is Parse on a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (doc *Document) recordNamespace(a xml.Attr) {
	if a.Name.Space == "xmlns" {
		doc.prefixes[a.Value] = a.Name.Local
	} else if a.Name.Space == "" && a.Name.Local == "xmlns" {
		doc.prefixes[a.Value] = ""
	}
}

func (doc *Document) usesSodipodi() bool {
	if _, ok := doc.prefixes[SodipodiNamespace]; ok {
		return true
	}
	found := false
	doc.Root.Walk(func(el *Element) bool {
		if el.Space == SodipodiNamespace {
			found = true
			return false
		}
		for _, a := range el.Attrs {
			if a.Space == SodipodiNamespace {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// WriteTo serializes the document, preserving attribute order and the
// namespace prefixes seen during parsing.
func (doc *Document) WriteTo(w io.Writer) error {
	for _, p := range doc.preamble {
		if _, err := io.WriteString(w, p+"\n"); err != nil {
			return err
		}
	}
	return doc.writeElement(w, doc.Root)
}

// String serializes the document to a string.
func (doc *Document) String() string {
	var sb strings.Builder
	doc.WriteTo(&sb) //nolint:errcheck // strings.Builder does not fail
	return sb.String()
}

func (doc *Document) writeElement(w io.Writer, el *Element) error {
	name := doc.qualify(el.Space, el.Local, false)
	if _, err := io.WriteString(w, "<"+name); err != nil {
		return err
	}
	for _, a := range el.Attrs {
		aname := doc.qualifyAttr(a)
		if _, err := fmt.Fprintf(w, ` %s="%s"`, aname, escapeAttr(a.Value)); err != nil {
			return err
		}
	}
	if len(el.Children) == 0 {
		_, err := io.WriteString(w, "/>")
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}
	for _, child := range el.Children {
		switch c := child.(type) {
		case *Element:
			if err := doc.writeElement(w, c); err != nil {
				return err
			}
		case Text:
			if _, err := io.WriteString(w, escapeText(string(c))); err != nil {
				return err
			}
		case Comment:
			if _, err := io.WriteString(w, "<!--"+string(c)+"-->"); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "</"+name+">")
	return err
}

func (doc *Document) qualify(space, local string, isAttr bool) string {
	if space == "" {
		return local
	}
	prefix, ok := doc.prefixes[space]
	if !ok {
		// unknown namespace, common for unprefixed SVG attrs the
		// decoder tagged with the element's default namespace
		if !isAttr && space == SVGNamespace {
			return local
		}
		return local
	}
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func (doc *Document) qualifyAttr(a Attr) string {
	if a.Space == "xmlns" {
		return "xmlns:" + a.Local
	}
	if a.Space == "" {
		return a.Local
	}
	return doc.qualify(a.Space, a.Local, true)
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

// --- Element accessors and mutation ----------------------------------------

// Attr returns the value of the first attribute with the given local
// name in any namespace, or "" if absent.
func (el *Element) Attr(local string) string {
	for _, a := range el.Attrs {
		if a.Local == local {
			return a.Value
		}
	}
	return ""
}

// HasAttr reports whether an attribute with the given local name exists.
func (el *Element) HasAttr(local string) bool {
	for _, a := range el.Attrs {
		if a.Local == local {
			return true
		}
	}
	return false
}

// SetAttr sets an un-namespaced attribute, keeping its position if it
// already exists and appending otherwise.
func (el *Element) SetAttr(local, value string) {
	for i, a := range el.Attrs {
		if a.Space == "" && a.Local == local {
			el.Attrs[i].Value = value
			return
		}
	}
	el.Attrs = append(el.Attrs, Attr{Local: local, Value: value})
}

// RemoveAttr removes every attribute with the given local name.
func (el *Element) RemoveAttr(local string) {
	out := el.Attrs[:0]
	for _, a := range el.Attrs {
		if a.Local != local {
			out = append(out, a)
		}
	}
	el.Attrs = out
}

// ChildElements returns the element children in document order.
func (el *Element) ChildElements() []*Element {
	var out []*Element
	for _, c := range el.Children {
		if e, ok := c.(*Element); ok {
			out = append(out, e)
		}
	}
	return out
}

// AppendChild appends a node, fixing up the parent link for elements.
func (el *Element) AppendChild(n Node) {
	if e, ok := n.(*Element); ok {
		e.Parent = el
	}
	el.Children = append(el.Children, n)
}

// ReplaceChild substitutes new for old in the child list. It returns
// false if old is not a child of el.
func (el *Element) ReplaceChild(old, new *Element) bool {
	for i, c := range el.Children {
		if c == Node(old) {
			new.Parent = el
			el.Children[i] = new
			old.Parent = nil
			return true
		}
	}
	return false
}

// Walk performs a pre-order traversal starting at el. The visitor
// returns false to stop the walk.
func (el *Element) Walk(visit func(*Element) bool) bool {
	if !visit(el) {
		return false
	}
	for _, c := range el.Children {
		if e, ok := c.(*Element); ok {
			if !e.Walk(visit) {
				return false
			}
		}
	}
	return true
}

// FindAll collects all descendants (including el) with the given local
// name, in document order.
func (el *Element) FindAll(local string) []*Element {
	var out []*Element
	el.Walk(func(e *Element) bool {
		if e.Local == local {
			out = append(out, e)
		}
		return true
	})
	return out
}

// FindByID finds a descendant with a matching id attribute.
func (el *Element) FindByID(id string) *Element {
	var found *Element
	el.Walk(func(e *Element) bool {
		if e.Attr("id") == id {
			found = e
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of el with a nil parent.
func (el *Element) Clone() *Element {
	cp := &Element{Space: el.Space, Local: el.Local}
	cp.Attrs = append([]Attr(nil), el.Attrs...)
	for _, c := range el.Children {
		switch n := c.(type) {
		case *Element:
			child := n.Clone()
			child.Parent = cp
			cp.Children = append(cp.Children, child)
		default:
			cp.Children = append(cp.Children, n)
		}
	}
	return cp
}

// NewElement creates an element in the SVG namespace.
func NewElement(local string) *Element {
	return &Element{Space: SVGNamespace, Local: local}
}
