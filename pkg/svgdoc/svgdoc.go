// Package svgdoc adapts a converted vector-graphics document into a small
// capability interface: find-by-tag, parent/sibling/child navigation, and
// attribute/text access.
//
// The extraction heuristics in pkg/waveform and pkg/metadata depend only on
// the Node and Document interfaces, never on a selector syntax. The one
// implementation in this package is backed by goquery's HTML parser, which
// handles SVG foreign content (path, g, text, defs) and namespace noise
// without any preprocessing.
//
// # Usage
//
//	doc, err := svgdoc.Parse(bytes.NewReader(svg))
//	if err != nil {
//	    return err
//	}
//	for _, p := range doc.Find("path") {
//	    d, _ := p.Attr("d")
//	    ...
//	}
package svgdoc

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ekglab/ekgstore/pkg/errors"
)

// Node is a single element of the converted document tree.
//
// Implementations must be comparable: two Node values obtained for the same
// underlying element compare equal, so Nodes can be used as map keys when
// partitioning the tree.
type Node interface {
	// Tag returns the element name (e.g. "path", "g", "text").
	Tag() string

	// Attr returns the value of the named attribute and whether it exists.
	Attr(name string) (string, bool)

	// Text returns the concatenated text content of the subtree,
	// with surrounding whitespace trimmed.
	Text() string

	// Parent returns the parent element, or nil at the tree root.
	Parent() Node

	// NextElement returns the next sibling element, skipping text and
	// comment nodes, or nil if there is none.
	NextElement() Node

	// PrevElement returns the previous sibling element, skipping text and
	// comment nodes, or nil if there is none.
	PrevElement() Node

	// Find returns all descendant elements with the given tag,
	// in document order.
	Find(tag string) []Node

	// Detach removes the element (and its subtree) from the document.
	Detach()
}

// Document is the queryable root of a converted vector-graphics tree.
type Document interface {
	// Find returns all elements with the given tag, in document order.
	Find(tag string) []Node
}

// Parse reads a converted SVG document and returns its queryable tree.
func Parse(r io.Reader) (Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err, "parse converted document")
	}
	if gq.Find("svg").Length() == 0 {
		return nil, errors.New(errors.ErrCodeConversion, "converted document has no svg root")
	}
	return document{gq: gq}, nil
}

type document struct {
	gq *goquery.Document
}

func (d document) Find(tag string) []Node {
	return wrapNodes(d.gq.Find(tag).Nodes)
}

// element wraps a single parsed node. The struct is comparable by the
// underlying node pointer, which gives Node values stable identity.
type element struct {
	n *html.Node
}

func (e element) Tag() string { return e.n.Data }

func (e element) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e element) Text() string {
	return strings.TrimSpace(goquery.NewDocumentFromNode(e.n).Text())
}

func (e element) Parent() Node {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return element{n: p}
}

func (e element) NextElement() Node {
	for s := e.n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return element{n: s}
		}
	}
	return nil
}

func (e element) PrevElement() Node {
	for s := e.n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return element{n: s}
		}
	}
	return nil
}

func (e element) Find(tag string) []Node {
	return wrapNodes(goquery.NewDocumentFromNode(e.n).Find(tag).Nodes)
}

func (e element) Detach() {
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
}

func wrapNodes(ns []*html.Node) []Node {
	out := make([]Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, element{n: n})
	}
	return out
}
