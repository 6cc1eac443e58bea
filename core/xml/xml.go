// Package xml parses and inspects rendered SVG documents using XPath.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities by default, and we explicitly
//     disable entity expansion in CheckWellFormed.
//   - The xmlquery library is used for parsing, which uses Go's encoding/xml
//     internally and inherits its security properties.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element.
type Node struct {
	node *xmlquery.Node
}

// WellFormedError reports where a document stopped being well formed.
type WellFormedError struct {
	Offset  int64
	Message string
}

func (e *WellFormedError) Error() string {
	return fmt.Sprintf("malformed XML at byte %d: %s", e.Offset, e.Message)
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// CheckWellFormed reads every token of data and returns the first
// syntax error, if any.
func CheckWellFormed(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	// XXE Protection (CWE-611): no entity expansion at all.
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &WellFormedError{Offset: decoder.InputOffset(), Message: err.Error()}
		}
	}
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes := xmlquery.QuerySelectorAll(d.root, compiled)
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// Count evaluates an XPath query and returns the number of matches.
func (d *Document) Count(expr string) (int, error) {
	nodes, err := d.XPath(expr)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Name returns the element's local name.
func (n *Node) Name() string {
	if n.node == nil {
		return ""
	}
	return n.node.Data
}

// Text returns the text content of the node and its descendants.
func (n *Node) Text() string {
	if n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Attr returns the value of a specific attribute.
func (n *Node) Attr(name string) string {
	if n.node == nil {
		return ""
	}
	return n.node.SelectAttr(name)
}

// FloatAttr parses a numeric attribute.
func (n *Node) FloatAttr(name string) (float64, error) {
	v := n.Attr(name)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %s=%q: %w", name, v, err)
	}
	return f, nil
}

// Element queries used against rendered SVG. local-name() keeps them
// independent of the default namespace.
const (
	svgRootQuery = "/*[local-name()='svg']"
	textQuery    = "//*[local-name()='text']"
	lineQuery    = "//*[local-name()='line']"
	rectQuery    = "//*[local-name()='rect']"
)

// SVGSummary describes one rendered page.
type SVGSummary struct {
	Width, Height float64
	Texts         []string
	Lines         int
	Rects         int
	Shrunk        int
}

// InspectSVG checks that data is a well-formed SVG document and
// summarises its drawing elements.
func InspectSVG(data []byte) (*SVGSummary, error) {
	if err := CheckWellFormed(data); err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	roots, err := doc.XPath(svgRootQuery)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("document root is not <svg>")
	}
	root := roots[0]

	s := &SVGSummary{}
	if s.Width, err = root.FloatAttr("width"); err != nil {
		return nil, err
	}
	if s.Height, err = root.FloatAttr("height"); err != nil {
		return nil, err
	}

	texts, err := doc.XPath(textQuery)
	if err != nil {
		return nil, err
	}
	for _, t := range texts {
		s.Texts = append(s.Texts, t.Text())
		if t.Attr("textLength") != "" {
			s.Shrunk++
		}
	}
	if s.Lines, err = doc.Count(lineQuery); err != nil {
		return nil, err
	}
	if s.Rects, err = doc.Count(rectQuery); err != nil {
		return nil, err
	}
	return s, nil
}
