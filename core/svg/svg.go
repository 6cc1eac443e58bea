// Package svg renders chart geometry as SVG, one document per page.
package svg

import (
	"bytes"
	"fmt"

	"github.com/FocuswithJustin/cleanchart/core/canvas"
	"github.com/FocuswithJustin/cleanchart/core/encoding"
	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// Namespace is the SVG namespace URI written on every document.
const Namespace = "http://www.w3.org/2000/svg"

// Canvas accumulates SVG documents. It implements canvas.Canvas.
type Canvas struct {
	fontFamily string
	pages      [][]byte
	buf        *bytes.Buffer
}

var _ canvas.Canvas = (*Canvas)(nil)

// New returns a canvas whose documents use fontFamily for all text.
func New(fontFamily string) *Canvas {
	if fontFamily == "" {
		fontFamily = "sans-serif"
	}
	return &Canvas{fontFamily: fontFamily}
}

// Render lays geo out onto a fresh canvas and returns one document per page.
func Render(geo *layout.Geometry) [][]byte {
	c := New(geo.FontFamily)
	canvas.Emit(geo, c)
	return c.Documents()
}

func (c *Canvas) BeginPage(index int, width, height float64) {
	c.closePage()
	c.buf = &bytes.Buffer{}
	w, h := encoding.FormatNumber(width), encoding.FormatNumber(height)
	c.buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(c.buf, `<svg xmlns="%s" xml:space="preserve" width="%s" height="%s" viewBox="0 0 %s %s" font-family="%s" data-page="%d">`+"\n",
		Namespace, w, h, w, h, encoding.EscapeXMLAttr(c.fontFamily), index)
}

func (c *Canvas) DrawRect(r *layout.Rect) {
	if c.buf == nil {
		return
	}
	fill := r.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(c.buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(r.X), num(r.Y), num(r.Width), num(r.Height), encoding.EscapeXMLAttr(fill))
}

func (c *Canvas) DrawBarLine(l *layout.Line) {
	if c.buf == nil {
		return
	}
	class := "bar"
	if l.Kind == layout.EndingLine {
		class = "ending"
	}
	width := l.StrokeWidth
	if width <= 0 {
		width = 1
	}
	fmt.Fprintf(c.buf, `<line class="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#000000" stroke-width="%s"/>`+"\n",
		class, num(l.X1), num(l.Y1), num(l.X2), num(l.Y2), num(width))
}

// DrawTextRun writes a start-anchored <text>. A shrunk run carries a
// textLength so viewers compress it to the laid-out width.
func (c *Canvas) DrawTextRun(r *layout.TextRun) {
	if c.buf == nil {
		return
	}
	fmt.Fprintf(c.buf, `<text class="%s" x="%s" y="%s" font-size="%s"`, r.Role, num(r.X), num(r.Y), num(r.Size))
	if r.Bold {
		c.buf.WriteString(` font-weight="bold"`)
	}
	if r.Italic {
		c.buf.WriteString(` font-style="italic"`)
	}
	if r.Shrunk() {
		fmt.Fprintf(c.buf, ` textLength="%s" lengthAdjust="spacingAndGlyphs"`, num(r.Width))
	}
	c.buf.WriteString(">")
	c.buf.WriteString(encoding.EscapeXMLText(r.Text))
	c.buf.WriteString("</text>\n")
}

// Documents closes the current page and returns every finished document.
func (c *Canvas) Documents() [][]byte {
	c.closePage()
	return c.pages
}

func (c *Canvas) closePage() {
	if c.buf == nil {
		return
	}
	c.buf.WriteString("</svg>\n")
	c.pages = append(c.pages, c.buf.Bytes())
	c.buf = nil
}

func num(f float64) string { return encoding.FormatNumber(f) }
