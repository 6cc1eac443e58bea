// Package pdf renders chart geometry as a single paginated PDF document.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/FocuswithJustin/cleanchart/core/canvas"
	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// Epoch is the creation date stamped into every document so identical
// geometry encodes to identical bytes.
var Epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Canvas draws onto an fpdf document. It implements canvas.Canvas.
type Canvas struct {
	doc    *fpdf.Fpdf
	tr     func(string) string
	family string
	pages  int
}

var _ canvas.Canvas = (*Canvas)(nil)

// New returns an empty document titled title. fontFamily is a CSS-style
// generic family mapped onto the PDF core fonts.
func New(title, fontFamily string) *Canvas {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: 595, Ht: 842},
	})
	doc.SetCreationDate(Epoch)
	doc.SetModificationDate(Epoch)
	doc.SetCatalogSort(true)
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.SetTitle(title, true)
	doc.SetCreator("cleanchart", true)
	return &Canvas{
		doc:    doc,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
		family: coreFont(fontFamily),
	}
}

// Render emits geo onto a fresh document and returns the encoded PDF.
func Render(geo *layout.Geometry) ([]byte, error) {
	c := New(geo.Title, geo.FontFamily)
	canvas.Emit(geo, c)
	return c.Bytes()
}

// coreFont maps a generic family onto one of the standard 14 fonts.
func coreFont(family string) string {
	switch strings.ToLower(family) {
	case "serif", "times", "times new roman":
		return "Times"
	case "monospace", "courier":
		return "Courier"
	default:
		return "Helvetica"
	}
}

func (c *Canvas) BeginPage(index int, width, height float64) {
	c.doc.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	c.pages++
}

func (c *Canvas) DrawRect(r *layout.Rect) {
	if c.pages == 0 || r.Fill == "" || r.Fill == "none" {
		return
	}
	red, green, blue := parseHex(r.Fill)
	c.doc.SetFillColor(red, green, blue)
	c.doc.Rect(r.X, r.Y, r.Width, r.Height, "F")
}

func (c *Canvas) DrawBarLine(l *layout.Line) {
	if c.pages == 0 {
		return
	}
	w := l.StrokeWidth
	if w <= 0 {
		w = 1
	}
	c.doc.SetDrawColor(0, 0, 0)
	c.doc.SetLineWidth(w)
	c.doc.Line(l.X1, l.Y1, l.X2, l.Y2)
}

// DrawTextRun draws a run at its baseline. A shrunk run is drawn at a
// proportionally smaller size so it occupies its laid-out width.
func (c *Canvas) DrawTextRun(r *layout.TextRun) {
	if c.pages == 0 {
		return
	}
	size := r.Size
	if r.Shrunk() {
		size *= r.Scale
	}
	if size <= 0 {
		return
	}
	if r.Text == layout.FermataLabel {
		c.fermata(r, size)
		return
	}
	style := ""
	if r.Bold {
		style += "B"
	}
	if r.Italic {
		style += "I"
	}
	c.doc.SetFont(c.family, style, size)
	c.doc.SetTextColor(0, 0, 0)
	c.doc.Text(r.X, r.Y, c.tr(r.Text))
}

// fermata draws the glyph as an arc over a dot; the core fonts have no
// musical symbols.
func (c *Canvas) fermata(r *layout.TextRun, size float64) {
	rad := size * 0.3
	cx := r.X + r.Width/2
	cy := r.Y - size*0.1
	c.doc.SetLineWidth(size / 16)
	c.doc.SetDrawColor(0, 0, 0)
	c.doc.Arc(cx, cy, rad, rad, 0, 0, 180, "D")
	c.doc.SetFillColor(0, 0, 0)
	c.doc.Circle(cx, cy, size/20, "F")
}

// Bytes finalises the document.
func (c *Canvas) Bytes() ([]byte, error) {
	if c.pages == 0 {
		return nil, fmt.Errorf("pdf: document has no pages")
	}
	var buf bytes.Buffer
	if err := c.doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Pages returns the number of pages begun so far.
func (c *Canvas) Pages() int { return c.pages }

// parseHex reads #rgb or #rrggbb. Anything else is white.
func parseHex(s string) (r, g, b int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
