package layout

import "github.com/FocuswithJustin/cleanchart/core/chart"

// Role tells a backend what a text run represents.
type Role int

const (
	RoleText Role = iota
	RoleTitle
	RoleSection
	RoleChord
	RoleAnnotation
	RoleEnding
)

func (r Role) String() string {
	switch r {
	case RoleTitle:
		return "title"
	case RoleSection:
		return "section"
	case RoleChord:
		return "chord"
	case RoleAnnotation:
		return "annotation"
	case RoleEnding:
		return "ending"
	default:
		return "text"
	}
}

// LineKind tells a backend what a line segment represents.
type LineKind int

const (
	BarLine LineKind = iota
	// EndingLine is part of a numbered ending bracket.
	EndingLine
)

// Item is one positioned primitive: *TextRun, *Line or *Rect.
type Item interface {
	item()
}

// TextRun is a single-style run of text. X is the left edge of the run and
// Y its baseline. Width is the drawn width after any shrink; Scale is the
// ratio of Width to the natural measured width.
type TextRun struct {
	X, Y   float64
	Text   string
	Weight chart.Weight
	Size   float64
	Bold   bool
	Italic bool
	Align  chart.Alignment
	Width  float64
	Scale  float64
	Role   Role
}

// Shrunk reports whether the run was compressed to fit.
func (t *TextRun) Shrunk() bool { return t.Scale < 1 }

// Line is a straight segment such as a bar line.
type Line struct {
	X1, Y1, X2, Y2 float64
	StrokeWidth    float64
	Kind           LineKind
}

// Rect is a filled rectangle.
type Rect struct {
	X, Y, Width, Height float64
	Fill                string
}

func (*TextRun) item() {}
func (*Line) item()    {}
func (*Rect) item()    {}

// Page is one laid-out page. Items are in drawing order; the first item is
// always the page background.
type Page struct {
	Index  int
	Width  float64
	Height float64
	Items  []Item
}

// Geometry is the complete layout of a chart.
type Geometry struct {
	Title      string
	FontFamily string
	Pages      []*Page
}

// TextRuns returns every text run on the page in drawing order.
func (p *Page) TextRuns() []*TextRun {
	var out []*TextRun
	for _, it := range p.Items {
		if t, ok := it.(*TextRun); ok {
			out = append(out, t)
		}
	}
	return out
}

// Lines returns every line on the page in drawing order.
func (p *Page) Lines() []*Line {
	var out []*Line
	for _, it := range p.Items {
		if l, ok := it.(*Line); ok {
			out = append(out, l)
		}
	}
	return out
}
