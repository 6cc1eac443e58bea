// Package chart defines the data model produced by parsing and resolving a chord chart.
//
// All values are built during one compile pass and are treated as immutable
// afterwards. The layout engine only reads them.
package chart

import (
	"fmt"
	"strings"
)

// Weight is the size class of a text line.
type Weight int

const (
	// H3 is the smallest weight, written with a single "=".
	H3 Weight = iota + 1
	// H2 is written "==".
	H2
	// H1 is the largest weight, written "===".
	H1
)

func (w Weight) String() string {
	switch w {
	case H1:
		return "H1"
	case H2:
		return "H2"
	case H3:
		return "H3"
	default:
		return fmt.Sprintf("Weight(%d)", int(w))
	}
}

// WeightFromMarkers maps a count of leading "=" characters to a weight.
func WeightFromMarkers(n int) (Weight, bool) {
	switch n {
	case 1:
		return H3, true
	case 2:
		return H2, true
	case 3:
		return H1, true
	default:
		return 0, false
	}
}

// Alignment anchors a zone within a text line.
type Alignment int

const (
	Left Alignment = iota
	Center
	Right
)

func (a Alignment) String() string {
	switch a {
	case Left:
		return "left"
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
}

// StyledRun is a span of text with uniform emphasis.
type StyledRun struct {
	Text   string `json:"text"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Zone is one horizontally anchored region of a text line.
type Zone struct {
	Alignment Alignment   `json:"alignment"`
	Runs      []StyledRun `json:"runs"`
}

// Text returns the concatenated text of all runs.
func (z Zone) Text() string {
	var sb strings.Builder
	for _, r := range z.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// TextLine is a parsed "=" line. Weight is uniform for the whole line.
type TextLine struct {
	Line   int    `json:"line"`
	Weight Weight `json:"weight"`
	Zones  []Zone `json:"zones"`
}

// Row is the flat, repeat-free output of one chord line.
type Row struct {
	Line     int       `json:"line"`
	Measures []Measure `json:"measures"`
}

// Element is either a *TextLine or a *Row.
type Element interface {
	element()
	// SourceLine returns the 1-based line the element was parsed from.
	SourceLine() int
}

func (*TextLine) element() {}
func (*Row) element()      {}

func (t *TextLine) SourceLine() int { return t.Line }
func (r *Row) SourceLine() int      { return r.Line }

// Section is a named run of elements. The preface section has an empty Name.
type Section struct {
	Name     string    `json:"name,omitempty"`
	Header   *TextLine `json:"header,omitempty"`
	Elements []Element `json:"-"`
}

// TimeSignature is a meter such as 4/4 or 6/8.
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// CommonTime is the default time signature.
var CommonTime = TimeSignature{Numerator: 4, Denominator: 4}

func (t TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}

// Field is one metadata line beyond the recognised names.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

// Chart is a fully resolved document.
type Chart struct {
	Title    string        `json:"title"`
	Composer string        `json:"composer,omitempty"`
	Key      string        `json:"key,omitempty"`
	Time     TimeSignature `json:"time"`
	Extra    []Field       `json:"extra,omitempty"`
	Sections []Section     `json:"sections"`
}

// MeasureCount returns the number of resolved measures across all sections.
func (c *Chart) MeasureCount() int {
	n := 0
	for _, s := range c.Sections {
		for _, e := range s.Elements {
			if r, ok := e.(*Row); ok {
				n += len(r.Measures)
			}
		}
	}
	return n
}
