package canvas

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/cleanchart/core/cas"
	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// OpKind identifies a recorded draw operation.
type OpKind int

const (
	OpBeginPage OpKind = iota
	OpText
	OpLine
	OpRect
)

func (k OpKind) String() string {
	switch k {
	case OpBeginPage:
		return "beginPage"
	case OpText:
		return "drawTextRun"
	case OpLine:
		return "drawBarLine"
	case OpRect:
		return "drawRect"
	default:
		return "op(" + strconv.Itoa(int(k)) + ")"
	}
}

// MarshalText encodes the kind by name so digests stay readable in dumps.
func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Op is one recorded call. Exactly one of Page, Text, Line or Rect is set,
// matching Kind. Payloads are copies, never the caller's geometry.
type Op struct {
	Kind OpKind          `json:"op"`
	Page *PageOp         `json:"page,omitempty"`
	Text *layout.TextRun `json:"text,omitempty"`
	Line *layout.Line    `json:"line,omitempty"`
	Rect *layout.Rect    `json:"rect,omitempty"`
}

// PageOp is the payload of a BeginPage call.
type PageOp struct {
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (o Op) String() string {
	switch o.Kind {
	case OpBeginPage:
		return fmt.Sprintf("beginPage(%d, %.2f x %.2f)", o.Page.Index, o.Page.Width, o.Page.Height)
	case OpText:
		t := o.Text
		return fmt.Sprintf("drawTextRun(%.2f, %.2f, %q, w%d, bold=%t, italic=%t, %s)",
			t.X, t.Y, t.Text, t.Weight, t.Bold, t.Italic, t.Align)
	case OpLine:
		l := o.Line
		return fmt.Sprintf("drawBarLine(%.2f, %.2f, %.2f, %.2f)", l.X1, l.Y1, l.X2, l.Y2)
	case OpRect:
		r := o.Rect
		return fmt.Sprintf("drawRect(%.2f, %.2f, %.2f, %.2f, %s)", r.X, r.Y, r.Width, r.Height, r.Fill)
	}
	return o.Kind.String()
}

// Recorder is a Canvas that keeps the operation sequence in memory.
type Recorder struct {
	Ops []Op
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) BeginPage(index int, width, height float64) {
	r.Ops = append(r.Ops, Op{Kind: OpBeginPage, Page: &PageOp{Index: index, Width: width, Height: height}})
}

func (r *Recorder) DrawTextRun(t *layout.TextRun) {
	c := *t
	r.Ops = append(r.Ops, Op{Kind: OpText, Text: &c})
}

func (r *Recorder) DrawBarLine(l *layout.Line) {
	c := *l
	r.Ops = append(r.Ops, Op{Kind: OpLine, Line: &c})
}

func (r *Recorder) DrawRect(rc *layout.Rect) {
	c := *rc
	r.Ops = append(r.Ops, Op{Kind: OpRect, Rect: &c})
}

// Count returns the number of recorded operations of kind k.
func (r *Recorder) Count(k OpKind) int {
	n := 0
	for _, o := range r.Ops {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// PageOps splits the sequence at each BeginPage. Operations before the
// first BeginPage are dropped.
func (r *Recorder) PageOps() [][]Op {
	var pages [][]Op
	for _, o := range r.Ops {
		if o.Kind == OpBeginPage {
			pages = append(pages, nil)
			continue
		}
		if len(pages) == 0 {
			continue
		}
		pages[len(pages)-1] = append(pages[len(pages)-1], o)
	}
	return pages
}

// Digest returns the BLAKE3 digest of the JSON encoding of the sequence.
// Two recorders hold the same operations exactly when their digests match.
func (r *Recorder) Digest() string {
	h := cas.NewBlake3()
	enc := json.NewEncoder(h)
	for _, o := range r.Ops {
		// Op holds only plain values, so encoding cannot fail.
		_ = enc.Encode(o)
	}
	return cas.HexSum(h)
}
