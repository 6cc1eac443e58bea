// Package canvas walks laid-out geometry and issues draw operations against
// an abstract drawing surface. It is the only place a concrete backend is
// chosen; everything upstream is backend-agnostic.
package canvas

import "github.com/FocuswithJustin/cleanchart/core/layout"

// Canvas is a drawing surface. Calls arrive in page order and, within a
// page, in the geometry's drawing order. Backends report failures through
// their own finalising method rather than per call.
type Canvas interface {
	// BeginPage starts a new page of the given size.
	BeginPage(index int, width, height float64)
	// DrawTextRun draws a single-style run with its left edge at X and
	// baseline at Y.
	DrawTextRun(r *layout.TextRun)
	// DrawBarLine draws a straight segment.
	DrawBarLine(l *layout.Line)
	// DrawRect fills a rectangle.
	DrawRect(r *layout.Rect)
}

// Emit replays geo onto c.
func Emit(geo *layout.Geometry, c Canvas) {
	for _, p := range geo.Pages {
		c.BeginPage(p.Index, p.Width, p.Height)
		for _, it := range p.Items {
			switch v := it.(type) {
			case *layout.TextRun:
				c.DrawTextRun(v)
			case *layout.Line:
				c.DrawBarLine(v)
			case *layout.Rect:
				c.DrawRect(v)
			}
		}
	}
}

// Tee returns a canvas that forwards every call to each of cs in order.
func Tee(cs ...Canvas) Canvas {
	return tee(cs)
}

type tee []Canvas

func (t tee) BeginPage(index int, width, height float64) {
	for _, c := range t {
		c.BeginPage(index, width, height)
	}
}

func (t tee) DrawTextRun(r *layout.TextRun) {
	for _, c := range t {
		c.DrawTextRun(r)
	}
}

func (t tee) DrawBarLine(l *layout.Line) {
	for _, c := range t {
		c.DrawBarLine(l)
	}
}

func (t tee) DrawRect(r *layout.Rect) {
	for _, c := range t {
		c.DrawRect(r)
	}
}
