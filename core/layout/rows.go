package layout

import (
	"strconv"

	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// Labels for beats that carry no chord symbol.
const (
	RestLabel    = "/"
	NoChordLabel = "N.C."
	FermataLabel = "𝄐"
)

// row places the measures of one chord line, wrapping every
// MeasuresPerRow measures.
func (e *engine) row(r *chart.Row) {
	per := e.cfg.MeasuresPerRow
	for start := 0; start < len(r.Measures); start += per {
		end := min(start+per, len(r.Measures))
		e.measureRow(r.Measures[start:end])
	}
}

// bandHeight is the space above a row for annotations and ending labels.
func (e *engine) bandHeight(ms []chart.Measure) float64 {
	for _, m := range ms {
		if m.Annotation != "" || m.Ending != 0 {
			return e.cfg.AnnotationFontSize + 6
		}
	}
	return 0
}

func (e *engine) rowHeight(ms []chart.Measure) float64 {
	return e.bandHeight(ms) + e.cfg.RowHeight
}

// measureRow draws one row of fixed-width columns. Bar lines sit on every
// column boundary regardless of the number of beats inside.
func (e *engine) measureRow(ms []chart.Measure) {
	band := e.bandHeight(ms)
	e.reserve(band + e.cfg.RowHeight)

	bandTop := e.y
	top := e.y + band
	bottom := top + e.cfg.RowHeight
	colW := e.cfg.ContentWidth() / float64(e.cfg.MeasuresPerRow)

	for i := 0; i <= len(ms); i++ {
		x := e.cfg.MarginX + float64(i)*colW
		e.add(&Line{X1: x, Y1: top, X2: x, Y2: bottom, StrokeWidth: 1, Kind: BarLine})
	}

	for j, m := range ms {
		x0 := e.cfg.MarginX + float64(j)*colW
		labelX := x0 + 3

		if m.Ending != 0 {
			y := bandTop + 2
			e.add(&Line{X1: x0, Y1: y, X2: x0 + colW, Y2: y, StrokeWidth: 0.75, Kind: EndingLine})
			if j == 0 || ms[j-1].Ending != m.Ending {
				e.add(&Line{X1: x0, Y1: y, X2: x0, Y2: top, StrokeWidth: 0.75, Kind: EndingLine})
				run := e.smallRun(strconv.Itoa(m.Ending)+".", labelX, colW-6, false, RoleEnding)
				e.add(run)
				labelX += run.Width + 4
			}
		}
		if m.Annotation != "" {
			e.add(e.smallRun(m.Annotation, labelX, x0+colW-3-labelX, true, RoleAnnotation))
		}

		e.beats(m, x0, top, colW)
	}
	e.y = bottom
}

// smallRun builds an annotation-sized run in the band above a row.
func (e *engine) smallRun(text string, x, maxW float64, italic bool, role Role) *TextRun {
	size := e.cfg.AnnotationFontSize
	w := e.m.Measure(text, Style{Size: size, Italic: italic}).Width
	scale := fit(w, maxW)
	return &TextRun{
		X:      x,
		Y:      e.y + 2 + size,
		Text:   text,
		Size:   size,
		Italic: italic,
		Align:  chart.Left,
		Width:  w * scale,
		Scale:  scale,
		Role:   role,
	}
}

// beats centres each beat label in an equal subdivision of the column.
func (e *engine) beats(m chart.Measure, x0, top, colW float64) {
	if len(m.Beats) == 0 {
		return
	}
	sub := colW / float64(len(m.Beats))
	size := e.cfg.ChordFontSize
	baseline := top + e.cfg.RowHeight/2 + size*0.35
	for i, b := range m.Beats {
		text, bold, italic := BeatLabel(b)
		w := e.m.Measure(text, Style{Size: size, Bold: bold, Italic: italic}).Width
		scale := fit(w, sub-2*e.cfg.BeatPadding)
		drawn := w * scale
		cx := x0 + sub*(float64(i)+0.5)
		e.add(&TextRun{
			X:      cx - drawn/2,
			Y:      baseline,
			Text:   text,
			Size:   size,
			Bold:   bold,
			Italic: italic,
			Align:  chart.Center,
			Width:  drawn,
			Scale:  scale,
			Role:   RoleChord,
		})
	}
}

// fit returns the scale that brings w within maxW, never above 1.
func fit(w, maxW float64) float64 {
	if w <= 0 || w <= maxW {
		return 1
	}
	if maxW <= 0 {
		return 0
	}
	return maxW / w
}

// BeatLabel returns the text and emphasis used to draw a resolved beat.
// Push is prefixed "^", accent ">", and a ghost chord is parenthesised in
// italics.
func BeatLabel(b chart.Beat) (text string, bold, italic bool) {
	switch b.Kind {
	case chart.BeatChord:
		if b.Chord == nil {
			return "", false, false
		}
		text = b.Chord.Symbol()
		d := b.Chord.Decorations
		if d.Has(chart.Accent) {
			text = ">" + text
		}
		if d.Has(chart.Push) {
			text = "^" + text
		}
		if d.Has(chart.Ghost) {
			return "(" + text + ")", true, true
		}
		return text, true, false
	case chart.BeatRest:
		return RestLabel, false, false
	case chart.BeatNoChord:
		return NoChordLabel, true, false
	case chart.BeatFermata:
		return FermataLabel, false, false
	default:
		return b.String(), false, false
	}
}
