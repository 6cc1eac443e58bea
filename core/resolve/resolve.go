// Package resolve flattens structural chord lines into repeat-free rows.
//
// Resolution walks the tree depth first. "%" copies the previous resolved
// measure, "*" copies the last sounding chord, and groups are expanded with
// their numbered endings. The only state carried between lines is the
// explicit State value returned by Resolve.
package resolve

import (
	"sort"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
)

// DefaultMaxMeasures is the default expansion ceiling for a whole chart.
const DefaultMaxMeasures = 4096

// Options configures resolution.
type Options struct {
	// MaxMeasures caps the number of measures a chart may expand to.
	MaxMeasures int `json:"max_measures"`
}

// DefaultOptions returns the default resolution options.
func DefaultOptions() Options {
	return Options{MaxMeasures: DefaultMaxMeasures}
}

// State is the accumulator threaded through consecutive Resolve calls.
type State struct {
	// Previous is the last emitted measure, the referent of "%".
	Previous *chart.Measure
	// LastChord is the last sounding chord, the referent of "*".
	LastChord *chart.Chord
	// Emitted counts measures emitted so far.
	Emitted int
}

type resolver struct {
	opts  Options
	acc   State
	diags []cerrors.Diagnostic
	out   []chart.Measure
}

// scope describes where in the repeat structure nodes are being emitted.
type scope struct {
	ending int
	// first is false on any repetition after the first of an enclosing group.
	first bool
}

// Resolve flattens one chord line. The returned State must be passed to the
// next call for the same chart.
func Resolve(line *chart.ChordLine, acc State, opts Options) (*chart.Row, State, []cerrors.Diagnostic, error) {
	if opts.MaxMeasures <= 0 {
		opts.MaxMeasures = DefaultMaxMeasures
	}
	r := &resolver{opts: opts, acc: acc}
	if err := r.flatten(line.Nodes, scope{first: true}); err != nil {
		return nil, acc, nil, err
	}
	return &chart.Row{Line: line.Line, Measures: r.out}, r.acc, r.diags, nil
}

func (r *resolver) flatten(nodes []chart.Node, sc scope) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *chart.Measure:
			if err := r.measure(n, sc); err != nil {
				return err
			}
		case *chart.RepeatGroup:
			if err := r.group(n, sc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *resolver) group(g *chart.RepeatGroup, sc scope) error {
	if g.Count > r.opts.MaxMeasures {
		return cerrors.NewResolution(g.Line, g.Column, "repeat count %d exceeds the limit of %d measures", g.Count, r.opts.MaxMeasures)
	}
	for k := 1; k <= g.Count; k++ {
		inner := scope{ending: sc.ending, first: sc.first && k == 1}
		if err := r.flatten(g.Body, inner); err != nil {
			return err
		}
		if ending, ok := g.Endings[k]; ok {
			if err := r.flatten(ending, scope{ending: k, first: inner.first}); err != nil {
				return err
			}
		}
	}

	var unmatched []int
	for k := range g.Endings {
		if k > g.Count {
			unmatched = append(unmatched, k)
		}
	}
	sort.Ints(unmatched)
	for _, k := range unmatched {
		r.diags = append(r.diags, cerrors.Warnf(g.Line, g.Column,
			"ending %d has no matching repetition (group repeats %d times)", k, g.Count))
		if err := r.flatten(g.Endings[k], scope{ending: k, first: sc.first}); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) measure(m *chart.Measure, sc scope) error {
	out := chart.Measure{Ending: sc.ending, Line: m.Line, Column: m.Column}
	if sc.first {
		out.Annotation = m.Annotation
	}

	if m.RepeatsPrevious {
		if r.acc.Previous == nil {
			return cerrors.NewResolution(m.Line, m.Column, "no previous bar to repeat")
		}
		out.Beats = copyBeats(r.acc.Previous.Beats)
		for _, b := range out.Beats {
			if b.Sounding() {
				r.acc.LastChord = b.Chord
			}
		}
		return r.emit(out)
	}

	out.Beats = make([]chart.Beat, 0, len(m.Beats))
	for _, b := range m.Beats {
		switch b.Kind {
		case chart.BeatRepeatChord:
			if r.acc.LastChord == nil {
				return cerrors.NewResolution(m.Line, b.Column, "'*' has no previous chord to repeat")
			}
			c := *r.acc.LastChord
			c.Decorations = b.Marks
			out.Beats = append(out.Beats, chart.Beat{Kind: chart.BeatChord, Chord: &c, Column: b.Column})
		case chart.BeatChord:
			c := *b.Chord
			out.Beats = append(out.Beats, chart.Beat{Kind: chart.BeatChord, Chord: &c, Column: b.Column})
			r.acc.LastChord = &c
		default:
			out.Beats = append(out.Beats, chart.Beat{Kind: b.Kind, Column: b.Column})
		}
	}
	return r.emit(out)
}

func (r *resolver) emit(m chart.Measure) error {
	if r.acc.Emitted >= r.opts.MaxMeasures {
		return cerrors.NewResolution(m.Line, m.Column, "chart expands to more than %d measures", r.opts.MaxMeasures)
	}
	r.acc.Emitted++
	r.out = append(r.out, m)
	r.acc.Previous = &m
	return nil
}

// copyBeats deep-copies beats so resolved measures never share chords.
func copyBeats(beats []chart.Beat) []chart.Beat {
	out := make([]chart.Beat, len(beats))
	for i, b := range beats {
		out[i] = b
		if b.Chord != nil {
			c := *b.Chord
			out[i].Chord = &c
		}
	}
	return out
}
