package chart

import "strings"

// Decoration is a set of chord performance marks.
type Decoration uint8

const (
	// Push anticipates the chord before its metric beat ("^").
	Push Decoration = 1 << iota
	// Accent stresses the chord ("!").
	Accent
	// Ghost marks the chord as optional or weak ("?").
	Ghost
)

// Has reports whether all marks in m are set.
func (d Decoration) Has(m Decoration) bool { return d&m == m && m != 0 }

func (d Decoration) String() string {
	var parts []string
	if d.Has(Push) {
		parts = append(parts, "push")
	}
	if d.Has(Accent) {
		parts = append(parts, "accent")
	}
	if d.Has(Ghost) {
		parts = append(parts, "ghost")
	}
	return strings.Join(parts, "+")
}

// Chord is a parsed chord symbol.
type Chord struct {
	// Root is the pitch letter plus optional accidental, e.g. "F#".
	Root string `json:"root"`
	// Quality is the quality tail exactly as written, e.g. "m7b5".
	Quality string `json:"quality,omitempty"`
	// QualityName is the canonical name from the quality table, empty when unknown.
	QualityName string `json:"quality_name,omitempty"`
	// Bass is the slash-bass pitch, empty when absent.
	Bass        string     `json:"bass,omitempty"`
	Decorations Decoration `json:"decorations,omitempty"`
}

// Symbol renders the chord as written, without decorations.
func (c Chord) Symbol() string {
	s := c.Root + c.Quality
	if c.Bass != "" {
		s += "/" + c.Bass
	}
	return s
}

// KnownQuality reports whether the quality was found in the quality table.
func (c Chord) KnownQuality() bool { return c.QualityName != "" }

// BeatKind distinguishes the contents of a beat slot.
type BeatKind int

const (
	BeatChord BeatKind = iota
	BeatRest
	// BeatRepeatChord is "*". It never survives resolution.
	BeatRepeatChord
	BeatNoChord
	BeatFermata
)

func (k BeatKind) String() string {
	switch k {
	case BeatChord:
		return "chord"
	case BeatRest:
		return "rest"
	case BeatRepeatChord:
		return "repeat-chord"
	case BeatNoChord:
		return "no-chord"
	case BeatFermata:
		return "fermata"
	default:
		return "unknown"
	}
}

// Beat is one rhythmic slot of a measure.
type Beat struct {
	Kind BeatKind `json:"kind"`
	// Chord is set when Kind is BeatChord.
	Chord *Chord `json:"chord,omitempty"`
	// Marks holds decorations written on a "*" beat. They replace the
	// substituted chord's decorations during resolution.
	Marks  Decoration `json:"-"`
	Column int        `json:"-"`
}

// Sounding reports whether the beat carries harmony that "*" may repeat.
func (b Beat) Sounding() bool { return b.Kind == BeatChord && b.Chord != nil }

func (b Beat) String() string {
	switch b.Kind {
	case BeatChord:
		if b.Chord != nil {
			return b.Chord.Symbol()
		}
	case BeatRest:
		return ","
	case BeatRepeatChord:
		return "*"
	case BeatNoChord:
		return "N.C."
	case BeatFermata:
		return "fermata"
	}
	return "?"
}

// Measure is one bar. After resolution RepeatsPrevious is always false and
// no beat has kind BeatRepeatChord.
type Measure struct {
	Beats           []Beat `json:"beats"`
	RepeatsPrevious bool   `json:"-"`
	// Annotation is free text attached from a quoted token.
	Annotation string `json:"annotation,omitempty"`
	// Ending is the numbered ending the measure was emitted from, 0 if none.
	Ending int `json:"ending,omitempty"`
	Line   int `json:"-"`
	Column int `json:"-"`
}

// Node is a structural chord-line node: *Measure or *RepeatGroup.
type Node interface {
	node()
}

func (*Measure) node()     {}
func (*RepeatGroup) node() {}

// RepeatGroup is a parenthesised sequence repeated Count times.
type RepeatGroup struct {
	Body    []Node         `json:"body"`
	Count   int            `json:"count"`
	Endings map[int][]Node `json:"endings,omitempty"`
	Line    int            `json:"-"`
	Column  int            `json:"-"`
}

// ChordLine is the structural parse of one chord line, before resolution.
type ChordLine struct {
	Line  int
	Nodes []Node
}
