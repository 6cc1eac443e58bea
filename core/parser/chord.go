package parser

import (
	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/lexer"
)

const (
	// MaxGroupDepth bounds repeat group nesting.
	MaxGroupDepth = 32
	// DefaultRepeatCount applies to a group with no "Nx" marker.
	DefaultRepeatCount = 2
)

// chordParser holds the state of one ParseChord call.
type chordParser struct {
	tokens    []lexer.Token
	pos       int
	line      int
	qualities chart.QualitySet
	diags     []cerrors.Diagnostic

	decorations chart.Decoration
	decoToken   lexer.Token
	annotation  string
	last        *chart.Measure
}

// sequence accumulates the nodes of one group body, ending, or line.
type sequence struct {
	nodes []chart.Node
	cur   *chart.Measure
	// sealed is set by whitespace after a beat; join by "_".
	sealed bool
	join   bool
	joinAt lexer.Token
}

// ParseChord builds the structural tree for one tokenised chord line.
// Unknown chord qualities are reported as warnings.
func ParseChord(line int, tokens []lexer.Token, qualities chart.QualitySet) (*chart.ChordLine, []cerrors.Diagnostic, error) {
	if qualities == nil {
		qualities = chart.DefaultQualities()
	}
	p := &chordParser{tokens: tokens, line: line, qualities: qualities}

	nodes, stop, err := p.parseSequence(0)
	if err != nil {
		return nil, nil, err
	}
	if stop != nil {
		switch stop.Kind {
		case lexer.GroupClose:
			return nil, nil, cerrors.NewParse(stop.Line, stop.Column, "unmatched ')'")
		default:
			return nil, nil, cerrors.NewParse(stop.Line, stop.Column, "ending marker outside a repeat group")
		}
	}

	if p.annotation != "" {
		if p.last == nil {
			return nil, nil, cerrors.NewParse(line, 0, "annotation %q has no measure to attach to", p.annotation)
		}
		p.last.Annotation = joinAnnotation(p.last.Annotation, p.annotation)
	}
	if len(nodes) == 0 {
		return nil, nil, cerrors.NewParse(line, 0, "chord line has no measures")
	}
	return &chart.ChordLine{Line: line, Nodes: nodes}, p.diags, nil
}

func joinAnnotation(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

func (p *chordParser) peek() *lexer.Token {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

// parseSequence consumes tokens until end of line, a ")" or an ending
// marker. The terminating token is returned unconsumed.
func (p *chordParser) parseSequence(depth int) ([]chart.Node, *lexer.Token, error) {
	seq := &sequence{}
	for {
		tok := p.peek()
		if tok == nil || tok.Kind == lexer.GroupClose || tok.Kind == lexer.Ending {
			if err := p.finish(seq); err != nil {
				return nil, nil, err
			}
			return seq.nodes, tok, nil
		}
		if p.decorations != 0 && !decorates(tok.Kind) {
			return nil, nil, cerrors.NewParse(p.decoToken.Line, p.decoToken.Column, "decoration must precede a chord")
		}

		switch tok.Kind {
		case lexer.Space:
			seq.sealed = true
		case lexer.BeatSep:
			if seq.cur == nil {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "beat separator '_' must follow a beat")
			}
			seq.join = true
			seq.joinAt = *tok
		case lexer.Push:
			p.decorate(chart.Push, *tok)
		case lexer.Accent:
			p.decorate(chart.Accent, *tok)
		case lexer.Ghost:
			p.decorate(chart.Ghost, *tok)
		case lexer.ChordAtom:
			c, known, err := ParseSymbol(tok.Text, p.qualities)
			if err != nil {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "%v", err)
			}
			if !known {
				p.diags = append(p.diags, cerrors.Warnf(tok.Line, tok.Column, "unknown chord quality %q in %q", c.Quality, tok.Text))
			}
			c.Decorations = p.takeDecorations()
			p.addBeat(seq, chart.Beat{Kind: chart.BeatChord, Chord: &c, Column: tok.Column}, *tok)
		case lexer.RepeatChord:
			p.addBeat(seq, chart.Beat{Kind: chart.BeatRepeatChord, Marks: p.takeDecorations(), Column: tok.Column}, *tok)
		case lexer.Rest:
			p.addBeat(seq, chart.Beat{Kind: chart.BeatRest, Column: tok.Column}, *tok)
		case lexer.NoChord:
			p.addBeat(seq, chart.Beat{Kind: chart.BeatNoChord, Column: tok.Column}, *tok)
		case lexer.Fermata:
			p.addBeat(seq, chart.Beat{Kind: chart.BeatFermata, Column: tok.Column}, *tok)
		case lexer.RepeatBar:
			if seq.join {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "'%%' cannot be joined into a measure")
			}
			if seq.cur != nil && !seq.sealed {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "'%%' must stand alone as a measure")
			}
			m := p.newMeasure(*tok)
			m.RepeatsPrevious = true
			seq.nodes = append(seq.nodes, m)
			seq.cur, seq.sealed = nil, false
		case lexer.Annotation:
			p.annotation = joinAnnotation(p.annotation, tok.Text)
		case lexer.GroupOpen:
			if seq.join {
				return nil, nil, cerrors.NewParse(seq.joinAt.Line, seq.joinAt.Column, "beat separator '_' cannot join into a repeat group")
			}
			if depth+1 > MaxGroupDepth {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "repeat groups nested deeper than %d", MaxGroupDepth)
			}
			p.pos++
			g, err := p.parseGroup(depth+1, *tok)
			if err != nil {
				return nil, nil, err
			}
			seq.nodes = append(seq.nodes, g)
			seq.cur, seq.sealed = nil, false
			continue
		case lexer.RepeatCount:
			return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "repeat count %q has no enclosing group", tok.Text)
		case lexer.Unknown:
			if tok.Text == `"` {
				return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "unterminated annotation")
			}
			return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "unknown beat separator %q", tok.Text)
		default:
			return nil, nil, cerrors.NewParse(tok.Line, tok.Column, "unexpected %s in chord line", tok.Kind)
		}
		p.pos++
	}
}

// parseGroup parses a group body after its "(" up to and including the
// matching ")" and an optional repeat count.
func (p *chordParser) parseGroup(depth int, open lexer.Token) (*chart.RepeatGroup, error) {
	g := &chart.RepeatGroup{Count: DefaultRepeatCount, Line: open.Line, Column: open.Column}
	ending := 0
	for {
		nodes, stop, err := p.parseSequence(depth)
		if err != nil {
			return nil, err
		}
		if ending == 0 {
			g.Body = nodes
		} else {
			g.Endings[ending] = nodes
		}

		if stop == nil {
			return nil, cerrors.NewParse(open.Line, open.Column, "unclosed repeat group")
		}
		p.pos++

		if stop.Kind == lexer.Ending {
			if stop.N <= 0 {
				return nil, cerrors.NewParse(stop.Line, stop.Column, "ending number must be positive")
			}
			if _, dup := g.Endings[stop.N]; dup {
				return nil, cerrors.NewParse(stop.Line, stop.Column, "duplicate ending %d", stop.N)
			}
			if g.Endings == nil {
				g.Endings = make(map[int][]chart.Node)
			}
			g.Endings[stop.N] = nil
			ending = stop.N
			continue
		}

		// GroupClose
		if groupEmpty(g) {
			return nil, cerrors.NewParse(open.Line, open.Column, "empty repeat group")
		}
		save := p.pos
		if t := p.peek(); t != nil && t.Kind == lexer.Space {
			p.pos++
		}
		if t := p.peek(); t != nil && t.Kind == lexer.RepeatCount {
			if t.N == 0 {
				return nil, cerrors.NewParse(t.Line, t.Column, "repeat count must be positive")
			}
			g.Count = t.N
			p.pos++
		} else {
			p.pos = save
		}
		return g, nil
	}
}

func groupEmpty(g *chart.RepeatGroup) bool {
	if len(g.Body) > 0 {
		return false
	}
	for _, e := range g.Endings {
		if len(e) > 0 {
			return false
		}
	}
	return true
}

func decorates(k lexer.TokenKind) bool {
	switch k {
	case lexer.Push, lexer.Accent, lexer.Ghost, lexer.ChordAtom, lexer.RepeatChord:
		return true
	}
	return false
}

func (p *chordParser) decorate(d chart.Decoration, tok lexer.Token) {
	if p.decorations == 0 {
		p.decoToken = tok
	}
	p.decorations |= d
}

func (p *chordParser) takeDecorations() chart.Decoration {
	d := p.decorations
	p.decorations = 0
	return d
}

func (p *chordParser) newMeasure(tok lexer.Token) *chart.Measure {
	m := &chart.Measure{Line: tok.Line, Column: tok.Column}
	if p.annotation != "" {
		m.Annotation = p.annotation
		p.annotation = ""
	}
	p.last = m
	return m
}

// addBeat appends b to the open measure, or starts a new one when the
// previous beat was followed by whitespace and no "_".
func (p *chordParser) addBeat(seq *sequence, b chart.Beat, tok lexer.Token) {
	if seq.cur == nil || (seq.sealed && !seq.join) {
		seq.cur = p.newMeasure(tok)
		seq.nodes = append(seq.nodes, seq.cur)
	}
	seq.cur.Beats = append(seq.cur.Beats, b)
	seq.sealed, seq.join = false, false
}

// finish checks for dangling state at the end of a sequence.
func (p *chordParser) finish(seq *sequence) error {
	if seq.join {
		return cerrors.NewParse(seq.joinAt.Line, seq.joinAt.Column, "beat separator '_' has no following beat")
	}
	if p.decorations != 0 {
		return cerrors.NewParse(p.decoToken.Line, p.decoToken.Column, "decoration must precede a chord")
	}
	return nil
}
