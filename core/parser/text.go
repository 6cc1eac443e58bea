// Package parser builds per-line syntax from lexer tokens.
//
// ParseText turns text-line tokens into a chart.TextLine with alignment
// zones and styled runs. ParseChord builds the structural tree of one chord
// line (measures and repeat groups) without resolving any repeats.
package parser

import (
	"strings"
	"unicode"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/lexer"
)

// style is the emphasis contributed by one open delimiter.
type style struct {
	bold, italic bool
}

type frame struct {
	style
	column int
}

// textParser holds the per-line state of one ParseText call.
type textParser struct {
	line  int
	stack []frame
	zones []chart.Zone
	cur   *chart.Zone
	// explicit is false while the implicit leading Left zone is open.
	explicit bool
	markers  int
}

// ParseText parses one tokenised text line.
func ParseText(tokens []lexer.Token) (*chart.TextLine, error) {
	if len(tokens) == 0 || tokens[0].Kind != lexer.Weight {
		return nil, cerrors.NewParse(0, 0, "text line without weight")
	}
	head := tokens[0]
	weight, ok := chart.WeightFromMarkers(head.N)
	if !ok {
		return nil, cerrors.NewLex(head.Line, head.Column, "weight out of range: %d markers", head.N)
	}

	p := &textParser{line: head.Line}
	p.open(chart.Left, false)

	for _, tok := range tokens[1:] {
		switch tok.Kind {
		case lexer.AlignLeft, lexer.AlignCenter, lexer.AlignRight:
			p.markers++
			if err := p.closeZone(); err != nil {
				return nil, err
			}
			p.open(alignmentOf(tok.Kind), true)
		case lexer.ItalicDelim:
			if err := p.toggle(style{italic: true}, tok.Column); err != nil {
				return nil, err
			}
		case lexer.BoldDelim:
			if err := p.toggle(style{bold: true}, tok.Column); err != nil {
				return nil, err
			}
		case lexer.BoldItalicDelim:
			if err := p.toggle(style{bold: true, italic: true}, tok.Column); err != nil {
				return nil, err
			}
		case lexer.PlainText, lexer.Escape:
			p.write(tok.Text)
		default:
			return nil, cerrors.NewParse(tok.Line, tok.Column, "unexpected %s in text line", tok.Kind)
		}
	}

	if err := p.closeZone(); err != nil {
		return nil, err
	}
	return &chart.TextLine{Line: head.Line, Weight: weight, Zones: p.zones}, nil
}

func alignmentOf(k lexer.TokenKind) chart.Alignment {
	switch k {
	case lexer.AlignCenter:
		return chart.Center
	case lexer.AlignRight:
		return chart.Right
	default:
		return chart.Left
	}
}

func (p *textParser) open(a chart.Alignment, explicit bool) {
	p.cur = &chart.Zone{Alignment: a}
	p.explicit = explicit
}

// closeZone finishes the current zone. Emphasis may not span zones.
func (p *textParser) closeZone() error {
	if len(p.stack) > 0 {
		return cerrors.NewParse(p.line, p.stack[len(p.stack)-1].column, "unterminated or mismatched emphasis")
	}
	z := *p.cur
	z.Runs = trimRuns(z.Runs)
	// The implicit zone survives only with content, or when it is the whole line.
	if p.explicit || len(z.Runs) > 0 || p.markers == 0 {
		p.zones = append(p.zones, z)
	}
	p.cur = nil
	return nil
}

func (p *textParser) current() style {
	var s style
	for _, f := range p.stack {
		s.bold = s.bold || f.bold
		s.italic = s.italic || f.italic
	}
	return s
}

func (p *textParser) write(text string) {
	if text == "" {
		return
	}
	s := p.current()
	runs := p.cur.Runs
	if n := len(runs); n > 0 && runs[n-1].Bold == s.bold && runs[n-1].Italic == s.italic {
		runs[n-1].Text += text
		return
	}
	p.cur.Runs = append(runs, chart.StyledRun{Text: text, Bold: s.bold, Italic: s.italic})
}

// toggle opens or closes the emphasis in d.
//
// A delimiter closes when its classes are on top of the stack: "*" closes an
// italic frame, "**" a bold frame, "***" either a bold+italic frame or two
// single frames. A single delimiter may peel its class off a bold+italic frame.
// If the class is open deeper in the stack the line is rejected.
func (p *textParser) toggle(d style, column int) error {
	n := len(p.stack)
	if n > 0 {
		top := p.stack[n-1].style
		switch {
		case top == d:
			p.stack = p.stack[:n-1]
			return nil
		case d.bold && d.italic && n >= 2 && combine(top, p.stack[n-2].style) == d:
			p.stack = p.stack[:n-2]
			return nil
		case !(d.bold && d.italic) && top.bold && top.italic:
			remaining := style{bold: !d.bold, italic: !d.italic}
			p.stack[n-1].style = remaining
			return nil
		}
	}
	open := p.current()
	if (d.bold && open.bold) || (d.italic && open.italic) {
		return cerrors.NewParse(p.line, column, "unterminated or mismatched emphasis")
	}
	p.stack = append(p.stack, frame{style: d, column: column})
	return nil
}

func combine(a, b style) style {
	return style{bold: a.bold || b.bold, italic: a.italic || b.italic}
}

// trimRuns strips whitespace at the outer edges of the zone and drops runs
// left empty.
func trimRuns(runs []chart.StyledRun) []chart.StyledRun {
	for len(runs) > 0 {
		runs[0].Text = strings.TrimLeftFunc(runs[0].Text, unicode.IsSpace)
		if runs[0].Text != "" {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		last := len(runs) - 1
		runs[last].Text = strings.TrimRightFunc(runs[last].Text, unicode.IsSpace)
		if runs[last].Text != "" {
			break
		}
		runs = runs[:last]
	}
	if len(runs) == 0 {
		return nil
	}
	return runs
}
