package assemble

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/cleanchart/core/chart"
	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
	"github.com/FocuswithJustin/cleanchart/core/lexer"
)

var timePattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)

// metadata collects the leading "Name: value" block.
type metadata struct {
	title, composer, key string
	titleLine, lastLine  int
	time                 *chart.TimeSignature
	extra                []chart.Field
	seen                 map[string]int
	err                  error
}

func newMetadata() *metadata {
	return &metadata{seen: make(map[string]int)}
}

// add records one metadata line. A repeated name keeps the last value and
// produces a warning.
func (m *metadata) add(l lexer.Line) []cerrors.Diagnostic {
	var diags []cerrors.Diagnostic
	name := strings.ToLower(l.Name)
	if prev, ok := m.seen[name]; ok {
		diags = append(diags, cerrors.Warnf(l.Number, 1, "duplicate metadata %q (first set on line %d)", l.Name, prev))
	}
	m.seen[name] = l.Number
	m.lastLine = l.Number

	switch name {
	case "title":
		m.title = l.Value
		m.titleLine = l.Number
	case "composer":
		m.composer = l.Value
	case "key":
		m.key = l.Value
	case "time":
		ts, err := parseTime(l.Value)
		if err != nil && m.err == nil {
			m.err = cerrors.NewValidation("Time", l.Number, err.Error())
		}
		m.time = &ts
	default:
		for i, f := range m.extra {
			if strings.EqualFold(f.Name, l.Name) {
				m.extra = append(m.extra[:i], m.extra[i+1:]...)
				break
			}
		}
		m.extra = append(m.extra, chart.Field{Name: l.Name, Value: l.Value, Line: l.Number})
	}
	return diags
}

// chart validates the block and returns a chart with no sections yet.
func (m *metadata) chart() (*chart.Chart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(m.title) == "" {
		return nil, cerrors.NewValidation("Title", m.missingTitleLine(), "required")
	}
	c := &chart.Chart{
		Title:    m.title,
		Composer: m.composer,
		Key:      m.key,
		Time:     chart.CommonTime,
		Extra:    m.extra,
	}
	if m.time != nil {
		c.Time = *m.time
	}
	return c, nil
}

// missingTitleLine places a missing title at the empty Title line, else at
// the last metadata line, else at the top of the document.
func (m *metadata) missingTitleLine() int {
	switch {
	case m.titleLine > 0:
		return m.titleLine
	case m.lastLine > 0:
		return m.lastLine
	}
	return 1
}

// parseTime parses "N/D", plus the "C" (4/4) and "C|" (2/2) symbols.
func parseTime(s string) (chart.TimeSignature, error) {
	switch strings.TrimSpace(s) {
	case "C":
		return chart.CommonTime, nil
	case "C|":
		return chart.TimeSignature{Numerator: 2, Denominator: 2}, nil
	}
	match := timePattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return chart.TimeSignature{}, &timeError{value: s, reason: "want N/D"}
	}
	num, err1 := strconv.Atoi(match[1])
	den, err2 := strconv.Atoi(match[2])
	if err1 != nil || err2 != nil || num <= 0 || num > 64 {
		return chart.TimeSignature{}, &timeError{value: s, reason: "numerator must be between 1 and 64"}
	}
	switch den {
	case 1, 2, 4, 8, 16, 32:
	default:
		return chart.TimeSignature{}, &timeError{value: s, reason: "denominator must be a power of two up to 32"}
	}
	return chart.TimeSignature{Numerator: num, Denominator: den}, nil
}

type timeError struct {
	value, reason string
}

func (e *timeError) Error() string {
	return "invalid time signature " + strconv.Quote(e.value) + ": " + e.reason
}
