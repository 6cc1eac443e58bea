package parser

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// symbolGrammar is the participle grammar for a single chord symbol.
// Examples: "C", "F#m7", "Bbmaj7/F", "C6/9", "Em7b5"
//
//nolint:govet // participle grammar tags are not standard struct tags
type symbolGrammar struct {
	Root       string    `@Note`
	Accidental string    `@Accidental?`
	Quality    []string  `@( Tail | Accidental | Note | SlashDigit )*`
	Bass       *bassPart `( "/" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type bassPart struct {
	Note       string `@Note`
	Accidental string `@Accidental?`
}

// symbolLexer splits a chord symbol. Tail excludes pitch letters so that a
// trailing slash bass is seen as a Note.
var symbolLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Note", Pattern: `[A-G]`},
	{Name: "Accidental", Pattern: `[#b]`},
	{Name: "SlashDigit", Pattern: `/[0-9]`},
	{Name: "Slash", Pattern: `/`},
	{Name: "Tail", Pattern: `[^/A-G#b]+`},
})

var symbolParser = participle.MustBuild[symbolGrammar](
	participle.Lexer(symbolLexer),
)

// ParseSymbol parses a chord symbol such as "Am7/G" and looks its quality up
// in qualities. An unrecognised quality is not an error: the chord keeps the
// tail verbatim and known is false.
func ParseSymbol(s string, qualities chart.QualitySet) (c chart.Chord, known bool, err error) {
	if s == "" || s[0] < 'A' || s[0] > 'G' {
		return chart.Chord{}, false, fmt.Errorf("chord symbol %q must start with a pitch letter A-G", s)
	}

	parsed, perr := symbolParser.ParseString("", s)
	if perr != nil {
		c = fallbackSymbol(s)
	} else {
		c = chart.Chord{
			Root:    parsed.Root + parsed.Accidental,
			Quality: strings.Join(parsed.Quality, ""),
		}
		if parsed.Bass != nil {
			c.Bass = parsed.Bass.Note + parsed.Bass.Accidental
		}
	}

	if qualities == nil {
		qualities = chart.DefaultQualities()
	}
	if name, ok := qualities.Lookup(c.Quality); ok {
		c.QualityName = name
		known = true
	}
	return c, known, nil
}

// fallbackSymbol keeps the root and preserves the remainder as the quality.
func fallbackSymbol(s string) chart.Chord {
	n := 1
	if len(s) > 1 && (s[1] == '#' || s[1] == 'b') {
		n = 2
	}
	return chart.Chord{Root: s[:n], Quality: s[n:]}
}
