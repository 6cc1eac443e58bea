package lexer

import (
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// chordLexer recognises the chord line token set. Rule order matters: the
// first rule matching at a position wins.
var chordLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Annotation", Pattern: `"[^"]*"`},
	{Name: "RepeatCount", Pattern: `[0-9]+x\b`},
	{Name: "Ending", Pattern: `[0-9]+\.`},
	{Name: "NoChord", Pattern: `N\.C\.`},
	{Name: "Fermata", Pattern: `fermata\b`},
	{Name: "Chord", Pattern: `[A-G][#b]?(?:[^\s_,()%*"^!?/]|/[0-9])*(?:/[A-G][#b]?)?`},
	{Name: "GroupOpen", Pattern: `\(`},
	{Name: "GroupClose", Pattern: `\)`},
	{Name: "BeatSep", Pattern: `_`},
	{Name: "Rest", Pattern: `,`},
	{Name: "RepeatChord", Pattern: `\*`},
	{Name: "RepeatBar", Pattern: `%`},
	{Name: "Push", Pattern: `\^`},
	{Name: "Accent", Pattern: `!`},
	{Name: "Ghost", Pattern: `\?`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Invalid", Pattern: `.`},
})

var chordSymbols = symbolNames(chordLexer)

var chordKinds = map[string]TokenKind{
	"Annotation":  Annotation,
	"RepeatCount": RepeatCount,
	"Ending":      Ending,
	"NoChord":     NoChord,
	"Fermata":     Fermata,
	"Chord":       ChordAtom,
	"GroupOpen":   GroupOpen,
	"GroupClose":  GroupClose,
	"BeatSep":     BeatSep,
	"Rest":        Rest,
	"RepeatChord": RepeatChord,
	"RepeatBar":   RepeatBar,
	"Push":        Push,
	"Accent":      Accent,
	"Ghost":       Ghost,
	"Whitespace":  Space,
	"Invalid":     Unknown,
}

// LexChord tokenises one chord line. Whitespace is kept as Space tokens,
// collapsed to one per gap and trimmed at both ends.
func LexChord(line int, raw string) ([]Token, error) {
	raws, err := scan(chordLexer, line, 0, raw)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	for _, rt := range raws {
		kind := chordKinds[chordSymbols[rt.Type]]
		tok := Token{Kind: kind, Text: rt.Value, Line: line, Column: rt.Pos.Column}
		switch kind {
		case Space:
			if len(tokens) == 0 {
				continue
			}
		case Annotation:
			tok.Text = strings.TrimSpace(rt.Value[1 : len(rt.Value)-1])
		case RepeatCount:
			tok.N = atoiSaturating(strings.TrimSuffix(rt.Value, "x"))
		case Ending:
			tok.N = atoiSaturating(strings.TrimSuffix(rt.Value, "."))
		}
		tokens = append(tokens, tok)
	}
	if n := len(tokens); n > 0 && tokens[n-1].Kind == Space {
		tokens = tokens[:n-1]
	}
	return tokens, nil
}

// atoiSaturating parses a run of digits, clamping values that overflow int.
// An absurd count is rejected later by the expansion ceiling.
func atoiSaturating(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt
	}
	return n
}
