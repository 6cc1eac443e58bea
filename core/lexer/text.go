package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	cerrors "github.com/FocuswithJustin/cleanchart/core/errors"
)

// MaxWeightMarkers is the longest accepted run of leading "=".
const MaxWeightMarkers = 3

// textLexer splits the body of a text line, after the weight prefix.
var textLexer = lexer.MustSimple([]lexer.SimpleRule{
	// An escaped marker is literal as a whole: `\<<>>` is the text "<<>>".
	{Name: "Escape", Pattern: `\\(?:<<>>|<<|>>|.)?`},
	{Name: "Center", Pattern: `<<>>`},
	{Name: "Left", Pattern: `<<`},
	{Name: "Right", Pattern: `>>`},
	{Name: "Stars", Pattern: `\*+`},
	{Name: "Text", Pattern: `[^\\*<>]+`},
	{Name: "Angle", Pattern: `[<>]`},
})

var textSymbols = symbolNames(textLexer)

// escapable lists the characters "\" may precede.
const escapable = `*\<>`

func isMarker(s string) bool {
	return s == "<<>>" || s == "<<" || s == ">>"
}

// LexText tokenises one text line. The first token is always Weight.
func LexText(line int, raw string) ([]Token, error) {
	indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
	body := raw[indent:]
	n := 0
	for n < len(body) && body[n] == '=' {
		n++
	}
	if n == 0 {
		return nil, cerrors.NewLex(line, indent+1, "text line must start with '='")
	}
	if n > MaxWeightMarkers {
		return nil, cerrors.NewLex(line, indent+1, "weight out of range: %d markers", n)
	}

	tokens := []Token{{Kind: Weight, Text: body[:n], N: n, Line: line, Column: indent + 1}}
	offset := utf8.RuneCountInString(raw[:indent+n])

	raws, err := scan(textLexer, line, offset, body[n:])
	if err != nil {
		return nil, err
	}
	for _, rt := range raws {
		col := offset + rt.Pos.Column
		tok := Token{Text: rt.Value, Line: line, Column: col}
		switch textSymbols[rt.Type] {
		case "Escape":
			if len(rt.Value) < 2 {
				return nil, cerrors.NewLex(line, col, "invalid escape: trailing '\\'")
			}
			c := rt.Value[1:]
			if !isMarker(c) && !strings.Contains(escapable, c) {
				return nil, cerrors.NewLex(line, col, "invalid escape %q", rt.Value)
			}
			tok.Kind = Escape
			tok.Text = c
		case "Center":
			tok.Kind = AlignCenter
		case "Left":
			tok.Kind = AlignLeft
		case "Right":
			tok.Kind = AlignRight
		case "Stars":
			switch len(rt.Value) {
			case 1:
				tok.Kind = ItalicDelim
			case 2:
				tok.Kind = BoldDelim
			case 3:
				tok.Kind = BoldItalicDelim
			default:
				return nil, cerrors.NewLex(line, col, "emphasis run of %d '*' characters", len(rt.Value))
			}
		default:
			tok.Kind = PlainText
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// symbolNames inverts a definition's symbol table.
func symbolNames(def *lexer.StatefulDefinition) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string)
	for name, tt := range def.Symbols() {
		out[tt] = name
	}
	return out
}

// scan runs def over s and returns every token before EOF.
func scan(def *lexer.StatefulDefinition, line, offset int, s string) ([]lexer.Token, error) {
	if s == "" {
		return nil, nil
	}
	lex, err := def.LexString("", s)
	if err != nil {
		return nil, cerrors.NewLex(line, offset+1, "%v", err)
	}
	raws, err := lexer.ConsumeAll(lex)
	if err != nil {
		col := offset + 1
		var perr interface{ Position() lexer.Position }
		if cerrors.As(err, &perr) {
			col = offset + perr.Position().Column
		}
		return nil, cerrors.NewLex(line, col, "%v", err)
	}
	out := raws[:0]
	for _, rt := range raws {
		if rt.EOF() {
			break
		}
		out = append(out, rt)
	}
	return out, nil
}
