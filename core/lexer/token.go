package lexer

import "fmt"

// TokenKind tags a Token.
type TokenKind int

const (
	// Text line tokens.
	Weight TokenKind = iota
	AlignLeft
	AlignRight
	AlignCenter
	ItalicDelim
	BoldDelim
	BoldItalicDelim
	Escape
	PlainText

	// Chord line tokens.
	ChordAtom
	BeatSep
	Rest
	RepeatChord
	RepeatBar
	GroupOpen
	GroupClose
	RepeatCount
	Ending
	Push
	Accent
	Ghost
	NoChord
	Fermata
	Annotation
	// Space separates measures.
	Space
	// Unknown is a character no chord-line rule matched.
	Unknown
)

var kindNames = [...]string{
	Weight:          "Weight",
	AlignLeft:       "AlignLeft",
	AlignRight:      "AlignRight",
	AlignCenter:     "AlignCenter",
	ItalicDelim:     "ItalicDelim",
	BoldDelim:       "BoldDelim",
	BoldItalicDelim: "BoldItalicDelim",
	Escape:          "Escape",
	PlainText:       "PlainText",
	ChordAtom:       "ChordAtom",
	BeatSep:         "BeatSep",
	Rest:            "Rest",
	RepeatChord:     "RepeatChord",
	RepeatBar:       "RepeatBar",
	GroupOpen:       "GroupOpen",
	GroupClose:      "GroupClose",
	RepeatCount:     "RepeatCount",
	Ending:          "Ending",
	Push:            "Push",
	Accent:          "Accent",
	Ghost:           "Ghost",
	NoChord:         "NoChord",
	Fermata:         "Fermata",
	Annotation:      "Annotation",
	Space:           "Space",
	Unknown:         "Unknown",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexeme of a line.
type Token struct {
	Kind TokenKind
	// Text is the token's payload: literal text for PlainText, the escaped
	// character for Escape, the symbol for ChordAtom, the unquoted body for
	// Annotation. For other kinds it is the source spelling.
	Text string
	// N is the numeric payload of Weight, RepeatCount and Ending.
	N      int
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Kind {
	case Weight, RepeatCount, Ending:
		return fmt.Sprintf("%s(%d)", t.Kind, t.N)
	case Escape, PlainText, ChordAtom, Annotation, Unknown:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}
