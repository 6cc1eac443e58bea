// Package lexer classifies chart source lines and splits them into tokens.
//
// Text lines ("=" prefix) and chord lines are tokenised by two participle
// simple lexers. The lexer never decides structure: emphasis nesting, zone
// boundaries and repeat groups are left to the parser.
package lexer

import (
	"regexp"
	"strings"
)

// LineKind is the coarse class of one source line.
type LineKind int

const (
	KindBlank LineKind = iota
	// KindComment is a line whose first non-space character is "#".
	KindComment
	// KindMeta is a "Name: value" line. Whether it is accepted as metadata
	// depends on its position in the document.
	KindMeta
	// KindHeader is a "[Name]" section header.
	KindHeader
	KindText
	KindChord
)

func (k LineKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindComment:
		return "comment"
	case KindMeta:
		return "meta"
	case KindHeader:
		return "header"
	case KindText:
		return "text"
	case KindChord:
		return "chord"
	default:
		return "unknown"
	}
}

var (
	metaPattern   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)\s*:\s*(.*)$`)
	headerPattern = regexp.MustCompile(`^\[\s*([^\]]*?)\s*\]$`)
)

// Line is one classified source line.
type Line struct {
	Number int
	Kind   LineKind
	Raw    string
	// Name and Value are set for KindMeta; Name alone for KindHeader.
	Name  string
	Value string
}

// Classify returns the line class of raw.
func Classify(raw string) LineKind {
	return classify(raw).Kind
}

func classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	l := Line{Raw: raw}
	switch {
	case trimmed == "":
		l.Kind = KindBlank
	case strings.HasPrefix(trimmed, "#"):
		l.Kind = KindComment
	case strings.HasPrefix(trimmed, "="):
		l.Kind = KindText
	default:
		if m := headerPattern.FindStringSubmatch(trimmed); m != nil {
			l.Kind = KindHeader
			l.Name = m[1]
		} else if m := metaPattern.FindStringSubmatch(trimmed); m != nil {
			l.Kind = KindMeta
			l.Name = m[1]
			l.Value = strings.TrimSpace(m[2])
		} else {
			l.Kind = KindChord
		}
	}
	return l
}

// Split breaks src into classified lines numbered from 1. A trailing
// newline does not produce an extra line, and "\r\n" endings are accepted.
func Split(src string) []Line {
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	raws := strings.Split(src, "\n")
	lines := make([]Line, len(raws))
	for i, raw := range raws {
		raw = strings.TrimSuffix(raw, "\r")
		lines[i] = classify(raw)
		lines[i].Number = i + 1
	}
	return lines
}
