// Package encoding provides the text escaping and number formatting shared
// by the output backends.
package encoding

import (
	"strconv"
	"strings"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

// EscapeXMLText escapes the basic XML entities for element content and
// drops characters XML 1.0 cannot carry.
func EscapeXMLText(s string) string {
	return textEscaper.Replace(StripInvalidXML(s))
}

// EscapeXMLAttr escapes text for a double-quoted XML attribute.
func EscapeXMLAttr(s string) string {
	return attrEscaper.Replace(StripInvalidXML(s))
}

// StripInvalidXML removes runes outside the XML 1.0 Char production.
// Tab, newline and carriage return are kept.
func StripInvalidXML(s string) string {
	if strings.IndexFunc(s, invalidXMLRune) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if invalidXMLRune(r) {
			return -1
		}
		return r
	}, s)
}

func invalidXMLRune(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF:
		return true
	case r == 0xFFFE || r == 0xFFFF:
		return true
	}
	return false
}

// FormatNumber renders f with at most two decimals and no trailing zeros,
// so identical geometry always yields identical output bytes.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
