package layout

import "unicode"

// Style is the typographic style of a piece of text.
type Style struct {
	Size   float64
	Bold   bool
	Italic bool
}

// Size is a measured extent in points.
type Size struct {
	Width  float64
	Height float64
}

// TextMetrics measures rendered text. Implementations must be
// deterministic: the same text and style always yield the same size.
type TextMetrics interface {
	Measure(text string, s Style) Size
}

// EstimateMetrics approximates a proportional sans-serif face from
// per-rune width classes. It needs no font data.
type EstimateMetrics struct{}

// Measure implements TextMetrics.
func (EstimateMetrics) Measure(text string, s Style) Size {
	var em float64
	for _, r := range text {
		em += runeWidth(r)
	}
	if s.Bold {
		em *= 1.06
	}
	return Size{Width: em * s.Size, Height: s.Size * 1.2}
}

func runeWidth(r rune) float64 {
	switch {
	case r == ' ':
		return 0.28
	case r == 'i' || r == 'l' || r == 'j' || r == 'I' || r == '|' || r == '\'' || r == '!':
		return 0.24
	case r == '.' || r == ',' || r == ':' || r == ';':
		return 0.28
	case r == 'm' || r == 'w':
		return 0.83
	case r == 'M' || r == 'W':
		return 0.92
	case unicode.IsDigit(r):
		return 0.56
	case unicode.IsUpper(r):
		return 0.67
	case unicode.IsLower(r):
		return 0.52
	case r < 0x80:
		return 0.5
	default:
		return 0.75
	}
}
