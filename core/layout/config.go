package layout

import (
	"fmt"

	"github.com/FocuswithJustin/cleanchart/core/chart"
)

// OverflowPolicy decides how zones shrink when a text line demands more
// width than the page offers.
type OverflowPolicy int

const (
	// ShrinkProportional scales every zone by the same factor, so each keeps
	// its requested share of the line.
	ShrinkProportional OverflowPolicy = iota
	// ShrinkLargest caps the widest zones first and leaves narrow ones intact.
	ShrinkLargest
)

// DefaultOverflow is the policy applied when Config.Overflow is unset.
const DefaultOverflow = ShrinkProportional

func (p OverflowPolicy) String() string {
	switch p {
	case ShrinkProportional:
		return "proportional"
	case ShrinkLargest:
		return "largest"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy parses the String form of a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "proportional":
		return ShrinkProportional, nil
	case "largest":
		return ShrinkLargest, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p OverflowPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *OverflowPolicy) UnmarshalText(b []byte) error {
	v, err := ParseOverflowPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config holds page geometry and typography. All lengths are in points.
type Config struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	MarginX    float64 `json:"margin_x"`
	MarginY    float64 `json:"margin_y"`

	// BaseFontSize and LineHeight are for H3; heavier weights scale them.
	BaseFontSize float64 `json:"base_font_size"`
	LineHeight   float64 `json:"line_height"`
	H1Scale      float64 `json:"h1_scale"`
	H2Scale      float64 `json:"h2_scale"`
	H3Scale      float64 `json:"h3_scale"`

	// ZoneGap is the minimum horizontal space between zones of one line.
	ZoneGap float64 `json:"zone_gap"`

	MeasuresPerRow     int     `json:"measures_per_row"`
	RowHeight          float64 `json:"row_height"`
	ChordFontSize      float64 `json:"chord_font_size"`
	AnnotationFontSize float64 `json:"annotation_font_size"`
	// BeatPadding is kept free on each side of a chord label.
	BeatPadding float64 `json:"beat_padding"`
	SectionGap  float64 `json:"section_gap"`

	Overflow   OverflowPolicy `json:"overflow"`
	FontFamily string         `json:"font_family"`
	Background string         `json:"background"`
}

// DefaultConfig returns an A4 portrait layout with four measures per row.
func DefaultConfig() Config {
	return Config{
		PageWidth:          595,
		PageHeight:         842,
		MarginX:            28,
		MarginY:            28,
		BaseFontSize:       12,
		LineHeight:         16,
		H1Scale:            1.5,
		H2Scale:            1.25,
		H3Scale:            1.0,
		ZoneGap:            12,
		MeasuresPerRow:     4,
		RowHeight:          40,
		ChordFontSize:      16,
		AnnotationFontSize: 8,
		BeatPadding:        2,
		SectionGap:         10,
		Overflow:           DefaultOverflow,
		FontFamily:         "sans-serif",
		Background:         "#ffffff",
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.PageWidth <= 0 || c.PageHeight <= 0:
		return fmt.Errorf("page size must be positive, got %gx%g", c.PageWidth, c.PageHeight)
	case c.MarginX < 0 || c.MarginY < 0:
		return fmt.Errorf("margins must not be negative")
	case 2*c.MarginX >= c.PageWidth || 2*c.MarginY >= c.PageHeight:
		return fmt.Errorf("margins leave no printable area")
	case c.BaseFontSize <= 0 || c.LineHeight <= 0 || c.ChordFontSize <= 0:
		return fmt.Errorf("font sizes and line height must be positive")
	case c.MeasuresPerRow <= 0:
		return fmt.Errorf("measures_per_row must be positive, got %d", c.MeasuresPerRow)
	case c.RowHeight <= 0:
		return fmt.Errorf("row_height must be positive")
	case !(c.H1Scale >= c.H2Scale && c.H2Scale >= c.H3Scale && c.H3Scale > 0):
		return fmt.Errorf("weight scales must satisfy h1 >= h2 >= h3 > 0")
	case c.Overflow != ShrinkProportional && c.Overflow != ShrinkLargest:
		return fmt.Errorf("unknown overflow policy %d", int(c.Overflow))
	}
	return nil
}

// scale returns the size ratio for a weight.
func (c Config) scale(w chart.Weight) float64 {
	switch w {
	case chart.H1:
		return c.H1Scale
	case chart.H2:
		return c.H2Scale
	default:
		return c.H3Scale
	}
}

// FontSize returns the font size of a text line of weight w.
func (c Config) FontSize(w chart.Weight) float64 { return c.BaseFontSize * c.scale(w) }

// LineAdvance returns the vertical space taken by a text line of weight w.
func (c Config) LineAdvance(w chart.Weight) float64 { return c.LineHeight * c.scale(w) }

// ContentWidth is the width between the horizontal margins.
func (c Config) ContentWidth() float64 { return c.PageWidth - 2*c.MarginX }
