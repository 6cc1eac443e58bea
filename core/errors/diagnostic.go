package errors

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning marks accepted input that is rendered verbatim.
	SeverityWarning Severity = iota
	// SeverityError marks input that halted compilation.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a non-fatal finding, such as an unrecognised chord quality
// or an ending number with no matching repetition.
type Diagnostic struct {
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s%s: %s", position(d.Line, d.Column), d.Severity, d.Message)
}

// Warnf creates a warning diagnostic.
func Warnf(line, column int, format string, args ...any) Diagnostic {
	return Diagnostic{
		Line:     line,
		Column:   column,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	}
}
