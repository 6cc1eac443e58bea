// Package errors provides the error and diagnostic types shared by the chart compiler.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrLex indicates a malformed weight, alignment marker, emphasis run or escape
	ErrLex = errors.New("lex error")
	// ErrParse indicates unbalanced groups, mismatched emphasis or an unknown token
	ErrParse = errors.New("parse error")
	// ErrResolution indicates a repeat with no referent or an expansion over the ceiling
	ErrResolution = errors.New("resolution error")
	// ErrValidation indicates chart-level validation failure (e.g. missing Title)
	ErrValidation = errors.New("validation error")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// position renders "line N, column M: " or a shorter form when parts are unknown.
func position(line, column int) string {
	switch {
	case line > 0 && column > 0:
		return fmt.Sprintf("line %d, column %d: ", line, column)
	case line > 0:
		return fmt.Sprintf("line %d: ", line)
	default:
		return ""
	}
}

// LexError reports a malformed token inside one source line.
type LexError struct {
	Line    int    // 1-based source line
	Column  int    // 1-based column, 0 if unknown
	Message string // Human-readable error message
}

func (e *LexError) Error() string {
	return position(e.Line, e.Column) + "lex error: " + e.Message
}

func (e *LexError) Unwrap() error {
	return ErrLex
}

// ParseError reports a structural error in a text or chord line.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return position(e.Line, e.Column) + "parse error: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// ResolutionError reports a repeat or ending that cannot be resolved.
type ResolutionError struct {
	Line    int
	Column  int
	Message string
}

func (e *ResolutionError) Error() string {
	return position(e.Line, e.Column) + "resolution error: " + e.Message
}

func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}

// ValidationError represents a chart-level validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Line    int    // Source line, 0 for document-level failures
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%svalidation failed for %s: %s", position(e.Line, 0), e.Field, e.Message)
	}
	return fmt.Sprintf("%svalidation failed: %s", position(e.Line, 0), e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewLex creates a LexError
func NewLex(line, column int, format string, args ...any) *LexError {
	return &LexError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// NewParse creates a ParseError
func NewParse(line, column int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// NewResolution creates a ResolutionError
func NewResolution(line, column int, format string, args ...any) *ResolutionError {
	return &ResolutionError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// NewValidation creates a ValidationError
func NewValidation(field string, line int, message string) *ValidationError {
	return &ValidationError{Field: field, Line: line, Message: message}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
