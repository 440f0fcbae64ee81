package commit

import (
	"errors"
	"fmt"
)

// Sentinel errors for construction and parsing failures.
var (
	ErrInvalidCommit    = errors.New("invalid conventional commit")
	ErrMalformedMessage = errors.New("malformed commit message")
)

// ValidationError reports a field that violates the commit grammar.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCommit
}

// ParseError reports where a commit message stopped matching the grammar.
// Line is 1-based.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Unwrap exposes both ErrMalformedMessage and the construction error, if any.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedMessage, e.Err}
	}
	return []error{ErrMalformedMessage}
}
