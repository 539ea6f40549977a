package ast

import (
	"log/slog"
	"strconv"

	"github.com/ardnew/folio/pkg"
)

// ErrParse is the sentinel matched by every [ParseError].
var ErrParse = pkg.NewError("template parse failed")

// ParseError reports malformed template bytes.
type ParseError struct {
	Label  string // diagnostic source label
	Line   int
	Column int
	Reason string
	Err    error // optional cause, e.g. an expression compile error
}

// Errorf returns a ParseError at the scanner's current position.
func (s *Scanner) Errorf(reason string) *ParseError {
	return s.ErrorAt(s.Position(), reason, nil)
}

// ErrorAt returns a ParseError at pos wrapping cause.
func (s *Scanner) ErrorAt(pos Position, reason string, cause error) *ParseError {
	return &ParseError{
		Label:  s.Label,
		Line:   pos.Line,
		Column: pos.Column,
		Reason: reason,
		Err:    cause,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	loc := e.Label
	if loc == "" {
		loc = "<input>"
	}

	msg := loc + ":" + strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) +
		": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// Is matches [ErrParse].
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	err := ErrParse.With(
		slog.String("source", e.Label),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
		slog.String("reason", e.Reason),
	)
	if e.Err != nil {
		err = err.Wrap(e.Err)
	}

	return err.LogValue()
}
