package tag

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrUnknown    = pkg.NewError("unknown tag")
	ErrEvaluation = pkg.NewError("tag evaluation failed")
	ErrArity      = pkg.NewError("wrong number of arguments")
	ErrArgument   = pkg.NewError("invalid argument")
	ErrBody       = pkg.NewError("tag requires a body")
	ErrClause     = pkg.NewError("clause used outside its block")
	ErrNoRenderer = pkg.NewError("sub-rendering unavailable")
)

// UnknownError reports a tag name absent from the registry.
type UnknownError struct {
	Name string
	Pos  ast.Position
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return ErrUnknown.Error() + " #" + e.Name + " at " + e.Pos.String()
}

// Is matches [ErrUnknown].
func (e *UnknownError) Is(target error) bool { return target == ErrUnknown }

// LogValue implements slog.LogValuer.
func (e *UnknownError) LogValue() slog.Value {
	return ErrUnknown.With(
		slog.String("tag", e.Name),
		slog.String("pos", e.Pos.String()),
	).LogValue()
}

// EvaluationError reports a failure raised while evaluating a tag or an
// interpolated expression. Name is empty for interpolations.
type EvaluationError struct {
	Name string
	Pos  ast.Position
	Err  error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	what := "expression"
	if e.Name != "" {
		what = "#" + e.Name
	}

	msg := ErrEvaluation.Error() + ": " + what + " at " + e.Pos.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the handler's error.
func (e *EvaluationError) Unwrap() error { return e.Err }

// Is matches [ErrEvaluation].
func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// LogValue implements slog.LogValuer.
func (e *EvaluationError) LogValue() slog.Value {
	return ErrEvaluation.Wrap(e.Err).With(
		slog.String("tag", e.Name),
		slog.String("pos", e.Pos.String()),
	).LogValue()
}

func arity(name string, got int, want ...int) error {
	if slices.Contains(want, got) {
		return nil
	}

	w := make([]string, len(want))
	for i, n := range want {
		w[i] = strconv.Itoa(n)
	}

	return ErrArity.Wrap(
		fmt.Errorf("#%s takes %s, got %d", name, strings.Join(w, " or "), got),
	).With(slog.String("tag", name))
}
