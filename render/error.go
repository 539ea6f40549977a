package render

import (
	"log/slog"

	"github.com/ardnew/folio/pkg"
)

// Predefined errors (sentinel values).
var (
	ErrTemplateNotFound = pkg.NewError("template not found")
	ErrMaxDepthExceeded = pkg.NewError("maximum render depth exceeded")
	ErrNotRegular       = pkg.NewError("not a regular file")
	ErrPanic            = pkg.NewError("render panicked")
)

// NotFoundError reports that no template could be loaded from Path.
type NotFoundError struct {
	Path string // resolved path
	Err  error  // loader failure
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	msg := ErrTemplateNotFound.Error() + ": " + e.Path
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the loader failure.
func (e *NotFoundError) Unwrap() error { return e.Err }

// Is matches [ErrTemplateNotFound].
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// LogValue implements slog.LogValuer.
func (e *NotFoundError) LogValue() slog.Value {
	return ErrTemplateNotFound.Wrap(e.Err).
		With(slog.String("path", e.Path)).
		LogValue()
}
