package pkg

import (
	"log/slog"
	"slices"
)

// Error is a failure kind shared across folio packages, such as
// render.ErrTemplateNotFound or tag.ErrArgument.
//
// A value from [NewError] is a sentinel. [Error.Wrap] attaches a cause and
// [Error.With] attaches slog attributes such as the template path. Both
// return new values that still match the sentinel with errors.Is, so callers
// test the kind while logs keep the detail.
type Error struct {
	msg   string
	cause error
	attrs []slog.Attr
	kind  *Error // sentinel this value derives from; nil for sentinels
}

// NewError returns a sentinel with message msg.
func NewError(msg string) *Error { return &Error{msg: msg} }

// Error returns "msg: cause", or whichever of the two is set.
func (e *Error) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is e or the sentinel e derives from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && (t == e || t == e.kind)
}

// LogValue groups the message, the cause, and the attached attributes.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns an error of the same kind as e caused by err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, cause: err, attrs: e.attrs, kind: e.sentinel()}
}

// With returns a copy of e carrying attrs after its existing attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	return &Error{
		msg:   e.msg,
		cause: e.cause,
		attrs: append(slices.Clip(e.attrs), attrs...),
		kind:  e.sentinel(),
	}
}

func (e *Error) sentinel() *Error {
	if e.kind != nil {
		return e.kind
	}

	return e
}
