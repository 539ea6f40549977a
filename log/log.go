package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger is the structured logger handed to renderers and serializers with
// render.WithLogger. It is a small value wrapping a [slog.Logger] together
// with the configuration that built it, so [Logger.Wrap] can derive a new
// logger from the same output.
//
// Every method takes a context: render calls carry one, and the handler may
// read request-scoped values from it. The zero Logger discards everything,
// which is what a renderer uses when none is configured.
type Logger struct {
	*slog.Logger
	config
}

// Make returns a Logger writing to w. Without options it logs text at
// [DefaultLevel] with [DefaultTimeLayout], [DefaultPretty] colouring, and no
// caller information.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// Discard returns a Logger that drops all messages.
func Discard() Logger { return Logger{} }

// Wrap returns a Logger with opts applied over the configuration of l.
// Attributes added with [Logger.With] are not carried over. Wrapping the zero
// Logger starts from the defaults on stderr.
func (l Logger) Wrap(opts ...Option) Logger {
	base := l.config
	if base.output == nil {
		base = makeConfig(nil)
	}

	cfg := apply(base, opts...)

	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// With returns a Logger that adds attrs to every message, such as the
// template label of one render.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	return Logger{Logger: slog.New(l.Handler().WithAttrs(attrs)), config: l.config}
}

// Level returns the minimum level l emits.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the output format of l.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// TraceContext logs cache and parse detail below debug.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelTrace, msg, attrs)
}

// DebugContext logs at [LevelDebug].
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelDebug, msg, attrs)
}

// InfoContext logs at [LevelInfo].
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelInfo, msg, attrs)
}

// WarnContext logs at [LevelWarn].
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelWarn, msg, attrs)
}

// ErrorContext logs at [LevelError].
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelError, msg, attrs)
}

// callerSkip drops runtime.Callers, emit, and the exported logging function,
// leaving the code that called it.
const callerSkip = 3

func (l Logger) emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr

	runtime.Callers(callerSkip, pcs[:])

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
