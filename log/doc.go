// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is an immutable value: options are applied when it is created
// with [Make] or derived with [Logger.Wrap], so a Logger may be copied and
// shared between goroutines freely.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.InfoContext(ctx, "render complete", slog.String("source", path))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
// Text output is colorized through [github.com/lmittmann/tint] unless
// [WithPretty] disables it. JSON output is always plain [slog.JSONHandler].
//
// # Levels
//
// In addition to the four [log/slog] levels, [LevelTrace] sits below
// [LevelDebug] and is used for per-node tracing in hot paths.
//
// # Package Logger
//
// The package-level functions ([TraceContext], [DebugContext], [WarnContext],
// [Error]) write through a default Logger that [Config] reconfigures.
package log
