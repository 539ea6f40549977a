package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/folio/data"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	sourceFilesKey struct{}
	sourceFiles    struct {
		paths    []string
		hasStdin bool
	}

	// SourceFiles is the set of context data files named on the command line.
	SourceFiles interface {
		IsZero() bool
		Stdin() io.Reader
		Decode(ctx context.Context) (data.Value, error)
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return s == nil || len(s.paths) == 0 && !s.hasStdin }

// Stdin returns os.Stdin if stdin was included as a source, or nil otherwise.
func (s *sourceFiles) Stdin() io.Reader {
	if s.hasStdin {
		return os.Stdin
	}

	return nil
}

// Decode reads every source in order and returns the Context Value they
// describe. A single source is returned as decoded. Several sources must all
// be dictionaries and are merged, later keys overriding earlier ones.
func (s *sourceFiles) Decode(ctx context.Context) (data.Value, error) {
	values := make([]data.Value, 0, len(s.paths)+1)

	for _, path := range s.paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return data.Null(), ErrData.Wrap(err).With(slog.String("file", path))
		}

		v, err := data.Decode(ctx, src)
		if err != nil {
			return data.Null(), ErrData.Wrap(err).With(slog.String("file", path))
		}

		values = append(values, v)
	}

	if s.hasStdin {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return data.Null(), ErrData.Wrap(err).With(slog.String("file", stdinSource))
		}

		v, err := data.Decode(ctx, src)
		if err != nil {
			return data.Null(), ErrData.Wrap(err).With(slog.String("file", stdinSource))
		}

		values = append(values, v)
	}

	switch len(values) {
	case 0:
		return data.Null(), nil
	case 1:
		return values[0], nil
	}

	merged := data.Dictionary(nil)

	for i, v := range values {
		if v.Kind() != data.KindDictionary {
			return data.Null(), ErrMerge.With(
				slog.Int("index", i),
				slog.String("kind", v.Kind().String()),
			)
		}

		merged = merged.Merge(v)
	}

	return merged, nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context carrying the given context
// data files.
//
// The files are deduplicated by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-" are replaced with a single stdin source that
// is read after all regular files.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, buildSourceFiles(sources))
}

func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.paths = make([]string, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		path, ok := uniquePath(src, seen)
		if !ok {
			continue
		}

		srcs.paths = append(srcs.paths, path)
	}

	// Stdin may have been included via "-" or as a named file.
	// Both of which will be represented by stdinKey in seen.
	_, srcs.hasStdin = seen[stdinKey]
	delete(seen, stdinKey)

	if len(srcs.paths) == 0 && !srcs.hasStdin {
		return nil
	}

	return &srcs
}

// uniquePath resolves path and reports whether it names a file not yet seen.
func uniquePath(path string, seen map[fileKey]struct{}) (string, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return "", false
	}

	if _, exists := seen[key]; exists {
		return "", false
	}

	seen[key] = struct{}{}

	return resolved, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// sourceFilesFrom retrieves the sources stored in ctx by WithSourceFiles.
// Returns nil if none were stored.
func sourceFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return r
}

// contextValue decodes the source files stored in ctx, or returns Null.
func contextValue(ctx context.Context) (data.Value, error) {
	src := sourceFilesFrom(ctx)
	if src == nil || src.IsZero() {
		return data.Null(), nil
	}

	return src.Decode(ctx)
}
