package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/folio/log"
)

// Store copies template files into the --db database, or lists the stored
// paths when no files are given.
type Store struct {
	Files []string `arg:"" help:"Template files to store" optional:"" type:"existingfile"`
}

// Run executes the store command.
func (c *Store) Run(ctx context.Context, t *Template) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if t.DB == "" {
		return ErrNoDatabase
	}

	s, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(c.Files) == 0 {
		paths, err := s.sql.Paths(ctx)
		if err != nil {
			return ErrDatabase.Wrap(err).With(slog.String("file", t.DB))
		}

		for _, p := range paths {
			fmt.Fprintln(stdout(ctx), p)
		}

		return nil
	}

	for _, file := range c.Files {
		body, err := os.ReadFile(file)
		if err != nil {
			return ErrDatabase.Wrap(err).With(slog.String("file", file))
		}

		key := storeKey(t.Dir, file)

		if err := s.sql.Store(ctx, key, body); err != nil {
			return ErrDatabase.Wrap(err).With(
				slog.String("file", file),
				slog.String("path", key),
			)
		}

		log.DebugContext(ctx, "stored template",
			slog.String("file", file),
			slog.String("path", key),
			slog.Int("bytes", len(body)),
		)
	}

	return nil
}

// storeKey returns the database path of file: relative to dir when file is
// inside it, otherwise the cleaned path as given.
func storeKey(dir, file string) string {
	file = filepath.Clean(file)

	if dir != "" {
		rel, err := filepath.Rel(dir, file)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			file = rel
		}
	}

	return filepath.ToSlash(file)
}
