package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"

	"github.com/ardnew/folio/render"
)

// Render renders a template against the context data files.
type Render struct {
	Path   string `arg:"" help:"Template path, or '-' to read the template from stdin" name:"template"`
	Output string `       help:"Write the view to file instead of stdout"                                 placeholder:"FILE" short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context, t *Template) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if r.Path == stdinSource {
		if src := sourceFilesFrom(ctx); src != nil && src.Stdin() != nil {
			return ErrStdin
		}
	}

	c, err := contextValue(ctx)
	if err != nil {
		return err
	}

	s, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var view render.View

	if r.Path == stdinSource {
		raw, rerr := io.ReadAll(os.Stdin)
		if rerr != nil {
			return ErrRender.Wrap(rerr).With(slog.String("template", r.Path))
		}

		view, err = s.renderer.RenderBytes(ctx, raw, c, "<stdin>")
	} else {
		view, err = s.renderer.RenderPath(ctx, r.Path, c)
	}

	if err != nil {
		return ErrRender.Wrap(err).With(slog.String("template", r.Path))
	}

	return writeView(ctx, r.Output, view)
}

// writeView writes view to stdout, or atomically replaces the file at path.
func writeView(ctx context.Context, path string, view render.View) error {
	if path == "" || path == stdinSource {
		_, err := view.WriteTo(stdout(ctx))

		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(view)); err != nil {
		return ErrWrite.Wrap(err).With(slog.String("file", path))
	}

	return nil
}
