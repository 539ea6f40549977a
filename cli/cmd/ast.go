package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/folio/ast"
)

// AST prints the parsed node tree of a template as YAML.
type AST struct {
	Path string `arg:"" help:"Template path, or '-' to read the template from stdin" name:"template"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, t *Template) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := t.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		raw   []byte
		label string
	)

	if a.Path == stdinSource {
		label = "<stdin>"
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, label, err = s.source(ctx, a.Path)
	}

	if err != nil {
		return ErrParse.Wrap(err).With(slog.String("template", a.Path))
	}

	nodes, err := s.parse(ctx, raw, label)
	if err != nil {
		return ErrParse.Wrap(err).With(slog.String("template", label))
	}

	return ast.Dump(ctx, stdout(ctx), nodes)
}
