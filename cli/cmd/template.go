package cmd

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/render"
	"github.com/ardnew/folio/syntax"
)

// Template holds the flags shared by every command that loads templates.
// Its defaults come from [render.Config], so FOLIO_* variables apply unless
// a flag or configuration file overrides them.
type Template struct {
	Dir      string `default:"${templateDir}"      help:"Template base directory"                  short:"C" type:"path"`
	Ending   string `default:"${templateEnding}"   help:"Template file ending"`
	Cache    bool   `default:"${templateCache}"    help:"Cache parsed templates"                             negatable:""`
	MaxDepth int    `default:"${templateMaxDepth}" help:"Maximum include depth"`
	DB       string `                              help:"Load templates from a SQLite database"  placeholder:"FILE" type:"path"`
	Table    string `default:"${templateTable}"    help:"Database table holding templates"`
}

// TemplateVars returns the kong variables providing [Template] defaults.
func TemplateVars(c render.Config) kong.Vars {
	return kong.Vars{
		"templateDir":      c.Directory,
		"templateEnding":   c.FileEnding,
		"templateCache":    strconv.FormatBool(c.Cache),
		"templateMaxDepth": strconv.Itoa(c.MaxDepth),
		"templateTable":    render.DefaultTable,
	}
}

// Config returns the renderer configuration selected by the flags.
func (t *Template) Config() render.Config {
	c := render.Config{
		Directory:  t.Dir,
		FileEnding: t.Ending,
		Cache:      t.Cache,
		MaxDepth:   t.MaxDepth,
	}

	// Database keys are resolved without the base directory.
	if t.DB != "" {
		c.Directory = ""
	}

	return c
}

// session is an open renderer together with the resources backing it.
type session struct {
	renderer *render.Renderer
	loader   render.Loader
	parser   ast.Parser
	db       *sql.DB
	sql      *render.SQLLoader
}

// open returns a session rendering with the flags in t.
func (t *Template) open(ctx context.Context, opts ...render.Option) (*session, error) {
	s := &session{
		loader: render.FileLoader{},
		parser: syntax.New(),
	}

	if t.DB != "" {
		db, err := sql.Open(driverName, t.DB)
		if err != nil {
			return nil, ErrDatabase.Wrap(err).With(slog.String("file", t.DB))
		}

		s.db = db
		s.sql = &render.SQLLoader{DB: db, Table: t.Table}

		if err := s.sql.Init(ctx); err != nil {
			_ = db.Close()

			return nil, ErrDatabase.Wrap(err).With(slog.String("file", t.DB))
		}

		s.loader = s.sql
	}

	log.TraceContext(ctx, "open templates",
		slog.String("dir", t.Dir),
		slog.String("ending", t.Ending),
		slog.Bool("cache", t.Cache),
		slog.String("db", t.DB),
	)

	s.renderer = render.NewFromConfig(
		s.parser,
		t.Config(),
		append([]render.Option{
			render.WithLoader(s.loader),
			render.WithLogger(log.Default()),
		}, opts...)...,
	)

	return s, nil
}

// Close releases the database, if any.
func (s *session) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

// source loads the raw template at path, resolved the way the renderer
// resolves it.
func (s *session) source(ctx context.Context, path string) ([]byte, string, error) {
	abs := s.renderer.Resolve(path)

	raw, err := s.loader.Load(ctx, abs)
	if err != nil {
		return nil, abs, &render.NotFoundError{Path: abs, Err: err}
	}

	return raw, abs, nil
}

// parse parses raw with the session parser.
func (s *session) parse(ctx context.Context, raw []byte, label string) ([]ast.Node, error) {
	return s.parser.Parse(ctx, ast.NewScanner(raw, label))
}

// paths lists the templates available to the session.
func (s *session) paths(ctx context.Context, t *Template) ([]string, error) {
	if s.sql != nil {
		return s.sql.Paths(ctx)
	}

	var paths []string

	err := filepath.WalkDir(t.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, t.Ending) {
			return nil
		}

		rel, err := filepath.Rel(t.Dir, path)
		if err != nil {
			return err
		}

		paths = append(paths, filepath.ToSlash(rel))

		return nil
	})

	return paths, err
}

// stdout returns the writer the kong context prints to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}
