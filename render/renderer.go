package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/cache"
	"github.com/ardnew/folio/data"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/tag"
)

// Renderer defaults.
const (
	DefaultFileEnding = ".tpl"
	DefaultMaxDepth   = 16
)

// Renderer parses, caches, and serializes templates. It is safe for
// concurrent use; the cache and registry are its only shared state.
type Renderer struct {
	parser     ast.Parser
	registry   *tag.Registry
	cache      cache.Store
	cached     bool
	fileEnding string
	directory  string
	loader     Loader
	encoder    data.Encoder
	env        any
	logger     log.Logger
	maxDepth   int

	serializer *Serializer
	group      singleflight.Group
}

// New returns a Renderer using parser and the given options.
func New(parser ast.Parser, opts ...Option) *Renderer {
	r := &Renderer{
		parser:     parser,
		registry:   tag.Default(),
		cache:      cache.NewMemory(),
		cached:     true,
		fileEnding: DefaultFileEnding,
		loader:     FileLoader{},
		encoder:    data.YAMLEncoder{},
		logger:     log.Default(),
		maxDepth:   DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.serializer = NewSerializer(
		r.registry,
		SerializerEnvironment(r.env),
		SerializerRenderer(r),
		SerializerLogger(r.logger),
	)

	return r
}

// Registry returns the tag registry.
func (r *Renderer) Registry() *tag.Registry { return r.registry }

// Cache returns the AST cache.
func (r *Renderer) Cache() cache.Store { return r.cache }

// Resolve returns the location a template path is loaded from: the file
// ending is appended if absent, and relative paths are joined to the base
// directory.
func (r *Renderer) Resolve(path string) string {
	if r.fileEnding != "" && !strings.HasSuffix(path, r.fileEnding) {
		path += r.fileEnding
	}

	if r.directory != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.directory, path)
	}

	return path
}

// Render renders the template at path against a Null Context Value.
func (r *Renderer) Render(ctx context.Context, path string) (View, error) {
	return r.RenderPath(ctx, path, data.Null())
}

// RenderPath loads the template at path and renders it against c.
// A load failure is reported as [*NotFoundError] carrying the resolved path.
func (r *Renderer) RenderPath(
	ctx context.Context,
	path string,
	c data.Value,
) (View, error) {
	abs := r.Resolve(path)

	raw, err := r.loader.Load(ctx, abs)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		r.logger.DebugContext(
			ctx,
			"template not found",
			slog.String("path", abs),
			slog.Any("error", err),
		)

		return nil, &NotFoundError{Path: abs, Err: err}
	}

	return r.RenderBytes(ctx, raw, c, abs)
}

// RenderBytes renders template bytes against c. The source label names the
// template in diagnostics only.
func (r *Renderer) RenderBytes(
	ctx context.Context,
	raw []byte,
	c data.Value,
	source string,
) (View, error) {
	nodes, err := r.nodes(ctx, raw, source)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	view, err := r.serializer.Serialize(ctx, nodes, c)
	if err != nil {
		r.logger.DebugContext(
			ctx,
			"render failed",
			slog.String("source", source),
			slog.Any("error", err),
		)

		return nil, err
	}

	r.logger.DebugContext(
		ctx,
		"rendered",
		slog.String("source", source),
		slog.Int("bytes", len(view)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return view, nil
}

// RenderPathObject encodes obj and renders the template at path against it.
func (r *Renderer) RenderPathObject(
	ctx context.Context,
	path string,
	obj any,
) (View, error) {
	c, err := r.Encode(ctx, obj)
	if err != nil {
		return nil, err
	}

	return r.RenderPath(ctx, path, c)
}

// RenderBytesObject encodes obj and renders raw against it.
func (r *Renderer) RenderBytesObject(
	ctx context.Context,
	raw []byte,
	obj any,
	source string,
) (View, error) {
	c, err := r.Encode(ctx, obj)
	if err != nil {
		return nil, err
	}

	return r.RenderBytes(ctx, raw, c, source)
}

// Encode converts obj into a Context Value with the configured encoder.
// Failures are reported as [*data.EncodingError].
func (r *Renderer) Encode(ctx context.Context, obj any) (data.Value, error) {
	v, err := r.encoder.Encode(data.WithEnvironment(ctx, r.env), obj)
	if err != nil {
		if !errors.Is(err, data.ErrEncoding) {
			err = &data.EncodingError{Type: fmt.Sprintf("%T", obj), Err: err}
		}

		return data.Null(), err
	}

	return v, nil
}

type depthKey struct{}

// Include implements [tag.Renderer] for tags that render other templates.
// The nesting depth travels in ctx and is bounded by the configured maximum.
func (r *Renderer) Include(
	ctx context.Context,
	path string,
	scope data.Value,
) ([]byte, error) {
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= r.maxDepth {
		return nil, ErrMaxDepthExceeded.With(
			slog.String("path", path),
			slog.Int("max_depth", r.maxDepth),
		)
	}

	view, err := r.RenderPath(context.WithValue(ctx, depthKey{}, depth+1), path, scope)
	if err != nil {
		return nil, err
	}

	return view, nil
}

// nodes returns the parsed form of raw, from the cache when possible.
// Concurrent misses for the same bytes share one parse.
func (r *Renderer) nodes(
	ctx context.Context,
	raw []byte,
	source string,
) ([]ast.Node, error) {
	key := cache.Fingerprint(raw)

	if e, ok := r.cache.Get(key); ok {
		if e.Matches(raw) {
			r.logger.TraceContext(
				ctx,
				"cache hit",
				slog.String("source", source),
				slog.String("key", key.String()),
			)

			return e.Nodes, nil
		}

		r.logger.WarnContext(
			ctx,
			"cache fingerprint collision",
			slog.String("source", source),
			slog.String("key", key.String()),
		)
	}

	if !r.cached {
		return r.parse(ctx, raw, source)
	}

	r.logger.TraceContext(
		ctx,
		"cache miss",
		slog.String("source", source),
		slog.String("key", key.String()),
	)

	v, err, shared := r.group.Do(key.String(), func() (any, error) {
		e := cache.Entry{Source: raw}

		nodes, err := r.parse(ctx, raw, source)
		if err != nil {
			return e, err
		}

		e.Nodes = nodes
		r.cache.Put(key, e)

		return e, nil
	})

	e, _ := v.(cache.Entry)

	if !shared {
		if err != nil {
			return nil, err
		}

		return e.Nodes, nil
	}

	switch {
	case !e.Matches(raw):
	case err == nil:
		return e.Nodes, nil
	case ctx.Err() != nil || !isContextErr(err):
		return nil, err
	}

	// The shared result belonged to other bytes, or to a caller whose
	// context ended first.
	return r.parse(ctx, raw, source)
}

func (r *Renderer) parse(
	ctx context.Context,
	raw []byte,
	source string,
) ([]ast.Node, error) {
	start := time.Now()

	nodes, err := r.parser.Parse(ctx, ast.NewScanner(raw, source))
	if err != nil {
		r.logger.DebugContext(
			ctx,
			"parse failed",
			slog.String("source", source),
			slog.Any("error", err),
		)

		return nil, err
	}

	r.logger.TraceContext(
		ctx,
		"parsed",
		slog.String("source", source),
		slog.Int("nodes", len(nodes)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return nodes, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
