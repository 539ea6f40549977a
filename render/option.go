package render

import (
	"github.com/ardnew/folio/cache"
	"github.com/ardnew/folio/data"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/tag"
)

// Option configures a [Renderer].
type Option func(*Renderer)

// WithRegistry sets the tag registry. The default is [tag.Default].
func WithRegistry(reg *tag.Registry) Option {
	return func(r *Renderer) { r.registry = reg }
}

// WithCache sets the AST cache. A nil store disables caching.
func WithCache(c cache.Store) Option {
	return func(r *Renderer) {
		r.cache, r.cached = c, c != nil
		if c == nil {
			r.cache = cache.Disabled()
		}
	}
}

// WithFileEnding sets the suffix appended to paths that lack it.
func WithFileEnding(ending string) Option {
	return func(r *Renderer) { r.fileEnding = ending }
}

// WithDirectory sets the base directory of relative paths.
func WithDirectory(dir string) Option {
	return func(r *Renderer) { r.directory = dir }
}

// WithLoader sets the template loader. The default is [FileLoader].
func WithLoader(l Loader) Option {
	return func(r *Renderer) {
		if l != nil {
			r.loader = l
		}
	}
}

// WithEncoder sets the object encoder. The default is [data.YAMLEncoder].
func WithEncoder(e data.Encoder) Option {
	return func(r *Renderer) {
		if e != nil {
			r.encoder = e
		}
	}
}

// WithEnvironment sets the ambient environment passed through to tag
// handlers and encoders. The renderer never inspects it.
func WithEnvironment(env any) Option {
	return func(r *Renderer) { r.env = env }
}

// WithLogger sets the logger. The default is [log.Default] at creation.
func WithLogger(l log.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithMaxDepth bounds nested sub-renders. Zero forbids them; a negative
// value restores [DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n < 0 {
			n = DefaultMaxDepth
		}

		r.maxDepth = n
	}
}
