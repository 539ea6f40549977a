package tag

import (
	"context"
	"maps"
	"slices"

	"github.com/ardnew/folio/data"
)

// Handler evaluates one tag invocation.
//
// Handlers must be stateless with respect to a single render: any state a
// tag needs travels through its [Context] or the ambient environment.
type Handler interface {
	Evaluate(ctx context.Context, c *Context) (data.Value, error)
}

// HandlerFunc adapts a function to the [Handler] interface.
type HandlerFunc func(ctx context.Context, c *Context) (data.Value, error)

// Evaluate implements [Handler].
func (f HandlerFunc) Evaluate(ctx context.Context, c *Context) (data.Value, error) {
	return f(ctx, c)
}

// Registry maps tag names to handlers. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a Registry holding a copy of handlers.
func NewRegistry(handlers map[string]Handler) *Registry {
	m := maps.Clone(handlers)
	if m == nil {
		m = map[string]Handler{}
	}

	return &Registry{handlers: m}
}

// Default returns a Registry of the [Builtins].
func Default() *Registry { return NewRegistry(Builtins()) }

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	if r == nil {
		return nil, false
	}

	h, ok := r.handlers[name]

	return h, ok
}

// With returns a new Registry with h registered under name, replacing any
// existing handler of that name. The receiver is unchanged.
func (r *Registry) With(name string, h Handler) *Registry {
	var m map[string]Handler
	if r != nil {
		m = maps.Clone(r.handlers)
	}

	if m == nil {
		m = make(map[string]Handler, 1)
	}

	m[name] = h

	return &Registry{handlers: m}
}

// Names returns the registered tag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(r.handlers))
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.handlers)
}
