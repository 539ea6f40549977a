package tag

import (
	"context"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/data"
)

// Walker serializes node sequences and evaluates tag arguments on behalf of
// a [Context].
type Walker interface {
	Walk(ctx context.Context, nodes []ast.Node, scope data.Value) ([]byte, error)
	Args(ctx context.Context, args []ast.Arg, scope data.Value) ([]data.Value, error)
}

// Renderer renders another template by path.
type Renderer interface {
	Include(ctx context.Context, path string, scope data.Value) ([]byte, error)
}

// Frame holds everything needed to build a [Context].
type Frame struct {
	Tag         *ast.Tag
	Args        []data.Value
	Scope       data.Value
	Environment any
	Walker      Walker
	Renderer    Renderer
}

// Context describes one tag invocation.
type Context struct {
	f Frame
}

// NewContext returns the Context for f.
func NewContext(f Frame) *Context { return &Context{f: f} }

// Name returns the tag name.
func (c *Context) Name() string { return c.f.Tag.Name }

// Pos returns the position of the tag in its source.
func (c *Context) Pos() ast.Position { return c.f.Tag.Position }

// Args returns the evaluated arguments.
func (c *Context) Args() []data.Value {
	return append([]data.Value(nil), c.f.Args...)
}

// Len returns the number of arguments.
func (c *Context) Len() int { return len(c.f.Args) }

// Arg returns argument i, or Null if there is none.
func (c *Context) Arg(i int) data.Value {
	if i < 0 || i >= len(c.f.Args) {
		return data.Null()
	}

	return c.f.Args[i]
}

// Binding returns the name bound by argument i ("item" in "item in items"),
// or the empty string.
func (c *Context) Binding(i int) string {
	if i < 0 || i >= len(c.f.Tag.Args) {
		return ""
	}

	return c.f.Tag.Args[i].Name
}

// Data returns the current Context Value.
func (c *Context) Data() data.Value { return c.f.Scope }

// Lookup resolves a dotted or indexed path in the current Context Value.
func (c *Context) Lookup(path string) (data.Value, bool) {
	return c.f.Scope.Lookup(path)
}

// HasBody reports whether the tag wraps child content.
func (c *Context) HasBody() bool { return c.f.Tag.HasBody() }

// Body serializes the tag's body against scope. It may be called any number
// of times, or not at all. A tag without a body renders nothing.
func (c *Context) Body(ctx context.Context, scope data.Value) ([]byte, error) {
	if !c.HasBody() || c.f.Walker == nil {
		return nil, nil
	}

	return c.f.Walker.Walk(ctx, c.f.Tag.Body, scope)
}

// Next returns the Context of the chained clause that follows this one, with
// its arguments evaluated against the current scope, or nil at the end of
// the chain.
func (c *Context) Next(ctx context.Context) (*Context, error) {
	next := c.f.Tag.Next
	if next == nil {
		return nil, nil
	}

	f := c.f
	f.Tag = next
	f.Args = nil

	if len(next.Args) > 0 {
		if f.Walker == nil {
			return nil, ErrNoRenderer
		}

		args, err := f.Walker.Args(ctx, next.Args, f.Scope)
		if err != nil {
			return nil, err
		}

		f.Args = args
	}

	return &Context{f: f}, nil
}

// Environment returns the ambient environment configured on the renderer.
func (c *Context) Environment() any { return c.f.Environment }

// Renderer returns the sub-render capability, or nil.
func (c *Context) Renderer() Renderer { return c.f.Renderer }
