package render

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/folio/ast"
	"github.com/ardnew/folio/data"
	"github.com/ardnew/folio/log"
	"github.com/ardnew/folio/tag"
)

// Serializer walks a node sequence left to right and accumulates its output.
// It holds no per-render state and is safe for concurrent use.
type Serializer struct {
	registry *tag.Registry
	env      any
	renderer tag.Renderer
	logger   log.Logger
}

// SerializerOption configures a [Serializer].
type SerializerOption func(*Serializer)

// SerializerEnvironment sets the ambient environment handed to tags.
func SerializerEnvironment(env any) SerializerOption {
	return func(s *Serializer) { s.env = env }
}

// SerializerRenderer sets the sub-render capability handed to tags.
func SerializerRenderer(r tag.Renderer) SerializerOption {
	return func(s *Serializer) { s.renderer = r }
}

// SerializerLogger sets the logger.
func SerializerLogger(l log.Logger) SerializerOption {
	return func(s *Serializer) { s.logger = l }
}

// NewSerializer returns a Serializer resolving tags in reg.
func NewSerializer(reg *tag.Registry, opts ...SerializerOption) *Serializer {
	s := &Serializer{registry: reg, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Serialize renders nodes against c. On failure no partial view is
// returned.
func (s *Serializer) Serialize(
	ctx context.Context,
	nodes []ast.Node,
	c data.Value,
) (View, error) {
	out, err := s.Walk(ctx, nodes, c)
	if err != nil {
		return nil, err
	}

	return View(out), nil
}

// Walk implements [tag.Walker].
func (s *Serializer) Walk(
	ctx context.Context,
	nodes []ast.Node,
	scope data.Value,
) ([]byte, error) {
	var (
		buf bytes.Buffer
		env = environment{value: scope}
	)

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch n := n.(type) {
		case *ast.Raw:
			buf.Write(n.Text)

		case *ast.Interpolation:
			v, err := env.eval(n.Expr)
			if err != nil {
				return nil, &tag.EvaluationError{Pos: n.Position, Err: err}
			}

			buf.WriteString(v.String())

		case *ast.Tag:
			v, err := s.invoke(ctx, n, &env)
			if err != nil {
				return nil, err
			}

			buf.WriteString(v.String())
		}
	}

	return buf.Bytes(), nil
}

// Args implements [tag.Walker].
func (s *Serializer) Args(
	_ context.Context,
	args []ast.Arg,
	scope data.Value,
) ([]data.Value, error) {
	env := environment{value: scope}

	return env.args(args)
}

func (s *Serializer) invoke(
	ctx context.Context,
	n *ast.Tag,
	env *environment,
) (data.Value, error) {
	h, ok := s.registry.Lookup(n.Name)
	if !ok {
		return data.Null(), &tag.UnknownError{Name: n.Name, Pos: n.Position}
	}

	args, err := env.args(n.Args)
	if err != nil {
		return data.Null(), &tag.EvaluationError{
			Name: n.Name,
			Pos:  n.Position,
			Err:  err,
		}
	}

	s.logger.TraceContext(
		ctx,
		"evaluate tag",
		slog.String("tag", n.Name),
		slog.String("pos", n.Position.String()),
		slog.Int("args", len(args)),
	)

	v, err := h.Evaluate(ctx, tag.NewContext(tag.Frame{
		Tag:         n,
		Args:        args,
		Scope:       env.value,
		Environment: s.env,
		Walker:      s,
		Renderer:    s.renderer,
	}))
	if err != nil {
		return data.Null(), attribute(n, err)
	}

	return v, nil
}

// attribute wraps a handler failure in an EvaluationError naming n, unless
// the failure already identifies the tag that caused it.
func attribute(n *ast.Tag, err error) error {
	var (
		unknown *tag.UnknownError
		eval    *tag.EvaluationError
	)

	switch {
	case errors.As(err, &unknown),
		errors.As(err, &eval),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return &tag.EvaluationError{Name: n.Name, Pos: n.Position, Err: err}
	}
}

// environment evaluates expressions against one scope. The native form of
// the scope is built on first use and shared by every expression of a walk.
type environment struct {
	value  data.Value
	native map[string]any
}

func (e *environment) vars() map[string]any {
	if e.native != nil {
		return e.native
	}

	// A dictionary scope exposes its keys as variables; any other scope is
	// reachable only as "self".
	switch self := e.value.Native().(type) {
	case map[string]any:
		e.native = self
	default:
		e.native = map[string]any{"self": self}
	}

	return e.native
}

func (e *environment) eval(x ast.Expr) (data.Value, error) {
	prog := x.Program
	if prog == nil {
		var err error
		if prog, err = compile(x.Source); err != nil {
			return data.Null(), err
		}
	}

	out, err := expr.Run(prog, e.vars())
	if err != nil {
		return data.Null(), err
	}

	return data.FromNative(out), nil
}

func (e *environment) args(args []ast.Arg) ([]data.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}

	vals := make([]data.Value, 0, len(args))

	for _, a := range args {
		v, err := e.eval(a.Expr)
		if err != nil {
			return nil, err
		}

		vals = append(vals, v)
	}

	return vals, nil
}

// compile handles expressions from parsers that leave Program unset.
func compile(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.AllowUndefinedVariables())
}
