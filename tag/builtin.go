package tag

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ardnew/folio/data"
)

// Builtins returns a fresh map of the default handlers.
func Builtins() map[string]Handler {
	return map[string]Handler{
		"if":          HandlerFunc(evalIf),
		"elseif":      HandlerFunc(evalClause),
		"else":        HandlerFunc(evalClause),
		"unless":      HandlerFunc(evalUnless),
		"for":         HandlerFunc(evalFor),
		"count":       HandlerFunc(evalCount),
		"contains":    HandlerFunc(evalContains),
		"isEmpty":     HandlerFunc(evalIsEmpty),
		"lowercased":  textFunc(strings.ToLower),
		"uppercased":  textFunc(strings.ToUpper),
		"capitalized": textFunc(capitalize),
		"escape":      textFunc(html.EscapeString),
		"sanitize":    textFunc(sanitize),
		"date":        HandlerFunc(evalDate),
		"dumpContext": HandlerFunc(evalDumpContext),
		"raw":         HandlerFunc(evalRaw),
		"include":     HandlerFunc(evalInclude),
		"extend":      HandlerFunc(evalExtend),
		"export":      HandlerFunc(evalExport),
		"import":      HandlerFunc(evalImport),
	}
}

// now is replaced in tests.
var now = time.Now

var ugcPolicy = sync.OnceValue(bluemonday.UGCPolicy)

func sanitize(s string) string { return ugcPolicy().Sanitize(s) }

func body(ctx context.Context, c *Context, scope data.Value) (data.Value, error) {
	out, err := c.Body(ctx, scope)
	if err != nil {
		return data.Null(), err
	}

	return data.String(string(out)), nil
}

func evalIf(ctx context.Context, c *Context) (data.Value, error) {
	return branch(ctx, c, false)
}

func evalUnless(ctx context.Context, c *Context) (data.Value, error) {
	return branch(ctx, c, true)
}

// branch renders the body of the first clause whose condition holds.
func branch(ctx context.Context, c *Context, negate bool) (data.Value, error) {
	if !c.HasBody() {
		return data.Null(), ErrBody.With(slog.String("tag", c.Name()))
	}

	for cl := c; cl != nil; {
		var take bool

		if cl.Name() == "else" {
			if err := arity("else", cl.Len(), 0); err != nil {
				return data.Null(), err
			}

			take = true
		} else {
			if err := arity(cl.Name(), cl.Len(), 1); err != nil {
				return data.Null(), err
			}

			take = cl.Arg(0).Truthy()
			if negate && cl == c {
				take = !take
			}
		}

		if take {
			return body(ctx, cl, cl.Data())
		}

		next, err := cl.Next(ctx)
		if err != nil {
			return data.Null(), err
		}

		cl = next
	}

	return data.Null(), nil
}

func evalClause(_ context.Context, c *Context) (data.Value, error) {
	return data.Null(), ErrClause.With(slog.String("tag", c.Name()))
}

func evalFor(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("for", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	if !c.HasBody() {
		return data.Null(), ErrBody.With(slog.String("tag", "for"))
	}

	name := c.Binding(0)
	if name == "" {
		name = "item"
	}

	var (
		coll  = c.Arg(0)
		items []data.Value
		keys  []string
	)

	switch coll.Kind() {
	case data.KindArray:
		items, _ = coll.AsArray()

	case data.KindDictionary:
		keys = coll.Keys()
		for _, k := range keys {
			v, _ := coll.Key(k)
			items = append(items, v)
		}

	case data.KindNull:

	default:
		return data.Null(), ErrArgument.Wrap(
			fmt.Errorf("cannot iterate over %s", coll.Kind()),
		)
	}

	if len(items) == 0 {
		next, err := c.Next(ctx)
		if err != nil || next == nil {
			return data.Null(), err
		}

		return body(ctx, next, c.Data())
	}

	var sb strings.Builder

	for i, item := range items {
		bind := map[string]data.Value{
			name:      item,
			"index":   data.Int(int64(i)),
			"isFirst": data.Bool(i == 0),
			"isLast":  data.Bool(i == len(items)-1),
		}
		if keys != nil {
			bind["key"] = data.String(keys[i])
		}

		out, err := c.Body(ctx, c.Data().Merge(data.Dictionary(bind)))
		if err != nil {
			return data.Null(), err
		}

		sb.Write(out)
	}

	return data.String(sb.String()), nil
}

func evalCount(_ context.Context, c *Context) (data.Value, error) {
	if err := arity("count", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	switch v := c.Arg(0); v.Kind() {
	case data.KindArray, data.KindDictionary, data.KindString:
		return data.Int(int64(v.Len())), nil
	default:
		return data.Null(), ErrArgument.Wrap(
			fmt.Errorf("cannot count %s", v.Kind()),
		)
	}
}

func evalContains(_ context.Context, c *Context) (data.Value, error) {
	if err := arity("contains", c.Len(), 2); err != nil {
		return data.Null(), err
	}

	coll, elem := c.Arg(0), c.Arg(1)

	switch coll.Kind() {
	case data.KindArray:
		items, _ := coll.AsArray()

		return data.Bool(slices.ContainsFunc(items, elem.Equal)), nil

	case data.KindDictionary:
		_, ok := coll.Key(elem.String())

		return data.Bool(ok), nil

	case data.KindString:
		s, _ := coll.AsString()

		return data.Bool(strings.Contains(s, elem.String())), nil

	case data.KindNull:
		return data.Bool(false), nil

	default:
		return data.Null(), ErrArgument.Wrap(
			fmt.Errorf("cannot search %s", coll.Kind()),
		)
	}
}

func evalIsEmpty(_ context.Context, c *Context) (data.Value, error) {
	if err := arity("isEmpty", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	switch v := c.Arg(0); v.Kind() {
	case data.KindNull:
		return data.Bool(true), nil
	case data.KindArray, data.KindDictionary, data.KindString:
		return data.Bool(v.Len() == 0), nil
	default:
		return data.Bool(false), nil
	}
}

// textFunc returns a handler applying fn to its single argument, or to its
// rendered body when called without arguments.
func textFunc(fn func(string) string) HandlerFunc {
	return func(ctx context.Context, c *Context) (data.Value, error) {
		switch {
		case c.Len() == 1:
			return data.String(fn(c.Arg(0).String())), nil

		case c.Len() == 0 && c.HasBody():
			out, err := c.Body(ctx, c.Data())
			if err != nil {
				return data.Null(), err
			}

			return data.String(fn(string(out))), nil

		default:
			return data.Null(), arity(c.Name(), c.Len(), 1)
		}
	}
}

func capitalize(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	start := true

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			start = true

			sb.WriteRune(r)
		case start:
			start = false

			sb.WriteRune(unicode.ToTitle(r))
		default:
			sb.WriteRune(unicode.ToLower(r))
		}
	}

	return sb.String()
}

// evalDate formats a time, RFC 3339 unless a layout is given. With no
// arguments it formats the current time, so its output varies between
// otherwise identical renders.
func evalDate(_ context.Context, c *Context) (data.Value, error) {
	if err := arity("date", c.Len(), 0, 1, 2); err != nil {
		return data.Null(), err
	}

	t := now().UTC()

	if c.Len() > 0 {
		var err error
		if t, err = toTime(c.Arg(0)); err != nil {
			return data.Null(), err
		}
	}

	layout := time.RFC3339

	if c.Len() == 2 {
		s, ok := c.Arg(1).AsString()
		if !ok {
			return data.Null(), ErrArgument.Wrap(
				fmt.Errorf("date layout must be a string, not %s", c.Arg(1).Kind()),
			)
		}

		layout = s
	}

	return data.String(t.Format(layout)), nil
}

func toTime(v data.Value) (time.Time, error) {
	switch v.Kind() {
	case data.KindInt:
		i, _ := v.AsInt()

		return time.Unix(i, 0).UTC(), nil

	case data.KindFloat:
		f, _ := v.AsFloat()

		return time.UnixMilli(int64(f * 1000)).UTC(), nil

	case data.KindString:
		s, _ := v.AsString()

		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, ErrArgument.Wrap(err)
		}

		return t, nil

	case data.KindVariable:
		p, _ := v.Variable()

		switch t := p.(type) {
		case time.Time:
			return t, nil
		case *time.Time:
			if t != nil {
				return *t, nil
			}
		}
	}

	return time.Time{}, ErrArgument.Wrap(
		fmt.Errorf("cannot convert %s to a date", v.Kind()),
	)
}

func evalDumpContext(_ context.Context, c *Context) (data.Value, error) {
	if err := arity("dumpContext", c.Len(), 0, 1); err != nil {
		return data.Null(), err
	}

	v := c.Data()

	if c.Len() == 1 {
		path, ok := c.Arg(0).AsString()
		if !ok {
			return data.Null(), ErrArgument.Wrap(
				fmt.Errorf("path must be a string, not %s", c.Arg(0).Kind()),
			)
		}

		v, _ = c.Lookup(path)
	}

	return data.String(v.String()), nil
}

func evalRaw(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("raw", c.Len(), 0, 1); err != nil {
		return data.Null(), err
	}

	if c.Len() == 1 {
		return data.String(c.Arg(0).String()), nil
	}

	return body(ctx, c, c.Data())
}

func stringArg(c *Context, i int) (string, error) {
	s, ok := c.Arg(i).AsString()
	if !ok {
		return "", ErrArgument.Wrap(fmt.Errorf(
			"#%s argument %d must be a string, not %s",
			c.Name(), i+1, c.Arg(i).Kind(),
		))
	}

	return s, nil
}

func include(ctx context.Context, c *Context, path string) (data.Value, error) {
	r := c.Renderer()
	if r == nil {
		return data.Null(), ErrNoRenderer.With(slog.String("path", path))
	}

	out, err := r.Include(ctx, path, c.Data())
	if err != nil {
		return data.Null(), err
	}

	return data.String(string(out)), nil
}

func evalInclude(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("include", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	path, err := stringArg(c, 0)
	if err != nil {
		return data.Null(), err
	}

	return include(ctx, c, path)
}
