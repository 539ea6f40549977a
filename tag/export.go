package tag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ardnew/folio/data"
)

// exports holds the blocks defined by one #extend body. A nested layout
// links to the table of the template that extended it; definitions nearer
// the root of that chain (the most derived template) win.
type exports struct {
	mu     sync.Mutex
	parent *exports
	blocks map[string]string
}

type exportsKey struct{}

func exportsFrom(ctx context.Context) *exports {
	t, _ := ctx.Value(exportsKey{}).(*exports)

	return t
}

func (t *exports) get(name string) (string, bool) {
	if t.parent != nil {
		if s, ok := t.parent.get(name); ok {
			return s, true
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.blocks[name]

	return s, ok
}

func (t *exports) set(name, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.blocks[name] = s
}

// evalExtend renders its body only to collect #export blocks, then renders
// the named layout with those blocks available to #import.
func evalExtend(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("extend", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	path, err := stringArg(c, 0)
	if err != nil {
		return data.Null(), err
	}

	table := &exports{parent: exportsFrom(ctx), blocks: map[string]string{}}
	ctx = context.WithValue(ctx, exportsKey{}, table)

	if _, err := c.Body(ctx, c.Data()); err != nil {
		return data.Null(), err
	}

	return include(ctx, c, path)
}

func evalExport(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("export", c.Len(), 1, 2); err != nil {
		return data.Null(), err
	}

	name, err := stringArg(c, 0)
	if err != nil {
		return data.Null(), err
	}

	table := exportsFrom(ctx)
	if table == nil {
		return data.Null(), ErrClause.With(
			slog.String("tag", "export"),
			slog.String("block", name),
		)
	}

	var v data.Value

	if c.Len() == 2 {
		v = c.Arg(1)
	} else {
		if !c.HasBody() {
			return data.Null(), ErrBody.With(slog.String("tag", "export"))
		}

		if v, err = body(ctx, c, c.Data()); err != nil {
			return data.Null(), err
		}
	}

	table.set(name, v.String())

	return data.Null(), nil
}

// evalImport writes an exported block, or its own body when the block was
// never exported.
func evalImport(ctx context.Context, c *Context) (data.Value, error) {
	if err := arity("import", c.Len(), 1); err != nil {
		return data.Null(), err
	}

	name, err := stringArg(c, 0)
	if err != nil {
		return data.Null(), err
	}

	if table := exportsFrom(ctx); table != nil {
		if s, ok := table.get(name); ok {
			return data.String(s), nil
		}
	}

	return body(ctx, c, c.Data())
}
