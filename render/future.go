package render

import (
	"context"
	"fmt"

	"github.com/ardnew/folio/data"
)

// Future is a value that becomes available once. Errors resolve through the
// same channel as values.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine and returns a Future of its result. A panic
// in fn resolves the Future with an error matching [ErrPanic].
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		defer func() {
			if p := recover(); p != nil {
				f.err = ErrPanic.Wrap(fmt.Errorf("%v", p))
			}
		}()

		f.val, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns a Future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v, err: err}
	close(f.done)

	return f
}

// Then returns a Future of fn applied to the result of f. An error from f
// skips fn.
func Then[T, U any](
	ctx context.Context,
	f *Future[T],
	fn func(context.Context, T) (U, error),
) *Future[U] {
	return Go(ctx, func(ctx context.Context) (U, error) {
		v, err := f.Await(ctx)
		if err != nil {
			var zero U

			return zero, err
		}

		return fn(ctx, v)
	})
}

// Done returns a channel closed when the Future resolves.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the Future resolves or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// RenderAsync is the asynchronous form of [Renderer.Render].
func (r *Renderer) RenderAsync(ctx context.Context, path string) *Future[View] {
	return Go(ctx, func(ctx context.Context) (View, error) {
		return r.Render(ctx, path)
	})
}

// RenderPathAsync is the asynchronous form of [Renderer.RenderPath].
func (r *Renderer) RenderPathAsync(
	ctx context.Context,
	path string,
	c data.Value,
) *Future[View] {
	return Go(ctx, func(ctx context.Context) (View, error) {
		return r.RenderPath(ctx, path, c)
	})
}

// RenderBytesAsync is the asynchronous form of [Renderer.RenderBytes].
func (r *Renderer) RenderBytesAsync(
	ctx context.Context,
	raw []byte,
	c data.Value,
	source string,
) *Future[View] {
	return Go(ctx, func(ctx context.Context) (View, error) {
		return r.RenderBytes(ctx, raw, c, source)
	})
}

// EncodeAsync is the asynchronous form of [Renderer.Encode].
func (r *Renderer) EncodeAsync(ctx context.Context, obj any) *Future[data.Value] {
	return Go(ctx, func(ctx context.Context) (data.Value, error) {
		return r.Encode(ctx, obj)
	})
}

// RenderPathObjectAsync encodes obj and then renders the template at path,
// chaining the two steps.
func (r *Renderer) RenderPathObjectAsync(
	ctx context.Context,
	path string,
	obj any,
) *Future[View] {
	return Then(ctx, r.EncodeAsync(ctx, obj),
		func(ctx context.Context, c data.Value) (View, error) {
			return r.RenderPath(ctx, path, c)
		})
}

// RenderBytesObjectAsync encodes obj and then renders raw, chaining the two
// steps.
func (r *Renderer) RenderBytesObjectAsync(
	ctx context.Context,
	raw []byte,
	obj any,
	source string,
) *Future[View] {
	return Then(ctx, r.EncodeAsync(ctx, obj),
		func(ctx context.Context, c data.Value) (View, error) {
			return r.RenderBytes(ctx, raw, c, source)
		})
}
