package data

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/folio/pkg"
)

// ErrEncoding is the sentinel matched by every [EncodingError].
var ErrEncoding = pkg.NewError("context encoding failed")

// EncodingError reports that an object could not be converted to a [Value].
type EncodingError struct {
	Type string // Go type of the rejected object
	Err  error
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	msg := ErrEncoding.Error() + " (" + e.Type + ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *EncodingError) Unwrap() error { return e.Err }

// Is matches [ErrEncoding].
func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// LogValue implements slog.LogValuer.
func (e *EncodingError) LogValue() slog.Value {
	return ErrEncoding.Wrap(e.Err).With(slog.String("type", e.Type)).LogValue()
}

// Encodable is implemented by types that know their own Context Value.
type Encodable interface {
	ContextValue() (Value, error)
}

// Encoder converts arbitrary objects into a Context Value.
type Encoder interface {
	Encode(ctx context.Context, obj any) (Value, error)
}

// EncoderFunc adapts a function to the [Encoder] interface.
type EncoderFunc func(ctx context.Context, obj any) (Value, error)

// Encode implements [Encoder].
func (f EncoderFunc) Encode(ctx context.Context, obj any) (Value, error) {
	return f(ctx, obj)
}

// YAMLEncoder is the default [Encoder].
//
// Values and [Encodable] implementations are used directly. Plain Go data
// (scalars, slices, string-keyed maps) is converted with [FromNative].
// Anything else, typically a struct or a pointer to one, is marshalled to
// YAML and decoded back into generic data, so `yaml` (and `json`) struct
// tags control the resulting keys.
type YAMLEncoder struct{}

// Encode implements [Encoder].
func (YAMLEncoder) Encode(ctx context.Context, obj any) (Value, error) {
	switch t := obj.(type) {
	case Value:
		return t, nil
	case Encodable:
		v, err := t.ContextValue()
		if err != nil {
			return Null(), &EncodingError{Type: typeName(obj), Err: err}
		}

		return v, nil
	}

	if isPlain(reflect.ValueOf(obj)) {
		return FromNative(obj), nil
	}

	b, err := yaml.MarshalContext(ctx, obj)
	if err != nil {
		return Null(), &EncodingError{Type: typeName(obj), Err: err}
	}

	var generic any
	if err := yaml.UnmarshalContext(ctx, b, &generic); err != nil {
		return Null(), &EncodingError{Type: typeName(obj), Err: err}
	}

	return FromNative(generic), nil
}

// Decode parses YAML (or JSON, which is a subset) into a Value.
func Decode(ctx context.Context, src []byte) (Value, error) {
	var generic any
	if err := yaml.UnmarshalContext(ctx, src, &generic); err != nil {
		return Null(), &EncodingError{Type: "yaml", Err: err}
	}

	return FromNative(generic), nil
}

var valueType = reflect.TypeFor[Value]()

// isPlain reports whether rv is made only of kinds FromNative converts
// structurally.
func isPlain(rv reflect.Value) bool {
	if rv.IsValid() && rv.Type() == valueType {
		return true
	}

	switch rv.Kind() {
	case reflect.Invalid, reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return rv.IsNil() || isPlain(rv.Elem())
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if !isPlain(rv.Index(i)) {
				return false
			}
		}

		return true
	case reflect.Map:
		keyKind := rv.Type().Key().Kind()
		if keyKind != reflect.String && keyKind != reflect.Interface {
			return false
		}

		iter := rv.MapRange()
		for iter.Next() {
			if !isPlain(iter.Value()) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func typeName(obj any) string {
	if obj == nil {
		return "nil"
	}

	return reflect.TypeOf(obj).String()
}

type environmentKey struct{}

// WithEnvironment returns a copy of ctx carrying the ambient environment
// handed to encoders.
func WithEnvironment(ctx context.Context, env any) context.Context {
	return context.WithValue(ctx, environmentKey{}, env)
}

// Environment returns the ambient environment carried by ctx, or nil.
func Environment(ctx context.Context) any {
	return ctx.Value(environmentKey{})
}
