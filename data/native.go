package data

import (
	"fmt"
	"reflect"
	"time"
)

// Native converts v to plain Go values: nil, bool, int, float64, string,
// []any, map[string]any, or the opaque payload of a Variable.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.a))
		for i, e := range v.a {
			out[i] = e.Native()
		}

		return out
	case KindDictionary:
		out := make(map[string]any, len(v.d))
		for k, e := range v.d {
			out[k] = e.Native()
		}

		return out
	case KindVariable:
		return v.v
	default:
		return nil
	}
}

// FromNative converts a plain Go value to a Value.
//
// Booleans, all integer and float kinds, strings, byte slices, slices,
// arrays, and maps keyed by strings are converted structurally. Any other
// value (structs, pointers, channels, ...) becomes a Variable; use an
// [Encoder] to convert structured objects.
func FromNative(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []byte:
		return String(string(t))
	case time.Time:
		return Variable(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromNative(e)
		}

		return Value{kind: KindArray, a: out}
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromNative(e)
		}

		return Value{kind: KindDictionary, d: out}
	}

	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return Int(int64(rv.Uint())) //nolint:gosec // overflow wraps, as strconv would
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return Null()
		}

		fallthrough
	case reflect.Array:
		out := make([]Value, rv.Len())
		for i := range out {
			out[i] = FromNative(rv.Index(i).Interface())
		}

		return Value{kind: KindArray, a: out}
	case reflect.Map:
		keyKind := rv.Type().Key().Kind()
		if keyKind != reflect.String && keyKind != reflect.Interface {
			break
		}

		if rv.IsNil() {
			return Null()
		}

		out := make(map[string]Value, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = FromNative(iter.Value().Interface())
		}

		return Value{kind: KindDictionary, d: out}
	case reflect.Invalid:
		return Null()
	}

	return Variable(rv.Interface())
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.Interface {
		k = k.Elem()
	}

	switch k.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.String:
		return k.String()
	}

	return fmt.Sprint(k.Interface())
}
