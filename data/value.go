package data

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull       Kind = iota // null
	KindBool                   // bool
	KindInt                    // int
	KindFloat                  // float
	KindString                 // string
	KindArray                  // array
	KindDictionary             // dictionary
	KindVariable               // variable
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDictionary:
		return "dictionary"
	case KindVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Value is the generic, self-describing datum a template renders against.
//
// A Value is immutable once constructed: the collection constructors copy
// their input and the accessors return copies. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	a    []Value
	d    map[string]Value
	v    any
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array Value holding a copy of elems in order.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, a: slices.Clone(elems)}
}

// Dictionary returns a dictionary Value holding a copy of m.
func Dictionary(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}

	return Value{kind: KindDictionary, d: maps.Clone(m)}
}

// Variable wraps an opaque Go value. The renderer never looks inside it;
// handlers that know its type may recover it with [Value.Variable].
func Variable(v any) Value { return Value{kind: KindVariable, v: v} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric payload of an Int or Float as float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsArray returns a copy of the array elements.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}

	return slices.Clone(v.a), true
}

// AsDictionary returns a copy of the dictionary entries.
func (v Value) AsDictionary() (map[string]Value, bool) {
	if v.kind != KindDictionary {
		return nil, false
	}

	return maps.Clone(v.d), true
}

// Variable returns the opaque payload of a Variable.
func (v Value) Variable() (any, bool) { return v.v, v.kind == KindVariable }

// Len returns the number of elements of an Array or Dictionary, the byte
// length of a String, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.a)
	case KindDictionary:
		return len(v.d)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Index returns the element at i of an Array. Negative indices count from
// the end.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray {
		return Null(), false
	}

	if i < 0 {
		i += len(v.a)
	}

	if i < 0 || i >= len(v.a) {
		return Null(), false
	}

	return v.a[i], true
}

// Key returns the entry for k of a Dictionary.
func (v Value) Key(k string) (Value, bool) {
	if v.kind != KindDictionary {
		return Null(), false
	}

	e, ok := v.d[k]

	return e, ok
}

// Keys returns the sorted keys of a Dictionary.
func (v Value) Keys() []string {
	if v.kind != KindDictionary {
		return nil
	}

	return slices.Sorted(maps.Keys(v.d))
}

// With returns a Dictionary equal to v with key bound to e.
// A receiver that is not a Dictionary is treated as an empty one.
func (v Value) With(key string, e Value) Value {
	m := make(map[string]Value, len(v.d)+1)
	if v.kind == KindDictionary {
		maps.Copy(m, v.d)
	}

	m[key] = e

	return Value{kind: KindDictionary, d: m}
}

// Merge returns a Dictionary with the entries of v overlaid by those of o.
// Non-dictionary operands contribute nothing.
func (v Value) Merge(o Value) Value {
	m := make(map[string]Value, len(v.d)+len(o.d))
	if v.kind == KindDictionary {
		maps.Copy(m, v.d)
	}

	if o.kind == KindDictionary {
		maps.Copy(m, o.d)
	}

	return Value{kind: KindDictionary, d: m}
}

// Truthy reports whether v counts as true in a conditional.
//
// Null is false; Bool is itself; numbers are true when non-zero; a String is
// true unless it is empty or "false"; Array and Dictionary are true when
// non-empty; a Variable is true when its payload is non-nil.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	case KindString:
		return v.s != "" && v.s != "false"
	case KindArray:
		return len(v.a) > 0
	case KindDictionary:
		return len(v.d) > 0
	case KindVariable:
		return v.v != nil
	default:
		return false
	}
}

// String returns the textual form appended to a view when v is rendered.
func (v Value) String() string {
	var sb strings.Builder

	v.write(&sb)

	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'f', -1, 64))
	case KindString:
		sb.WriteString(v.s)
	case KindArray:
		sb.WriteByte('[')

		for i, e := range v.a {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.write(sb)
		}

		sb.WriteByte(']')
	case KindDictionary:
		if len(v.d) == 0 {
			sb.WriteString("[:]")

			return
		}

		sb.WriteByte('[')

		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(k)
			sb.WriteString(": ")
			v.d[k].write(sb)
		}

		sb.WriteByte(']')
	case KindVariable:
		if v.v != nil {
			fmt.Fprint(sb, v.v)
		}
	}
}

// GoString implements fmt.GoStringer for test failure output.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return "data.String(" + strconv.Quote(v.s) + ")"
	case KindNull:
		return "data.Null()"
	default:
		return "data." + v.kind.String() + "(" + v.String() + ")"
	}
}

// Equal reports whether v and o are structurally equal. Int and Float compare
// numerically. Variables compare with == when their payloads are comparable
// and with [reflect.DeepEqual] otherwise.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		vf, vok := v.AsFloat()
		of, ook := o.AsFloat()

		return vok && ook && vf == of
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		return slices.EqualFunc(v.a, o.a, Value.Equal)
	case KindDictionary:
		return maps.EqualFunc(v.d, o.d, Value.Equal)
	case KindVariable:
		return variableEqual(v.v, o.v)
	default:
		return false
	}
}

func variableEqual(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}

	if reflect.TypeOf(x) != reflect.TypeOf(y) {
		return false
	}

	// Comparable inspects interface fields by their dynamic values.
	if reflect.ValueOf(x).Comparable() && reflect.ValueOf(y).Comparable() {
		return x == y
	}

	return reflect.DeepEqual(x, y)
}
