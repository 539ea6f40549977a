package data

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValue_ZeroIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() || v.Kind() != KindNull {
		t.Fatalf("zero Value should be null, got %v", v.Kind())
	}

	if v.String() != "" {
		t.Errorf("null String() = %q, want empty", v.String())
	}
}

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"true", Bool(true), true},
		{"false", Bool(false), false},
		{"zero int", Int(0), false},
		{"int", Int(-3), true},
		{"zero float", Float(0), false},
		{"nan", Float(math.NaN()), false},
		{"float", Float(0.5), true},
		{"empty string", String(""), false},
		{"false string", String("false"), false},
		{"string", String("no"), true},
		{"empty array", Array(), false},
		{"array", Array(Null()), true},
		{"empty dictionary", Dictionary(nil), false},
		{"dictionary", Dictionary(map[string]Value{"a": Null()}), true},
		{"nil variable", Variable(nil), false},
		{"variable", Variable(struct{}{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"bool", Bool(true), "true"},
		{"int", Int(-42), "-42"},
		{"float", Float(2.5), "2.5"},
		{"whole float", Float(3), "3"},
		{"string", String("a<b"), "a<b"},
		{"array", Array(Int(1), String("x"), Null()), "[1, x, ]"},
		{"empty dictionary", Dictionary(nil), "[:]"},
		{
			"dictionary",
			Dictionary(map[string]Value{"b": Int(2), "a": Int(1)}),
			"[a: 1, b: 2]",
		},
		{"variable", Variable(7), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Immutable(t *testing.T) {
	elems := []Value{Int(1), Int(2)}
	arr := Array(elems...)
	elems[0] = Int(99)

	if first, _ := arr.Index(0); !first.Equal(Int(1)) {
		t.Errorf("Array shares caller slice: first = %v", first)
	}

	got, _ := arr.AsArray()
	got[1] = Int(99)

	if second, _ := arr.Index(1); !second.Equal(Int(2)) {
		t.Errorf("AsArray exposes internal slice: second = %v", second)
	}

	m := map[string]Value{"k": String("v")}
	dict := Dictionary(m)
	m["k"] = String("changed")

	if v, _ := dict.Key("k"); !v.Equal(String("v")) {
		t.Errorf("Dictionary shares caller map: k = %v", v)
	}
}

func TestValue_WithAndMerge(t *testing.T) {
	base := Dictionary(map[string]Value{"a": Int(1)})
	next := base.With("b", Int(2))

	if _, ok := base.Key("b"); ok {
		t.Error("With mutated the receiver")
	}

	want := Dictionary(map[string]Value{"a": Int(1), "b": Int(2)})
	if diff := cmp.Diff(want, next); diff != "" {
		t.Errorf("With() mismatch (-want +got):\n%s", diff)
	}

	if got := Null().With("x", Bool(true)); got.Len() != 1 {
		t.Errorf("With on null should start a dictionary, got %v", got)
	}

	merged := base.Merge(Dictionary(map[string]Value{"a": Int(5), "c": Int(3)}))

	want = Dictionary(map[string]Value{"a": Int(5), "c": Int(3)})
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_Equal(t *testing.T) {
	if !Int(2).Equal(Float(2)) {
		t.Error("Int(2) should equal Float(2)")
	}

	if Int(2).Equal(String("2")) {
		t.Error("Int(2) should not equal String(\"2\")")
	}

	a := Array(Dictionary(map[string]Value{"x": Array(Int(1))}))
	b := Array(Dictionary(map[string]Value{"x": Array(Int(1))}))

	if !a.Equal(b) {
		t.Error("structurally equal values should be Equal")
	}
}

func TestValue_EqualVariables(t *testing.T) {
	type withSlice struct{ S []int }

	type withAny struct{ A any }

	ch := make(chan int)

	tests := []struct {
		name string
		x, y Value
		want bool
	}{
		{"comparable", Variable(1), Variable(1), true},
		{"different types", Variable(1), Variable(int64(1)), false},
		{"both nil", Variable(nil), Variable(nil), true},
		{"one nil", Variable(nil), Variable(1), false},
		{"same channel", Variable(ch), Variable(ch), true},
		{"slice field equal", Variable(withSlice{[]int{1, 2}}), Variable(withSlice{[]int{1, 2}}), true},
		{"slice field differs", Variable(withSlice{[]int{1}}), Variable(withSlice{[]int{2}}), false},
		{"interface field holds slice", Variable(withAny{[]int{1}}), Variable(withAny{[]int{1}}), true},
		{"map payload", Variable(map[string]int{"a": 1}), Variable(map[string]int{"a": 1}), true},
		{"nested in array", Array(Variable(withSlice{[]int{3}})), Array(Variable(withSlice{[]int{3}})), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_Index(t *testing.T) {
	arr := Array(String("a"), String("b"), String("c"))

	if v, ok := arr.Index(-1); !ok || !v.Equal(String("c")) {
		t.Errorf("Index(-1) = %v, %v", v, ok)
	}

	if _, ok := arr.Index(3); ok {
		t.Error("Index(3) should be out of range")
	}

	if _, ok := String("abc").Index(0); ok {
		t.Error("Index on a string should fail")
	}
}

func TestLookup(t *testing.T) {
	ctx := FromNative(map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"tags": []any{"math", "engines"},
		},
		"matrix": []any{
			[]any{1, 2},
			[]any{3, 4},
		},
		"headers": map[string]any{"Content-Type": "text/html"},
	})

	tests := []struct {
		path string
		want Value
		ok   bool
	}{
		{"", ctx, true},
		{"user.name", String("Ada"), true},
		{"user.tags[1]", String("engines"), true},
		{"user.tags[-1]", String("engines"), true},
		{"matrix[1][0]", Int(3), true},
		{`headers["Content-Type"]`, String("text/html"), true},
		{"user.missing", Null(), false},
		{"user.tags[9]", Null(), false},
		{"user.name.first", Null(), false},
		{"matrix[x]", Null(), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ctx.Lookup(tt.path)
			if ok != tt.ok {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lookup(%q) mismatch (-want +got):\n%s", tt.path, diff)
			}
		})
	}
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"b": true,
		"i": 3,
		"f": 1.25,
		"s": "str",
		"a": []any{1, "two"},
		"d": map[string]any{"nested": nil},
	}

	v := FromNative(in)
	if v.Kind() != KindDictionary {
		t.Fatalf("FromNative kind = %v", v.Kind())
	}

	if diff := cmp.Diff(in, v.Native()); diff != "" {
		t.Errorf("Native() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromNative_Reflect(t *testing.T) {
	type label string

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"uint8", uint8(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"named string", label("x"), String("x")},
		{"typed slice", []string{"a", "b"}, Array(String("a"), String("b"))},
		{"nil slice", []int(nil), Null()},
		{"typed map", map[string]int{"n": 1}, Dictionary(map[string]Value{"n": Int(1)})},
		{"any map", map[any]any{"k": 1}, Dictionary(map[string]Value{"k": Int(1)})},
		{"bytes", []byte("hi"), String("hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FromNative(tt.in)); diff != "" {
				t.Errorf("FromNative mismatch (-want +got):\n%s", diff)
			}
		})
	}

	type opaque struct{ n int }

	if got := FromNative(opaque{1}); got.Kind() != KindVariable {
		t.Errorf("struct should become a variable, got %v", got.Kind())
	}
}
