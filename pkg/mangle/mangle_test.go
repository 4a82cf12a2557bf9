package mangle

import (
	"testing"

	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

type fakeCounter struct{ n int }

func (c *fakeCounter) NextAnonStructID() int {
	id := c.n
	c.n++
	return id
}

func integerT() types.Integer { return types.Integer{BitWidth: 64, Signed: true} }
func byteT() types.Integer    { return types.Integer{BitWidth: 8, Signed: false} }

func TestMangleFunction_S6(t *testing.T) {
	// foo(a: integer, b: *byte) -> integer, per spec.md §8 S6, encoded
	// against the Function type-table rule (return + every parameter).
	sig := types.Function{
		Return: integerT(),
		Params: []types.Param{
			{Name: "a", Type: integerT()},
			{Name: "b", Type: types.Pointer{To: byteT()}},
		},
	}
	fn := ssair.NewFunction("foo", sig, ssair.LocalVar)
	fn.SourceName = "foo"

	MangleFunction(fn, &fakeCounter{})

	const want = "_XF3fooF3s643s64P3u8E"
	if fn.Name != want {
		t.Errorf("Name = %q, want %q", fn.Name, want)
	}
	if fn.SourceName != "foo" {
		t.Errorf("SourceName was overwritten: %q", fn.SourceName)
	}
}

func TestMangleFunction_IntegerLengthPrefix(t *testing.T) {
	cases := []struct {
		bitWidth int
		signed   bool
		want     string // the "<len><sign><bits>" atom alone
	}{
		{64, true, "3s64"},
		{8, false, "3u8"},
		{16, true, "3s16"},
		{128, false, "4u128"},
	}
	for _, c := range cases {
		sig := types.Function{Return: types.Primitive{Name: "void", Size: 0}, Params: []types.Param{
			{Name: "x", Type: types.Integer{BitWidth: c.bitWidth, Signed: c.signed}},
		}}
		fn := ssair.NewFunction("f", sig, ssair.LocalVar)
		MangleFunction(fn, &fakeCounter{})
		// The integer atom must appear verbatim as a suffix before the
		// closing 'E'.
		suffix := c.want + "E"
		if len(fn.Name) < len(suffix) || fn.Name[len(fn.Name)-len(suffix):] != suffix {
			t.Errorf("bitWidth=%d signed=%v: mangled name %q does not end with %q", c.bitWidth, c.signed, fn.Name, suffix)
		}
	}
}

func TestMangleFunction_NoMangleIsIdempotent(t *testing.T) {
	sig := types.Function{Return: types.Primitive{Name: "void"}}
	fn := ssair.NewFunction("main", sig, ssair.Exported)
	fn.Attrs.NoMangle = true

	MangleFunction(fn, &fakeCounter{})
	if fn.Name != "main" {
		t.Errorf("no-mangle function was renamed to %q", fn.Name)
	}

	fn2 := ssair.NewFunction("_XF3fooF4voidE", sig, ssair.Exported)
	MangleFunction(fn2, &fakeCounter{})
	if fn2.Name != "_XF3fooF4voidE" {
		t.Errorf("already-mangled name was re-mangled: %q", fn2.Name)
	}
}

func TestMangleFunction_AnonymousStructCounter(t *testing.T) {
	sig1 := types.Function{Return: types.Primitive{Name: "void"}, Params: []types.Param{
		{Name: "s", Type: types.Struct{}},
	}}
	sig2 := types.Function{Return: types.Primitive{Name: "void"}, Params: []types.Param{
		{Name: "s", Type: types.Struct{}},
	}}
	counter := &fakeCounter{}
	fn1 := ssair.NewFunction("one", sig1, ssair.LocalVar)
	fn2 := ssair.NewFunction("two", sig2, ssair.LocalVar)
	MangleFunction(fn1, counter)
	MangleFunction(fn2, counter)
	if fn1.Name == fn2.Name {
		t.Errorf("two distinct anonymous structs mangled identically: %q", fn1.Name)
	}
}

func TestMangleFunction_NamedStructAndPointer(t *testing.T) {
	sig := types.Function{
		Return: types.Pointer{To: types.Struct{Name: "Point"}},
	}
	fn := ssair.NewFunction("make_point", sig, ssair.LocalVar)
	MangleFunction(fn, &fakeCounter{})

	const want = "_XF10make_pointFP5PointE"
	if fn.Name != want {
		t.Errorf("Name = %q, want %q", fn.Name, want)
	}
}
