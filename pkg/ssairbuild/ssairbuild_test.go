package ssairbuild

import (
	"bytes"
	"io"
	"testing"

	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/cgcontext"
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/mangle"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

type nopWriteCloser struct{ *bytes.Buffer }

func (nopWriteCloser) Close() error { return nil }

func newTestContext() *cgcontext.Context {
	var buf bytes.Buffer
	diags := diag.NewCollector(&buf, false)
	var out io.WriteCloser = nopWriteCloser{&bytes.Buffer{}}
	return cgcontext.New(cgcontext.DefaultTarget(), diags, out)
}

func intType() types.Type { return types.Integer{BitWidth: 32, Signed: true} }

// buildAddFunction constructs a single user function:
//
//	add(a: c_int, b: c_int) -> c_int { return a + b; }
func buildAddFunction() *cgast.Root {
	declA := &cgast.Declaration{Base: cgast.Base{T: intType()}, Name: "a"}
	declB := &cgast.Declaration{Base: cgast.Base{T: intType()}, Name: "b"}

	refA := &cgast.VariableReference{Base: cgast.Base{T: intType()}, Decl: declA}
	refB := &cgast.VariableReference{Base: cgast.Base{T: intType()}, Decl: declB}

	sum := &cgast.Binary{Base: cgast.Base{T: intType()}, Op: cgast.OpAdd, Left: refA, Right: refB}
	ret := &cgast.Return{Value: sum}
	body := &cgast.Block{Children: []cgast.Node{ret}}

	fn := &cgast.Function{
		Base:       cgast.Base{T: types.Function{Return: intType()}},
		Name:       "add",
		Params:     []*cgast.Declaration{declA, declB},
		ReturnType: intType(),
		Body:       body,
	}

	return &cgast.Root{Children: []cgast.Node{fn}}
}

func TestBuildSynthesizesMainEntry(t *testing.T) {
	ctx := newTestContext()
	root := buildAddFunction()

	if err := Build(ctx, root); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var mainFn *ssair.Function
	for _, fn := range ctx.Functions {
		if fn.Name == "main" {
			mainFn = fn
		}
	}
	if mainFn == nil {
		t.Fatal("Build() did not synthesize a main entry function for a non-module unit")
	}
	if !mainFn.Attrs.NoMangle {
		t.Error("synthesized main entry should carry the no-mangle attribute")
	}
	if mainFn.Entry() == nil {
		t.Error("main entry has no blocks")
	}
	if !mainFn.Entry().Closed() && len(mainFn.Blocks) > 0 {
		last := mainFn.Blocks[len(mainFn.Blocks)-1]
		if !last.Closed() {
			t.Error("main entry's last block is not closed with a terminator")
		}
	}
}

func TestBuildManglesUserFunction(t *testing.T) {
	ctx := newTestContext()
	root := buildAddFunction()

	if err := Build(ctx, root); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var addFn *ssair.Function
	for _, fn := range ctx.Functions {
		if fn.SourceName == "add" {
			addFn = fn
		}
	}
	if addFn == nil {
		t.Fatal("Build() did not produce a function with source name 'add'")
	}
	if addFn.Name == "add" {
		t.Error("user function without no-mangle attribute was not mangled")
	}
	if addFn.SourceName != "add" {
		t.Errorf("SourceName = %q, want 'add'", addFn.SourceName)
	}
}

func TestBuildEmitsAddInstructionAndReturn(t *testing.T) {
	ctx := newTestContext()
	root := buildAddFunction()

	if err := Build(ctx, root); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var addFn *ssair.Function
	for _, fn := range ctx.Functions {
		if fn.SourceName == "add" {
			addFn = fn
		}
	}
	if addFn == nil {
		t.Fatal("add function not found")
	}

	var sawAdd, sawReturn bool
	for _, blk := range addFn.Blocks {
		for _, inst := range blk.Insts {
			if inst.Kind == ssair.Add {
				sawAdd = true
			}
			if inst.Kind == ssair.Return {
				sawReturn = true
			}
		}
		if !blk.Closed() {
			t.Errorf("block in 'add' is not closed")
		}
	}
	if !sawAdd {
		t.Error("no Add instruction emitted for 'a + b'")
	}
	if !sawReturn {
		t.Error("no Return instruction emitted")
	}
}

func TestBuildIsIdempotentOnReMangle(t *testing.T) {
	ctx := newTestContext()
	root := buildAddFunction()
	if err := Build(ctx, root); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var addFn *ssair.Function
	for _, fn := range ctx.Functions {
		if fn.SourceName == "add" {
			addFn = fn
		}
	}
	mangledOnce := addFn.Name

	mangle.MangleFunction(addFn, ctx)
	if addFn.Name != mangledOnce {
		t.Errorf("re-mangling an already-mangled name changed it: %q vs %q", mangledOnce, addFn.Name)
	}
}
