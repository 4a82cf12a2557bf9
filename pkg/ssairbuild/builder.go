// Package ssairbuild implements the IR Builder: the AST-to-IR lowering
// pass of spec.md §4.1. It walks a cgast tree and emits ssair
// functions, generalizing the teacher's RTL-construction style
// (pkg/rtlgen, which builds a node graph bottom-up from Cminor
// expressions) to a block/phi-structured SSA form, memoizing each node
// so it is emitted at most once (spec.md §4.1 "Each node is emitted at
// most once").
package ssairbuild

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/cgcontext"
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/mangle"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// memoEntry records the rvalue and/or address an AST node has already
// been emitted as, so a node reached twice (e.g. a variable referenced
// from two branches of an If) is lowered once.
type memoEntry struct {
	rvalue  *ssair.Instruction
	address *ssair.Instruction
}

// Builder lowers one cgast.Root into the ssair functions registered on
// ctx. It holds no state of its own beyond the current function and
// insertion point, the per-node memo table, and the map from AST
// functions to their ssair functions (with their source order);
// everything else (diagnostics, the function list, static variables)
// lives on ctx, per spec.md §5.
type Builder struct {
	ctx *cgcontext.Context

	fn  *ssair.Function
	cur *ssair.Block

	memo    map[cgast.Node]*memoEntry
	funcMap map[*cgast.Function]*ssair.Function
	order   []*cgast.Function
}

// New creates a builder that lowers into ctx.
func New(ctx *cgcontext.Context) *Builder {
	return &Builder{
		ctx:     ctx,
		memo:    make(map[cgast.Node]*memoEntry),
		funcMap: make(map[*cgast.Function]*ssair.Function),
	}
}

// Build lowers root's declarations and functions into ctx.Functions,
// then applies the name mangler over every eligible function (spec.md
// §2: the mangler is a side channel applied "near the end of IR
// construction").
func Build(ctx *cgcontext.Context, root *cgast.Root) error {
	b := New(ctx)
	b.declareUserFunctions(root)
	b.buildEntry(root)
	for _, astFn := range b.order {
		if astFn.Extern {
			continue
		}
		b.emitUserFunction(astFn)
	}
	for _, fn := range ctx.Functions {
		mangle.MangleFunction(fn, ctx)
	}
	return nil
}

func (b *Builder) entry(n cgast.Node) *memoEntry {
	e, ok := b.memo[n]
	if !ok {
		e = &memoEntry{}
		b.memo[n] = e
	}
	return e
}

func (b *Builder) memoRvalue(n cgast.Node) (*ssair.Instruction, bool) {
	e, ok := b.memo[n]
	if !ok || e.rvalue == nil {
		return nil, false
	}
	return e.rvalue, true
}

func (b *Builder) memoAddress(n cgast.Node) (*ssair.Instruction, bool) {
	e, ok := b.memo[n]
	if !ok || e.address == nil {
		return nil, false
	}
	return e.address, true
}

func (b *Builder) setRvalue(n cgast.Node, v *ssair.Instruction) *ssair.Instruction {
	b.entry(n).rvalue = v
	return v
}

func (b *Builder) setAddress(n cgast.Node, v *ssair.Instruction) *ssair.Instruction {
	b.entry(n).address = v
	return v
}

// newVal allocates a fresh instruction of kind/ty and appends it to the
// current block.
func (b *Builder) newVal(kind ssair.Kind, ty types.Type, loc cgast.Pos) *ssair.Instruction {
	inst := b.fn.NewInst(kind, ty, loc)
	b.cur.Append(inst)
	return inst
}

// immediate materialises a constant integer value.
func (b *Builder) immediate(v int64, ty types.Type, loc cgast.Pos) *ssair.Instruction {
	inst := b.newVal(ssair.Immediate, ty, loc)
	inst.IntValue = v
	return inst
}

func (b *Builder) branchTo(target *ssair.Block, loc cgast.Pos) {
	inst := b.newVal(ssair.Branch, nil, loc)
	inst.Target = target
}

func (b *Builder) emitLoad(addr *ssair.Instruction, ty types.Type, loc cgast.Pos) *ssair.Instruction {
	inst := b.newVal(ssair.Load, ty, loc)
	inst.SetArgs(addr)
	return inst
}

func (b *Builder) emitStore(val, addr *ssair.Instruction, loc cgast.Pos) *ssair.Instruction {
	inst := b.newVal(ssair.Store, nil, loc)
	inst.SetArgs(val, addr)
	return inst
}

// wordType is the type used for synthesised index/offset immediates
// (subscript scaling, array-literal element strides).
func wordType() types.Type { return types.Integer{BitWidth: 64, Signed: true} }

// emitArgs lowers a call-like argument list: reference-typed arguments
// pass their address, everything else passes its value (spec.md §4.1
// "Call", "Intrinsic call").
func (b *Builder) emitArgs(args []cgast.Node) []*ssair.Instruction {
	out := make([]*ssair.Instruction, len(args))
	for i, a := range args {
		if types.IsReference(a.Type()) {
			out[i] = b.emitLvalue(a)
		} else {
			out[i] = b.emitRvalue(a)
		}
	}
	return out
}

// emitStatement emits n for its effect in a statement position: a
// Declaration/StructureDecl is lvalue-emitted (or dropped, for
// StructureDecl, which produces no codegen output), everything else is
// rvalue-emitted.
func (b *Builder) emitStatement(n cgast.Node) *ssair.Instruction {
	switch v := n.(type) {
	case *cgast.Declaration:
		return b.lvalueDeclaration(v)
	case *cgast.StructureDecl:
		return nil
	default:
		return b.emitRvalue(n)
	}
}

// emitSequence emits every non-function child of children in order and
// returns the last statement's value, used by Root and Block (spec.md
// §4.1 "Root / Block").
func (b *Builder) emitSequence(children []cgast.Node) *ssair.Instruction {
	var last *ssair.Instruction
	for _, c := range children {
		if _, isFn := c.(*cgast.Function); isFn {
			continue
		}
		last = b.emitStatement(c)
	}
	return last
}

// emitRvalue lowers n in an expression (value-producing) position.
func (b *Builder) emitRvalue(n cgast.Node) *ssair.Instruction {
	if n == nil {
		return nil
	}
	if v, ok := b.memoRvalue(n); ok {
		return v
	}
	switch v := n.(type) {
	case *cgast.Root:
		last := b.emitSequence(v.Children)
		if !b.cur.Closed() {
			ret := b.newVal(ssair.Return, nil, v.Pos())
			if last != nil {
				ret.SetRetVal(last)
			}
		}
		return b.setRvalue(n, last)
	case *cgast.Block:
		last := b.emitSequence(v.Children)
		if !types.IsVoid(v.Type()) && last == nil && !b.cur.Closed() {
			diag.ICE("block's type is non-void but yields no value")
		}
		return b.setRvalue(n, last)
	case *cgast.If:
		return b.setRvalue(n, b.emitIf(v))
	case *cgast.While:
		return b.setRvalue(n, b.emitWhile(v))
	case *cgast.For:
		return b.setRvalue(n, b.emitFor(v))
	case *cgast.Return:
		return b.setRvalue(n, b.emitReturn(v))
	case *cgast.Call:
		return b.setRvalue(n, b.emitCall(v))
	case *cgast.IntrinsicCall:
		return b.setRvalue(n, b.emitIntrinsicCall(v))
	case *cgast.Cast:
		return b.setRvalue(n, b.rvalueCast(v))
	case *cgast.Binary:
		return b.setRvalue(n, b.rvalueBinary(v))
	case *cgast.Unary:
		return b.setRvalue(n, b.rvalueUnary(v))
	case *cgast.Literal:
		return b.setRvalue(n, b.rvalueLiteral(v))
	case *cgast.Function:
		return b.setRvalue(n, b.rvalueFunctionNode(v))
	case *cgast.FunctionReference:
		return b.setRvalue(n, b.rvalueFunctionNode(v.Func))
	case *cgast.ModuleReference:
		return b.setRvalue(n, b.emitRvalue(v.Inner))
	case *cgast.Declaration, *cgast.MemberAccess, *cgast.VariableReference:
		addr := b.emitLvalue(n)
		return b.setRvalue(n, b.emitLoad(addr, n.Type(), n.Pos()))
	default:
		diag.ICE("ssairbuild: unsupported rvalue node %T", n)
		return nil
	}
}

// emitLvalue lowers n in an address-producing position.
func (b *Builder) emitLvalue(n cgast.Node) *ssair.Instruction {
	if n == nil {
		return nil
	}
	if v, ok := b.memoAddress(n); ok {
		return v
	}
	switch v := n.(type) {
	case *cgast.Declaration:
		return b.lvalueDeclaration(v)
	case *cgast.MemberAccess:
		return b.lvalueMemberAccess(v)
	case *cgast.VariableReference:
		return b.lvalueVariableReference(v)
	case *cgast.Cast:
		return b.lvalueCast(v)
	case *cgast.Unary:
		if v.Op != cgast.OpDeref {
			diag.ICE("ssairbuild: unary operator %d is not a valid lvalue", v.Op)
		}
		return b.lvalueUnaryDeref(v)
	case *cgast.Binary:
		if v.Op != cgast.OpSubscript {
			diag.ICE("ssairbuild: binary operator %d is not a valid lvalue", v.Op)
		}
		return b.subscriptAddress(v)
	default:
		diag.ICE("ssairbuild: node %T is not a valid lvalue", n)
		return nil
	}
}
