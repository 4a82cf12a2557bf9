package ssairbuild

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/cgcontext"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// emitCall lowers a direct or indirect call. Arguments are lowered
// left to right, then an indirect callee, before the Call instruction
// itself is appended (spec.md §4.1 "Call").
func (b *Builder) emitCall(n *cgast.Call) *ssair.Instruction {
	args := b.emitArgs(n.Args)

	fref, direct := n.Callee.(*cgast.FunctionReference)
	var indirect *ssair.Instruction
	if !direct {
		indirect = b.emitRvalue(n.Callee)
	}
	call := b.newVal(ssair.Call, n.Type(), n.Pos())
	if direct {
		call.Func = b.lookupFunction(fref.Func)
		call.IsIndirect = false
	} else {
		call.IsIndirect = true
		call.SetIndirectFn(indirect)
	}
	call.SetArgs(args...)
	return call
}

// emitIntrinsicCall lowers one of the fixed intrinsics (spec.md §4.1
// "Intrinsic call"): syscall (rejected under the MS-Windows calling
// convention), inline (marks the wrapped call force-inline and
// re-exposes its value), debug-trap (a zero-operand void intrinsic)
// and memcpy (three reference-aware operands).
func (b *Builder) emitIntrinsicCall(n *cgast.IntrinsicCall) *ssair.Instruction {
	switch n.Kind {
	case cgast.IntrinsicSyscall:
		if b.ctx.Target.CallConv == cgcontext.CallConvMSWindows {
			b.ctx.Diags.Errorf(n.Pos(), "the syscall intrinsic is not supported under the MS-Windows calling convention")
			return nil
		}
		inst := b.newVal(ssair.Intrinsic, n.Type(), n.Pos())
		inst.IntrinsicOp = n.Kind
		inst.SetArgs(b.emitArgs(n.Args)...)
		return inst

	case cgast.IntrinsicInline:
		if len(n.Args) != 1 {
			b.ctx.Diags.Errorf(n.Pos(), "__inline expects exactly one call argument")
			return nil
		}
		call := b.emitRvalue(n.Args[0])
		if call != nil && call.Kind == ssair.Call && !call.IsIndirect && call.Func != nil {
			call.Func.Attrs.ForceInline = true
		}
		return call

	case cgast.IntrinsicDebugTrap:
		inst := b.newVal(ssair.Intrinsic, nil, n.Pos())
		inst.IntrinsicOp = n.Kind
		return inst

	case cgast.IntrinsicMemcpy:
		inst := b.newVal(ssair.Intrinsic, n.Type(), n.Pos())
		inst.IntrinsicOp = n.Kind
		inst.SetArgs(b.emitArgs(n.Args)...)
		return inst

	default:
		b.ctx.Diags.Errorf(n.Pos(), "unrecognised intrinsic")
		return nil
	}
}

// rvalueCast converts the source value's representation by comparing
// byte sizes: equal sizes bitcast, a widening conversion sign- or
// zero-extends depending on the source's signedness, a narrowing
// conversion truncates (spec.md §4.1 "Cast").
func (b *Builder) rvalueCast(n *cgast.Cast) *ssair.Instruction {
	src := b.emitRvalue(n.Inner)
	srcSz := types.SizeOf(n.Inner.Type())
	dstSz := types.SizeOf(n.Type())

	var kind ssair.Kind
	switch {
	case srcSz == dstSz:
		kind = ssair.Bitcast
	case srcSz < dstSz:
		if types.IsSigned(n.Inner.Type()) {
			kind = ssair.SExt
		} else {
			kind = ssair.ZExt
		}
	default:
		kind = ssair.Trunc
	}
	inst := b.newVal(kind, n.Type(), n.Pos())
	inst.SetArgs(src)
	return inst
}

var binOpKind = map[cgast.BinOp]ssair.Kind{
	cgast.OpAdd: ssair.Add, cgast.OpSub: ssair.Sub, cgast.OpMul: ssair.Mul,
	cgast.OpDiv: ssair.Div, cgast.OpMod: ssair.Mod,
	cgast.OpShl: ssair.Shl, cgast.OpSar: ssair.Sar, cgast.OpShr: ssair.Shr,
	cgast.OpAnd: ssair.And, cgast.OpOr: ssair.Or,
	cgast.OpLt: ssair.Lt, cgast.OpLe: ssair.Le, cgast.OpGt: ssair.Gt, cgast.OpGe: ssair.Ge,
	cgast.OpEq: ssair.Eq, cgast.OpNe: ssair.Ne,
}

// rvalueBinary lowers a binary expression. Assign and Subscript are
// handled specially (spec.md §4.1 "Binary"); every other operator maps
// directly onto one ssair opcode.
func (b *Builder) rvalueBinary(n *cgast.Binary) *ssair.Instruction {
	switch n.Op {
	case cgast.OpAssign:
		rhs := b.emitRvalue(n.Right)
		lhs := b.emitLvalue(n.Left)
		b.emitStore(rhs, lhs, n.Pos())
		return rhs
	case cgast.OpSubscript:
		addr := b.subscriptAddress(n)
		return b.emitLoad(addr, n.Type(), n.Pos())
	default:
		l := b.emitRvalue(n.Left)
		r := b.emitRvalue(n.Right)
		kind, ok := binOpKind[n.Op]
		if !ok {
			b.ctx.Diags.Errorf(n.Pos(), "unrecognised binary operator")
			return nil
		}
		inst := b.newVal(kind, n.Type(), n.Pos())
		inst.SetArgs(l, r)
		return inst
	}
}

// subscriptAddress computes a[i]'s address per spec.md §4.1
// "Subscript": the base address depends on the LHS's shape, a
// pointer-to-array base is bitcast to pointer-to-element, and a zero
// index needs no further arithmetic.
func (b *Builder) subscriptAddress(n *cgast.Binary) *ssair.Instruction {
	if addr, ok := b.memoAddress(n); ok {
		return addr
	}
	lhsType := types.StripReferences(n.Left.Type())
	if !types.IsArray(lhsType) && !types.IsPointer(lhsType) {
		b.ctx.Diags.Errorf(n.Pos(), "cannot subscript a non-array, non-pointer value")
		return nil
	}
	elemType := types.ElementOf(lhsType)

	if lit, ok := n.Left.(*cgast.Literal); ok && lit.Kind == cgast.LiteralString {
		str := b.emitRvalue(lit)
		if rhsLit, ok := n.Right.(*cgast.Literal); ok && rhsLit.Kind == cgast.LiteralNumber {
			if rhsLit.IntValue < 0 || rhsLit.IntValue > int64(len(lit.StrValue)) {
				b.ctx.Diags.Errorf(n.Pos(), "string subscript %d is out of bounds for a literal of size %d", rhsLit.IntValue, len(lit.StrValue))
				return nil
			}
			if rhsLit.IntValue == 0 {
				return b.setAddress(n, str)
			}
			off := b.immediate(rhsLit.IntValue, wordType(), n.Pos())
			addr := b.newVal(ssair.Add, types.Pointer{To: elemType}, n.Pos())
			addr.SetArgs(str, off)
			return b.setAddress(n, addr)
		}
		return b.setAddress(n, b.indexAddress(str, n.Right, elemType, n.Pos()))
	}

	var base *ssair.Instruction
	if vref, ok := n.Left.(*cgast.VariableReference); ok {
		declAddr := b.lvalueDeclaration(vref.Decl)
		base = declAddr
		if ptr, ok := declAddr.Ty.(types.Pointer); ok {
			if _, isPtrToPtr := ptr.To.(types.Pointer); isPtrToPtr {
				base = b.emitLoad(declAddr, ptr.To, n.Pos())
			}
		}
	} else {
		base = b.emitLvalue(n.Left)
	}

	if bp, ok := base.Ty.(types.Pointer); ok {
		if _, isArr := bp.To.(types.Array); isArr {
			bc := b.newVal(ssair.Bitcast, types.Pointer{To: elemType}, n.Pos())
			bc.SetArgs(base)
			base = bc
		}
	}

	return b.setAddress(n, b.indexAddress(base, n.Right, elemType, n.Pos()))
}

// indexAddress returns base unchanged for a literal-zero index,
// otherwise base + index*sizeof(elemType).
func (b *Builder) indexAddress(base *ssair.Instruction, rhs cgast.Node, elemType types.Type, loc cgast.Pos) *ssair.Instruction {
	if lit, ok := rhs.(*cgast.Literal); ok && lit.Kind == cgast.LiteralNumber && lit.IntValue == 0 {
		return base
	}
	idx := b.emitRvalue(rhs)
	sizeImm := b.immediate(types.SizeOf(elemType), wordType(), loc)
	scaled := b.newVal(ssair.Mul, idx.Ty, loc)
	scaled.SetArgs(idx, sizeImm)
	addr := b.newVal(ssair.Add, types.Pointer{To: elemType}, loc)
	addr.SetArgs(base, scaled)
	return addr
}

// rvalueUnary lowers address-of, dereference and bitwise complement
// (spec.md §4.1 "Unary").
func (b *Builder) rvalueUnary(n *cgast.Unary) *ssair.Instruction {
	switch n.Op {
	case cgast.OpAddressOf:
		if isFunctionNode(n.Operand) {
			return b.rvalueFunctionNode(functionOf(n.Operand))
		}
		return b.emitLvalue(n.Operand)
	case cgast.OpDeref:
		val := b.emitRvalue(n.Operand)
		if val == nil {
			return nil
		}
		if ptr, ok := val.Ty.(types.Pointer); ok {
			if _, isFn := ptr.To.(types.Function); isFn {
				return val
			}
		}
		return b.emitLoad(val, n.Type(), n.Pos())
	case cgast.OpComplement:
		val := b.emitRvalue(n.Operand)
		inst := b.newVal(ssair.Not, n.Type(), n.Pos())
		inst.SetArgs(val)
		return inst
	default:
		return nil
	}
}

func isFunctionNode(n cgast.Node) bool {
	switch n.(type) {
	case *cgast.Function, *cgast.FunctionReference:
		return true
	}
	return false
}

func functionOf(n cgast.Node) *cgast.Function {
	switch v := n.(type) {
	case *cgast.Function:
		return v
	case *cgast.FunctionReference:
		return v.Func
	}
	return nil
}

// rvalueFunctionNode yields a function reference, rejecting the
// address of a function marked inline (spec.md §4.1 "Function node").
func (b *Builder) rvalueFunctionNode(astFn *cgast.Function) *ssair.Instruction {
	if astFn.Inline {
		b.ctx.Diags.Errorf(astFn.Pos(), "cannot take the address of inline function %q", astFn.Name)
		return nil
	}
	fn := b.lookupFunction(astFn)
	inst := b.newVal(ssair.FuncRef, types.Pointer{To: fn.Sig}, astFn.Pos())
	inst.Func = fn
	return inst
}

// rvalueLiteral lowers the three literal kinds: integers to an
// Immediate, strings to an interned static variable reference, and
// compound (array) literals to an Alloca filled element-by-element and
// loaded back (spec.md §4.1 "Literal").
func (b *Builder) rvalueLiteral(n *cgast.Literal) *ssair.Instruction {
	switch n.Kind {
	case cgast.LiteralNumber:
		return b.immediate(n.IntValue, n.Type(), n.Pos())

	case cgast.LiteralString:
		name := b.ctx.NextStringLitName()
		st := b.ctx.NewStatic(name, n.Type())
		st.Init = &ssair.StaticInit{IsStr: true, StrValue: n.StrValue}
		addr := b.newVal(ssair.StaticRef, types.Pointer{To: n.Type()}, n.Pos())
		addr.StaticName = name
		return addr

	case cgast.LiteralCompound:
		arrTy := n.Type()
		elemTy := types.ElementOf(arrTy)
		elemSize := types.SizeOf(elemTy)
		elemPtrTy := types.Pointer{To: elemTy}

		alloc := b.newVal(ssair.Alloca, types.Pointer{To: arrTy}, n.Pos())
		base := b.newVal(ssair.Bitcast, elemPtrTy, n.Pos())
		base.SetArgs(alloc)

		cur := base
		for i, child := range n.Children {
			val := b.emitRvalue(child)
			b.emitStore(val, cur, n.Pos())
			if i != len(n.Children)-1 {
				off := b.immediate(elemSize, wordType(), n.Pos())
				next := b.newVal(ssair.Add, elemPtrTy, n.Pos())
				next.SetArgs(cur, off)
				cur = next
			}
		}
		return b.emitLoad(alloc, arrTy, n.Pos())

	default:
		return nil
	}
}
