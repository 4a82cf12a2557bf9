// Package mirgen implements the MIR Translator (spec.md §4.2): the
// pass that lowers ssair functions into mir functions — materialising
// virtual registers, frame objects and an explicit block CFG, folding
// constants and function references directly into their consuming
// instructions wherever possible, and deconstructing phi nodes into
// predecessor-block copies before a critical edge could make that
// copy observable on the wrong path.
//
// Grounded on pkg/cminorgen/transform.go's one-ssair-instruction-to-
// one-or-more-output-instructions translation shape, generalized from
// Cminor's statement/expression split to a uniform instruction stream,
// and on pkg/linearize/tunneling.go for the "does this edge need a
// trampoline" reasoning the phi-lowering pass reuses for critical
// edges.
package mirgen

import (
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/mir"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// Program translates every function of one compilation together, so
// calls and function references can resolve across functions
// regardless of translation order.
type Program struct {
	funcMap map[*ssair.Function]*mir.Function
}

// NewProgram creates an empty program-level translator.
func NewProgram() *Program {
	return &Program{funcMap: make(map[*ssair.Function]*mir.Function)}
}

// Translate lowers every function in fns and returns the translated
// mir.Function list, in the same order.
func Translate(fns []*ssair.Function) []*mir.Function {
	p := NewProgram()
	out := make([]*mir.Function, len(fns))
	for i, f := range fns {
		out[i] = mir.NewFunction(f.Name, f.Sig, f)
		out[i].Extern = f.Extern
		p.funcMap[f] = out[i]
	}
	for i, f := range fns {
		p.translateBody(f, out[i])
	}
	return out
}

// translator holds the per-function state of one translation pass.
type translator struct {
	prog     *Program
	fn       *mir.Function
	vmap     map[*ssair.Instruction]*mir.Instruction
	blockMap map[*ssair.Block]*mir.Block
}

func (p *Program) translateBody(origin *ssair.Function, fn *mir.Function) {
	t := &translator{
		prog:     p,
		fn:       fn,
		vmap:     make(map[*ssair.Instruction]*mir.Instruction),
		blockMap: make(map[*ssair.Block]*mir.Block),
	}
	for _, param := range origin.Params {
		inst := fn.NewInst(mir.OpParam, param.Ty, true)
		fn.Params = append(fn.Params, inst)
		t.vmap[param] = inst
	}
	if origin.Extern {
		return
	}
	for _, b := range origin.Blocks {
		mb := fn.AppendBlock()
		mb.Origin = b
		t.blockMap[b] = mb
	}
	for _, b := range origin.Blocks {
		t.translateBlock(b)
	}
	lowerPhis(fn)
	sweepMaterialized(fn)
}

func (t *translator) mblock(b *ssair.Block) *mir.Block {
	if b == nil {
		return nil
	}
	return t.blockMap[b]
}

// funcRef resolves an ssair.Function to its mir.Function. Every function
// of the program is registered by Translate before any body is
// translated, so a function missing from the map lies outside the
// translated program and is reported as an internal invariant
// violation (ICE).
func (t *translator) funcRef(f *ssair.Function) *mir.Function {
	mf, ok := t.prog.funcMap[f]
	if !ok {
		diag.ICE("mirgen: call to function %q outside the translated program", f.Name)
	}
	return mf
}

// operand resolves an ssair instruction used as an operand, applying
// the operand-inlining priority rule: an Immediate, FuncRef or
// StaticRef producer is folded directly into the consuming
// instruction instead of being referenced by virtual register
// (spec.md §4.2).
func (t *translator) operand(arg *ssair.Instruction) mir.Operand {
	if arg == nil {
		return mir.Operand{}
	}
	switch arg.Kind {
	case ssair.Immediate:
		return mir.ImmOperand(arg.IntValue)
	case ssair.FuncRef:
		return mir.FuncOperand(t.funcRef(arg.Func))
	case ssair.StaticRef:
		return mir.StaticOperand(arg.StaticName)
	default:
		mi, ok := t.vmap[arg]
		if !ok {
			diag.ICE("mirgen: operand %%%d used before its definition was translated", arg.ID)
		}
		return mir.RegOperand(mi.Resolve())
	}
}

func (t *translator) translateBlock(ob *ssair.Block) {
	mb := t.mblock(ob)
	for _, inst := range ob.Insts {
		t.translateInst(inst, mb)
	}
}

var binOpcode = map[ssair.Kind]mir.Opcode{
	ssair.Add: mir.OpAdd, ssair.Sub: mir.OpSub, ssair.Mul: mir.OpMul,
	ssair.Div: mir.OpDiv, ssair.Mod: mir.OpMod,
	ssair.Shl: mir.OpShl, ssair.Sar: mir.OpSar, ssair.Shr: mir.OpShr,
	ssair.And: mir.OpAnd, ssair.Or: mir.OpOr,
	ssair.Lt: mir.OpLt, ssair.Le: mir.OpLe, ssair.Gt: mir.OpGt, ssair.Ge: mir.OpGe,
	ssair.Eq: mir.OpEq, ssair.Ne: mir.OpNe,
}

var convOpcode = map[ssair.Kind]mir.Opcode{
	ssair.Bitcast: mir.OpBitcast, ssair.SExt: mir.OpSExt,
	ssair.ZExt: mir.OpZExt, ssair.Trunc: mir.OpTrunc,
}

func (t *translator) translateInst(inst *ssair.Instruction, mb *mir.Block) {
	switch inst.Kind {
	case ssair.Immediate:
		mi := t.fn.NewInst(mir.OpImm, inst.Ty, true)
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.FuncRef:
		mi := t.fn.NewInst(mir.OpFuncRef, inst.Ty, true)
		mi.Func = t.funcRef(inst.Func)
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.StaticRef:
		mi := t.fn.NewInst(mir.OpStaticAddr, inst.Ty, true)
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Register:
		mi := t.fn.NewInst(mir.OpPhysReg, inst.Ty, true)
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Alloca:
		elem := types.ElementOf(inst.Ty)
		fo := t.fn.NewFrameObject(types.SizeOf(elem), 8)
		inst.AllocaOffset = fo.Index
		mi := t.fn.NewInst(mir.OpFrameAddr, inst.Ty, true)
		mi.Frame = fo
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Load:
		mi := t.fn.NewInst(mir.OpLoad, inst.Ty, true)
		mi.Args.Append(t.operand(inst.Args[0]))
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Store:
		mi := t.fn.NewInst(mir.OpStore, nil, false)
		mi.Args.Append(t.operand(inst.Args[0])) // value
		mi.Args.Append(t.operand(inst.Args[1])) // address
		mb.Append(mi)

	case ssair.Bitcast, ssair.SExt, ssair.ZExt, ssair.Trunc:
		mi := t.fn.NewInst(convOpcode[inst.Kind], inst.Ty, true)
		mi.Args.Append(t.operand(inst.Args[0]))
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Add, ssair.Sub, ssair.Mul, ssair.Div, ssair.Mod,
		ssair.Shl, ssair.Sar, ssair.Shr, ssair.And, ssair.Or,
		ssair.Lt, ssair.Le, ssair.Gt, ssair.Ge, ssair.Eq, ssair.Ne:
		mi := t.fn.NewInst(binOpcode[inst.Kind], inst.Ty, true)
		mi.Args.Append(t.operand(inst.Args[0]))
		mi.Args.Append(t.operand(inst.Args[1]))
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Not:
		mi := t.fn.NewInst(mir.OpNot, inst.Ty, true)
		mi.Args.Append(t.operand(inst.Args[0]))
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Branch:
		mi := t.fn.NewInst(mir.OpBranch, nil, false)
		mi.Target = t.mblock(inst.Target)
		mir.LinkEdge(mb, mi.Target)
		mb.Append(mi)

	case ssair.CondBranch:
		mi := t.fn.NewInst(mir.OpCondBranch, nil, false)
		mi.Cond = t.operand(inst.Cond)
		mi.HasCond = true
		mi.Then = t.mblock(inst.Then)
		mi.Else = t.mblock(inst.Else)
		mir.LinkEdge(mb, mi.Then)
		mir.LinkEdge(mb, mi.Else)
		mb.Append(mi)

	case ssair.Return:
		mi := t.fn.NewInst(mir.OpReturn, nil, false)
		if inst.RetVal != nil {
			mi.RetVal = t.operand(inst.RetVal)
			mi.HasRetVal = true
		}
		mb.Append(mi)

	case ssair.Unreachable:
		mi := t.fn.NewInst(mir.OpUnreachable, nil, false)
		mb.Append(mi)

	case ssair.Phi:
		mi := t.fn.NewInst(mir.OpPhi, inst.Ty, true)
		for _, pa := range inst.PhiArgs {
			mi.PhiArgs = append(mi.PhiArgs, mir.PhiArg{
				Pred:  t.mblock(pa.Pred),
				Value: t.operand(pa.Value),
			})
		}
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Call:
		mi := t.fn.NewInst(mir.OpCall, inst.Ty, inst.Ty != nil && !types.IsVoid(inst.Ty))
		if inst.IsIndirect {
			mi.IsIndirect = true
			mi.IndirectFn = t.operand(inst.IndirectFn)
		} else {
			mi.Func = t.funcRef(inst.Func)
		}
		for _, a := range inst.Args {
			mi.Args.Append(t.operand(a))
		}
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Intrinsic:
		mi := t.fn.NewInst(mir.OpIntrinsic, inst.Ty, inst.Ty != nil && !types.IsVoid(inst.Ty))
		mi.IntrinsicTag = int(inst.IntrinsicOp)
		for _, a := range inst.Args {
			mi.Args.Append(t.operand(a))
		}
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Copy:
		mi := t.fn.NewInst(mir.OpCopy, inst.Ty, true)
		mi.Args.Append(t.operand(inst.Args[0]))
		mb.Append(mi)
		t.vmap[inst] = mi

	case ssair.Poison:
		mi := t.fn.NewInst(mir.OpPoison, inst.Ty, true)
		mb.Append(mi)
		t.vmap[inst] = mi

	default:
		diag.ICE("mirgen: unrecognised ssair instruction kind %d", inst.Kind)
	}
}
