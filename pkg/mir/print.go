package mir

import (
	"fmt"
	"io"
)

// Printer writes a readable dump of mir functions, mirroring
// ssair.Printer's format for the driver's debug modes.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new mir printer writing to w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

// PrintFunction writes fn in a readable textual form.
func (p *Printer) PrintFunction(fn *Function) {
	kind := "define"
	if fn.Extern {
		kind = "declare"
	}
	fmt.Fprintf(p.w, "%s %s {\n", kind, fn.Name)
	for i, fo := range fn.Frame {
		fmt.Fprintf(p.w, "  frame[%d]: size=%d align=%d\n", i, fo.Size, fo.Align)
	}
	idx := blockIndices(fn)
	for i, b := range fn.Blocks {
		fmt.Fprintf(p.w, "bb%d:\n", i)
		for _, inst := range b.Insts {
			p.printInstruction(inst, idx)
		}
	}
	fmt.Fprintln(p.w, "}")
}

func blockIndices(fn *Function) map[*Block]int {
	idx := make(map[*Block]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		idx[b] = i
	}
	return idx
}

func (p *Printer) operandString(op Operand, idx map[*Block]int) string {
	switch op.Kind {
	case OperandImm:
		return fmt.Sprintf("%d", op.Imm)
	case OperandFunc:
		if op.Func != nil {
			return "@" + op.Func.Name
		}
		return "@<nil>"
	case OperandStatic:
		return "$" + op.Static
	case OperandFrame:
		if op.Frame != nil {
			return fmt.Sprintf("frame[%d]", op.Frame.Index)
		}
		return "frame[?]"
	default:
		if op.Reg == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%%%d", op.Reg.VReg)
	}
}

func (p *Printer) blockRef(b *Block, idx map[*Block]int) string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bb%d", idx[b])
}

func (p *Printer) printInstruction(inst *Instruction, idx map[*Block]int) {
	prefix := ""
	if inst.IsValue() {
		prefix = fmt.Sprintf("%%%d = ", inst.VReg)
	}
	switch inst.Opcode {
	case OpImm, OpFuncRef, OpStaticAddr:
		fmt.Fprintf(p.w, "  %smaterialize\n", prefix)
	case OpParam:
		fmt.Fprintf(p.w, "  %sparam\n", prefix)
	case OpPhysReg:
		fmt.Fprintf(p.w, "  %sphysreg\n", prefix)
	case OpFrameAddr:
		fmt.Fprintf(p.w, "  %sframeaddr %s\n", prefix, p.operandString(FrameOperand(inst.Frame), idx))
	case OpLoad:
		fmt.Fprintf(p.w, "  %sload %s\n", prefix, p.operandString(inst.Args.At(0), idx))
	case OpStore:
		fmt.Fprintf(p.w, "  store %s, %s\n", p.operandString(inst.Args.At(0), idx), p.operandString(inst.Args.At(1), idx))
	case OpBitcast, OpSExt, OpZExt, OpTrunc, OpNot, OpCopy, OpPoison:
		fmt.Fprintf(p.w, "  %s%s", prefix, opcodeName(inst.Opcode))
		if inst.Args.Len() > 0 {
			fmt.Fprintf(p.w, " %s", p.operandString(inst.Args.At(0), idx))
		}
		fmt.Fprintln(p.w)
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpShl, OpSar, OpShr, OpAnd, OpOr,
		OpLt, OpLe, OpGt, OpGe, OpEq, OpNe:
		fmt.Fprintf(p.w, "  %s%s %s, %s\n", prefix, opcodeName(inst.Opcode),
			p.operandString(inst.Args.At(0), idx), p.operandString(inst.Args.At(1), idx))
	case OpBranch:
		fmt.Fprintf(p.w, "  branch %s\n", p.blockRef(inst.Target, idx))
	case OpCondBranch:
		fmt.Fprintf(p.w, "  condbranch %s, %s, %s\n", p.operandString(inst.Cond, idx), p.blockRef(inst.Then, idx), p.blockRef(inst.Else, idx))
	case OpReturn:
		if inst.HasRetVal {
			fmt.Fprintf(p.w, "  return %s\n", p.operandString(inst.RetVal, idx))
		} else {
			fmt.Fprintln(p.w, "  return")
		}
	case OpUnreachable:
		fmt.Fprintln(p.w, "  unreachable")
	case OpPhi:
		fmt.Fprintf(p.w, "  %sphi", prefix)
		for i, a := range inst.PhiArgs {
			if i > 0 {
				fmt.Fprint(p.w, ",")
			}
			fmt.Fprintf(p.w, " [%s: %s]", p.blockRef(a.Pred, idx), p.operandString(a.Value, idx))
		}
		fmt.Fprintln(p.w)
	case OpCall:
		callee := "<indirect>"
		if !inst.IsIndirect && inst.Func != nil {
			callee = "@" + inst.Func.Name
		} else if inst.IsIndirect {
			callee = p.operandString(inst.IndirectFn, idx)
		}
		fmt.Fprintf(p.w, "  %scall %s(", prefix, callee)
		for i := 0; i < inst.Args.Len(); i++ {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprint(p.w, p.operandString(inst.Args.At(i), idx))
		}
		fmt.Fprintln(p.w, ")")
	case OpIntrinsic:
		fmt.Fprintf(p.w, "  %sintrinsic#%d(", prefix, inst.IntrinsicTag)
		for i := 0; i < inst.Args.Len(); i++ {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprint(p.w, p.operandString(inst.Args.At(i), idx))
		}
		fmt.Fprintln(p.w, ")")
	}
}

func opcodeName(op Opcode) string {
	names := map[Opcode]string{
		OpBitcast: "bitcast", OpSExt: "sext", OpZExt: "zext", OpTrunc: "trunc",
		OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
		OpShl: "shl", OpSar: "sar", OpShr: "shr", OpAnd: "and", OpOr: "or", OpNot: "not",
		OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge", OpEq: "eq", OpNe: "ne",
		OpCopy: "copy", OpPoison: "poison",
	}
	if n, ok := names[op]; ok {
		return n
	}
	return "?"
}
