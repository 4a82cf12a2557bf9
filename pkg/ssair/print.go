package ssair

import (
	"fmt"
	"io"
)

// Printer writes a readable dump of ssair functions, used by the
// driver's --print-ir-and-exit debug mode and by tests. There is no
// matching textual parser: spec.md §9 explicitly leaves the IR parser
// an open question this core resolves by omission.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new ssair printer writing to w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

// PrintFunction writes fn in a readable textual form.
func (p *Printer) PrintFunction(fn *Function) {
	kind := "define"
	if fn.Extern {
		kind = "declare"
	}
	fmt.Fprintf(p.w, "%s %s %s {\n", kind, fn.Sig.Return, fn.Name)
	for i, b := range fn.Blocks {
		fmt.Fprintf(p.w, "bb%d:\n", i)
		for _, inst := range b.Insts {
			p.printInstruction(inst, blockIndex(fn))
		}
	}
	fmt.Fprintln(p.w, "}")
}

func blockIndex(fn *Function) map[*Block]int {
	idx := make(map[*Block]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		idx[b] = i
	}
	return idx
}

func (p *Printer) printInstruction(inst *Instruction, idx map[*Block]int) {
	ref := func(i *Instruction) string {
		if i == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%%%d", i.ID)
	}
	blk := func(b *Block) string {
		if b == nil {
			return "<nil>"
		}
		return fmt.Sprintf("bb%d", idx[b])
	}
	prefix := ""
	if inst.IsValue() {
		prefix = fmt.Sprintf("%%%d = ", inst.ID)
	}
	switch inst.Kind {
	case Immediate:
		fmt.Fprintf(p.w, "  %simm %d\n", prefix, inst.IntValue)
	case InternedString:
		fmt.Fprintf(p.w, "  %sstr %q\n", prefix, inst.StrValue)
	case StaticRef:
		fmt.Fprintf(p.w, "  %sstatic @%s\n", prefix, inst.StaticName)
	case FuncRef:
		name := ""
		if inst.Func != nil {
			name = inst.Func.Name
		}
		fmt.Fprintf(p.w, "  %sfuncref @%s\n", prefix, name)
	case Parameter:
		fmt.Fprintf(p.w, "  %sparam\n", prefix)
	case Register:
		fmt.Fprintf(p.w, "  %sphysreg\n", prefix)
	case Alloca:
		fmt.Fprintf(p.w, "  %salloca\n", prefix)
	case Load:
		fmt.Fprintf(p.w, "  %sload %s\n", prefix, ref(inst.Args[0]))
	case Store:
		fmt.Fprintf(p.w, "  store %s, %s\n", ref(inst.Args[0]), ref(inst.Args[1]))
	case Bitcast, SExt, ZExt, Trunc:
		fmt.Fprintf(p.w, "  %s%s %s\n", prefix, kindName(inst.Kind), ref(inst.Args[0]))
	case Add, Sub, Mul, Div, Mod, Shl, Sar, Shr, And, Or:
		fmt.Fprintf(p.w, "  %s%s %s, %s\n", prefix, kindName(inst.Kind), ref(inst.Args[0]), ref(inst.Args[1]))
	case Not:
		fmt.Fprintf(p.w, "  %snot %s\n", prefix, ref(inst.Args[0]))
	case Lt, Le, Gt, Ge, Eq, Ne:
		fmt.Fprintf(p.w, "  %s%s %s, %s\n", prefix, kindName(inst.Kind), ref(inst.Args[0]), ref(inst.Args[1]))
	case Branch:
		fmt.Fprintf(p.w, "  branch %s\n", blk(inst.Target))
	case CondBranch:
		fmt.Fprintf(p.w, "  condbranch %s, %s, %s\n", ref(inst.Cond), blk(inst.Then), blk(inst.Else))
	case Return:
		if inst.RetVal != nil {
			fmt.Fprintf(p.w, "  return %s\n", ref(inst.RetVal))
		} else {
			fmt.Fprintln(p.w, "  return")
		}
	case Unreachable:
		fmt.Fprintln(p.w, "  unreachable")
	case Phi:
		fmt.Fprintf(p.w, "  %sphi", prefix)
		for i, a := range inst.PhiArgs {
			if i > 0 {
				fmt.Fprint(p.w, ",")
			}
			fmt.Fprintf(p.w, " [%s: %s]", blk(a.Pred), ref(a.Value))
		}
		fmt.Fprintln(p.w)
	case Call:
		callee := "<indirect>"
		if !inst.IsIndirect && inst.Func != nil {
			callee = "@" + inst.Func.Name
		} else if inst.IndirectFn != nil {
			callee = ref(inst.IndirectFn)
		}
		fmt.Fprintf(p.w, "  %scall %s(", prefix, callee)
		for i, a := range inst.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprint(p.w, ref(a))
		}
		fmt.Fprintln(p.w, ")")
	case Intrinsic:
		fmt.Fprintf(p.w, "  %sintrinsic(", prefix)
		for i, a := range inst.Args {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprint(p.w, ref(a))
		}
		fmt.Fprintln(p.w, ")")
	case Copy:
		fmt.Fprintf(p.w, "  %scopy %s\n", prefix, ref(inst.Args[0]))
	case Poison:
		fmt.Fprintf(p.w, "  %spoison\n", prefix)
	}
}

func kindName(k Kind) string {
	names := map[Kind]string{
		Bitcast: "bitcast", SExt: "sext", ZExt: "zext", Trunc: "trunc",
		Add: "add", Sub: "sub", Mul: "mul", Div: "div", Mod: "mod",
		Shl: "shl", Sar: "sar", Shr: "shr", And: "and", Or: "or", Not: "not",
		Lt: "lt", Le: "le", Gt: "gt", Ge: "ge", Eq: "eq", Ne: "ne",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "?"
}
