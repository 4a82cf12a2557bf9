// Package mir defines Machine IR: the virtual-register, explicit-frame
// representation the MIR translator (pkg/mirgen) produces from ssair.
// It generalizes the teacher's Mach representation (pkg/mach, a flat
// per-function instruction list with concrete frame offsets) back up
// one level of abstraction — virtual registers instead of physical
// ones, frame *objects* instead of resolved offsets, and explicit
// block successor/predecessor links instead of Mach's label-based
// control flow — since target-specific register allocation and frame
// layout are out of scope for this core (spec.md §1).
package mir

import (
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// ARCH_START is the first virtual register number and the first
// opcode number a target-specific backend may use for its own
// physical registers and machine opcodes; everything below it belongs
// to this core (spec.md §3.3 "opcode space split at ARCH_START").
const ARCH_START = 1 << 16

// Opcode enumerates MIR instruction kinds. Most mirror an ssair Kind
// 1:1; Phi survives only until phi-to-copy lowering runs, and Copy is
// the instruction that lowering introduces in its place.
type Opcode int

const (
	OpImm Opcode = iota
	OpFuncRef
	OpStaticAddr
	OpParam
	OpFrameAddr
	OpLoad
	OpStore
	OpBitcast
	OpSExt
	OpZExt
	OpTrunc
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpSar
	OpShr
	OpAnd
	OpOr
	OpNot
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpBranch
	OpCondBranch
	OpReturn
	OpUnreachable
	OpPhi
	OpCall
	OpIntrinsic
	OpCopy
	OpPoison
	OpPhysReg
)

func isTerminatorOp(op Opcode) bool {
	switch op {
	case OpBranch, OpCondBranch, OpReturn, OpUnreachable:
		return true
	}
	return false
}

// OperandKind discriminates an Operand's active field.
type OperandKind int

const (
	OperandReg OperandKind = iota
	OperandImm
	OperandFunc
	OperandStatic
	OperandFrame
)

// Operand is the value an instruction consumes: a reference to another
// instruction's vreg, or — when the operand-inlining priority rule
// applies (spec.md §4.2) — an immediate, a function reference or a
// static name folded directly into the consuming instruction instead
// of through a separate materialised instruction.
type Operand struct {
	Kind   OperandKind
	Reg    *Instruction
	Imm    int64
	Func   *Function
	Static string
	Frame  *FrameObject
}

// RegOperand wraps a vreg-producing instruction as an operand.
func RegOperand(i *Instruction) Operand { return Operand{Kind: OperandReg, Reg: i} }

// ImmOperand wraps an inlined immediate.
func ImmOperand(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }

// FuncOperand wraps an inlined function reference.
func FuncOperand(f *Function) Operand { return Operand{Kind: OperandFunc, Func: f} }

// StaticOperand wraps an inlined static-variable name reference.
func StaticOperand(name string) Operand { return Operand{Kind: OperandStatic, Static: name} }

// FrameOperand wraps a reference to a frame object's address.
func FrameOperand(fo *FrameObject) Operand { return Operand{Kind: OperandFrame, Frame: fo} }

// OperandList is a small-buffer-optimized operand vector: the common
// case (zero to four operands) never allocates; a call with more
// arguments spills into extra (spec.md §3.3).
type OperandList struct {
	inline [4]Operand
	n      int
	extra  []Operand
}

// Append adds op to the end of the list.
func (l *OperandList) Append(op Operand) {
	if l.n < len(l.inline) {
		l.inline[l.n] = op
	} else {
		l.extra = append(l.extra, op)
	}
	l.n++
}

// Len returns the number of operands.
func (l *OperandList) Len() int { return l.n }

// At returns the operand at index i.
func (l *OperandList) At(i int) Operand {
	if i < len(l.inline) {
		return l.inline[i]
	}
	return l.extra[i-len(l.inline)]
}

// Set overwrites the operand at index i.
func (l *OperandList) Set(i int, op Operand) {
	if i < len(l.inline) {
		l.inline[i] = op
	} else {
		l.extra[i-len(l.inline)] = op
	}
}

// Slice materialises the full operand list, for callers (the printer,
// the dot exporter, tests) that want to range over it without caring
// about the inline/overflow split.
func (l *OperandList) Slice() []Operand {
	out := make([]Operand, 0, l.n)
	for i := 0; i < l.n; i++ {
		out = append(out, l.At(i))
	}
	return out
}

// FrameObject is a stack slot an Alloca lowers to, one-to-one
// (spec.md §8 property 5). Offset assignment is a target-specific
// stacking concern and stays unset here.
type FrameObject struct {
	Size  int64
	Align int64
	Index int
}

// PhiArg is one (predecessor block, value) pair of a not-yet-lowered
// Phi instruction.
type PhiArg struct {
	Pred  *Block
	Value Operand
}

// Instruction is a MIR instruction: an opcode, an optional
// value-producing virtual register, its operands, and bookkeeping
// back to the ssair instruction it was translated from.
type Instruction struct {
	Opcode Opcode
	VReg   int // -1 if this instruction produces no value
	Block  *Block
	Ty     types.Type
	Origin *ssair.Instruction

	Args OperandList

	Target *Block // Branch
	Then   *Block // CondBranch
	Else   *Block // CondBranch
	Cond   Operand
	HasCond bool

	RetVal    Operand
	HasRetVal bool

	Func         *Function // direct Call target
	IsIndirect   bool
	IndirectFn   Operand
	IntrinsicTag int

	Frame *FrameObject // OpFrameAddr

	PhiArgs []PhiArg

	// lowered is a union-find forwarding pointer: once an instruction
	// is marked as replaced by another (forwardTo), operand resolution
	// follows this chain instead of leaving stale references (spec.md
	// §4.2). pkg/mirgen never sets it: phi lowering and the sweep of
	// materialised instructions remove instructions without forwarding.
	lowered *Instruction
}

// IsValue reports whether this instruction produces a usable vreg.
func (inst *Instruction) IsValue() bool { return inst.VReg >= 0 }

// Resolve follows the lowered forwarding chain to the live
// replacement for inst, or inst itself if it was never replaced.
func (inst *Instruction) Resolve() *Instruction {
	for inst.lowered != nil {
		inst = inst.lowered
	}
	return inst
}

// forwardTo marks inst as replaced by repl.
func (inst *Instruction) forwardTo(repl *Instruction) { inst.lowered = repl }

// Block is a MIR basic block with explicit predecessor/successor
// links, rather than Mach's label-addressed control flow, since those
// links are what the phi-to-copy lowering pass and a dominance-based
// backend would both need (spec.md §3.3, §4.2).
type Block struct {
	Func   *Function
	Origin *ssair.Block
	Insts  []*Instruction
	Preds  []*Block
	Succs  []*Block

	// Trampoline marks a block the phi-lowering pass synthesised to
	// split a critical edge; it carries no ssair origin.
	Trampoline bool
}

// Closed reports whether b's last instruction is a terminator.
func (b *Block) Closed() bool {
	if len(b.Insts) == 0 {
		return false
	}
	return isTerminatorOp(b.Insts[len(b.Insts)-1].Opcode)
}

// Append inserts inst at the end of b.
func (b *Block) Append(inst *Instruction) *Instruction {
	inst.Block = b
	b.Insts = append(b.Insts, inst)
	return inst
}

// Function is a translated MIR function.
type Function struct {
	Name   string
	Sig    types.Function
	Origin *ssair.Function
	Extern bool

	Params []*Instruction
	Blocks []*Block
	Frame  []*FrameObject

	nextVReg int
}

// NewFunction creates an empty MIR function whose virtual registers
// start numbering at ARCH_START.
func NewFunction(name string, sig types.Function, origin *ssair.Function) *Function {
	return &Function{Name: name, Sig: sig, Origin: origin, nextVReg: ARCH_START}
}

// NewInst allocates a fresh instruction. assignVReg controls whether
// it receives a fresh virtual register (value-producing kinds) or -1
// (side-effecting/control kinds).
func (f *Function) NewInst(op Opcode, ty types.Type, assignVReg bool) *Instruction {
	inst := &Instruction{Opcode: op, Ty: ty, VReg: -1}
	if assignVReg {
		inst.VReg = f.nextVReg
		f.nextVReg++
	}
	return inst
}

// AppendBlock creates a new block owned by f and appends it.
func (f *Function) AppendBlock() *Block {
	b := &Block{Func: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewFrameObject allocates a frame object for a one-to-one Alloca
// lowering and registers it with f.
func (f *Function) NewFrameObject(size, align int64) *FrameObject {
	fo := &FrameObject{Size: size, Align: align, Index: len(f.Frame)}
	f.Frame = append(f.Frame, fo)
	return fo
}

// LinkEdge records a CFG edge from -> to in both directions.
func LinkEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}
