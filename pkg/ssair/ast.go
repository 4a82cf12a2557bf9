// Package ssair defines the static-single-assignment-style intermediate
// representation the builder (pkg/ssairbuild) produces: block-structured
// functions of typed instructions with explicit use-lists, generalizing
// the teacher's node-graph RTL (pkg/rtl) into an SSA form with phi nodes,
// since RTL's node-successor model has no phi support (see DESIGN.md).
package ssair

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/types"
)

// Linkage mirrors cgast.Linkage, repeated here because ssair.Function
// is the value the rest of the pipeline (including the mangler) owns.
type Linkage int

const (
	LocalVar Linkage = iota
	Exported
	Imported
	Reexported
	Internal
)

// Attrs holds the function attribute flags spec.md §3.2 lists.
type Attrs struct {
	NoMangle    bool
	ForceInline bool
	NoReturn    bool
	Pure        bool
	Leaf        bool
	ConstEval   bool
	Discardable bool
}

// Function owns a name (mutable — the mangler rewrites it), the
// original source-level name (never overwritten, per spec.md §9's
// mangled-name-retention open question), a function type, linkage,
// attributes, parameter placeholders and an ordered block list.
type Function struct {
	Name       string
	SourceName string
	Sig        types.Function
	Linkage    Linkage
	Attrs      Attrs
	Params     []*Instruction // Parameter-kind instructions, in order
	Blocks     []*Block
	Extern     bool // true if this is a declaration with no body

	nextInstID int
}

// Entry returns the function's entry block, or nil if it has none.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewFunction creates an empty function. Blocks are appended with
// AppendBlock as the builder constructs control flow.
func NewFunction(name string, sig types.Function, linkage Linkage) *Function {
	return &Function{Name: name, SourceName: name, Sig: sig, Linkage: linkage}
}

// AppendBlock creates a new block owned by f and appends it.
func (f *Function) AppendBlock() *Block {
	b := &Block{Func: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Block owns an ordered instruction sequence and belongs to exactly one
// function. A block is closed once its last instruction is a terminator.
type Block struct {
	Func  *Function
	Insts []*Instruction
}

// Closed reports whether b's last instruction is a terminator.
func (b *Block) Closed() bool {
	if len(b.Insts) == 0 {
		return false
	}
	return isTerminator(b.Insts[len(b.Insts)-1].Kind)
}

// Append inserts inst at the end of b. It panics (an internal invariant
// violation, spec.md §8 property 1) if b is already closed.
func (b *Block) Append(inst *Instruction) *Instruction {
	if b.Closed() {
		panic("ssair: insertion into a closed block")
	}
	inst.Block = b
	b.Insts = append(b.Insts, inst)
	return inst
}

// Kind enumerates the 39 instruction kinds of spec.md §3.2.
type Kind int

const (
	// constants
	Immediate Kind = iota
	InternedString
	// references
	StaticRef
	FuncRef
	Parameter
	Register
	Alloca
	// memory
	Load
	Store
	// conversion
	Bitcast
	SExt
	ZExt
	Trunc
	// arithmetic/logic
	Add
	Sub
	Mul
	Div
	Mod
	Shl
	Sar
	Shr
	And
	Or
	Not
	// comparison
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
	// control
	Branch
	CondBranch
	Return
	Unreachable
	Phi
	// calls
	Call
	Intrinsic
	// misc
	Copy
	Poison
)

func isTerminator(k Kind) bool {
	switch k {
	case Branch, CondBranch, Return, Unreachable:
		return true
	}
	return false
}

// PhiArg is one (predecessor, value) pair of a Phi instruction.
type PhiArg struct {
	Pred  *Block
	Value *Instruction
}

// Instruction is a tagged-variant IR instruction. Every instruction has
// a unique identity (ID), an owning block, a producing type (for
// value-producing kinds), a source location, and a use list.
type Instruction struct {
	ID    int
	Kind  Kind
	Block *Block
	Ty    types.Type
	Loc   cgast.Pos

	// Operands, by kind. Not every field is meaningful for every kind;
	// see the doc comment on each Kind group in spec.md §3.2.
	IntValue    int64         // Immediate
	StrValue    string        // InternedString / static/global name
	StaticName  string        // StaticRef
	Func        *Function     // FuncRef, direct Call
	Args        []*Instruction // operands: Load addr, Store value+addr, arithmetic operands, Call args, Intrinsic args, Phi handled via PhiArgs
	PhiArgs     []PhiArg      // Phi
	Target      *Block        // Branch
	Then        *Block        // CondBranch
	Else        *Block        // CondBranch
	Cond        *Instruction  // CondBranch
	RetVal      *Instruction  // Return (nil for void)
	IndirectFn  *Instruction  // indirect Call callee
	IsIndirect  bool          // Call
	IntrinsicOp cgast.IntrinsicKind

	AllocaOffset int // sentinel -1 until the MIR translator assigns a frame-object index

	uses []*use
}

const AllocaOffsetUnset = -1

// use is one reference from a using instruction/function to this value.
type use struct {
	user     *Instruction
	userFunc *Function // not set by any operand setter in this package; every recorded use sets user
}

// UseCount returns the number of operand slots across the function that
// reference inst (spec.md §8 property 3).
func (inst *Instruction) UseCount() int { return len(inst.uses) }

// addUse records that user references inst as an operand.
func (inst *Instruction) addUse(user *Instruction) {
	inst.uses = append(inst.uses, &use{user: user})
}

// removeAllUsesBy drops every use record contributed by user (used when
// an operand slot is rewritten or an instruction is deleted).
func (inst *Instruction) removeAllUsesBy(user *Instruction) {
	kept := inst.uses[:0]
	for _, u := range inst.uses {
		if u.user != user {
			kept = append(kept, u)
		}
	}
	inst.uses = kept
}

// SetArgs replaces inst's Args operand list, maintaining use counts on
// both the old and new operands.
func (inst *Instruction) SetArgs(args ...*Instruction) {
	for _, old := range inst.Args {
		if old != nil {
			old.removeAllUsesBy(inst)
		}
	}
	inst.Args = args
	for _, a := range args {
		if a != nil {
			a.addUse(inst)
		}
	}
}

// AddArg appends a single operand, maintaining its use count.
func (inst *Instruction) AddArg(arg *Instruction) {
	inst.Args = append(inst.Args, arg)
	if arg != nil {
		arg.addUse(inst)
	}
}

// SetCond sets the condition operand of a CondBranch, maintaining use counts.
func (inst *Instruction) SetCond(cond *Instruction) {
	if inst.Cond != nil {
		inst.Cond.removeAllUsesBy(inst)
	}
	inst.Cond = cond
	if cond != nil {
		cond.addUse(inst)
	}
}

// SetRetVal sets the Return value operand, maintaining use counts.
func (inst *Instruction) SetRetVal(v *Instruction) {
	if inst.RetVal != nil {
		inst.RetVal.removeAllUsesBy(inst)
	}
	inst.RetVal = v
	if v != nil {
		v.addUse(inst)
	}
}

// SetIndirectFn sets the callee operand of an indirect Call.
func (inst *Instruction) SetIndirectFn(fn *Instruction) {
	if inst.IndirectFn != nil {
		inst.IndirectFn.removeAllUsesBy(inst)
	}
	inst.IndirectFn = fn
	if fn != nil {
		fn.addUse(inst)
	}
}

// AddPhiArg appends one (pred, value) pair to a Phi, maintaining use counts.
func (inst *Instruction) AddPhiArg(pred *Block, value *Instruction) {
	inst.PhiArgs = append(inst.PhiArgs, PhiArg{Pred: pred, Value: value})
	if value != nil {
		value.addUse(inst)
	}
}

// IsValue reports whether this instruction kind produces a usable value
// (as opposed to a pure side-effecting/control instruction).
func (inst *Instruction) IsValue() bool {
	switch inst.Kind {
	case Store, Branch, CondBranch, Return, Unreachable:
		return false
	case Intrinsic:
		return inst.Ty != nil && !types.IsVoid(inst.Ty)
	default:
		return true
	}
}
