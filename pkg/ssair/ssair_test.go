package ssair

import (
	"testing"

	"github.com/gointercept/compiler/pkg/types"
)

func newInst(k Kind) *Instruction { return &Instruction{Kind: k} }

func TestBlockClosedAndAppendPanics(t *testing.T) {
	fn := NewFunction("f", types.Function{}, LocalVar)
	b := fn.AppendBlock()

	if b.Closed() {
		t.Fatal("empty block reports closed")
	}
	b.Append(newInst(Add))
	if b.Closed() {
		t.Fatal("block with a non-terminator last instruction reports closed")
	}
	b.Append(newInst(Return))
	if !b.Closed() {
		t.Fatal("block with a terminator last instruction reports open")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Append to panic on a closed block")
		}
	}()
	b.Append(newInst(Add))
}

func TestUseListTracksArgs(t *testing.T) {
	fn := NewFunction("f", types.Function{}, LocalVar)
	b := fn.AppendBlock()

	lhs := b.Append(newInst(Immediate))
	rhs := b.Append(newInst(Immediate))
	add := b.Append(newInst(Add))
	add.SetArgs(lhs, rhs)

	if lhs.UseCount() != 1 {
		t.Errorf("lhs.UseCount() = %d, want 1", lhs.UseCount())
	}
	if rhs.UseCount() != 1 {
		t.Errorf("rhs.UseCount() = %d, want 1", rhs.UseCount())
	}

	other := b.Append(newInst(Immediate))
	add.SetArgs(lhs, other)
	if rhs.UseCount() != 0 {
		t.Errorf("rhs.UseCount() = %d after being replaced, want 0", rhs.UseCount())
	}
	if other.UseCount() != 1 {
		t.Errorf("other.UseCount() = %d, want 1", other.UseCount())
	}
	if lhs.UseCount() != 1 {
		t.Errorf("lhs.UseCount() = %d, want 1 (unchanged operand)", lhs.UseCount())
	}
}

func TestUseListTracksCondRetValIndirectFn(t *testing.T) {
	fn := NewFunction("f", types.Function{}, LocalVar)
	b := fn.AppendBlock()
	thenB := fn.AppendBlock()
	elseB := fn.AppendBlock()

	cond := b.Append(newInst(Immediate))
	cb := newInst(CondBranch)
	cb.Then, cb.Else = thenB, elseB
	cb.SetCond(cond)
	b.Append(cb)
	if cond.UseCount() != 1 {
		t.Errorf("cond.UseCount() = %d, want 1", cond.UseCount())
	}

	retVal := thenB.Append(newInst(Immediate))
	ret := newInst(Return)
	ret.SetRetVal(retVal)
	thenB.Append(ret)
	if retVal.UseCount() != 1 {
		t.Errorf("retVal.UseCount() = %d, want 1", retVal.UseCount())
	}

	callee := elseB.Append(newInst(Immediate))
	call := newInst(Call)
	call.IsIndirect = true
	call.SetIndirectFn(callee)
	elseB.Append(call)
	if callee.UseCount() != 1 {
		t.Errorf("callee.UseCount() = %d, want 1", callee.UseCount())
	}
	elseB.Append(newInst(Unreachable))
}

func TestPhiArgUseTracking(t *testing.T) {
	fn := NewFunction("f", types.Function{}, LocalVar)
	entry := fn.AppendBlock()
	thenB := fn.AppendBlock()
	elseB := fn.AppendBlock()
	join := fn.AppendBlock()

	entry.Append(newInst(Unreachable)) // close entry arbitrarily for the test

	thenVal := thenB.Append(newInst(Immediate))
	thenB.Append(newInst(Branch)).Target = join

	elseVal := elseB.Append(newInst(Immediate))
	elseB.Append(newInst(Branch)).Target = join

	phi := newInst(Phi)
	phi.AddPhiArg(thenB, thenVal)
	phi.AddPhiArg(elseB, elseVal)
	join.Append(phi)
	join.Append(newInst(Return))

	if thenVal.UseCount() != 1 || elseVal.UseCount() != 1 {
		t.Errorf("phi operands not tracked: then=%d else=%d", thenVal.UseCount(), elseVal.UseCount())
	}
	if len(phi.PhiArgs) != 2 {
		t.Errorf("phi has %d args, want 2", len(phi.PhiArgs))
	}
}

func TestIsValue(t *testing.T) {
	cases := []struct {
		kind Kind
		ty   types.Type
		want bool
	}{
		{Add, types.Integer{BitWidth: 64, Signed: true}, true},
		{Store, nil, false},
		{Branch, nil, false},
		{CondBranch, nil, false},
		{Return, nil, false},
		{Unreachable, nil, false},
		{Intrinsic, types.Primitive{Name: "void"}, false},
		{Intrinsic, types.Integer{BitWidth: 64}, true},
		{Call, types.Integer{BitWidth: 64}, true},
	}
	for _, c := range cases {
		inst := &Instruction{Kind: c.kind, Ty: c.ty}
		if got := inst.IsValue(); got != c.want {
			t.Errorf("IsValue(%v, %v) = %v, want %v", c.kind, c.ty, got, c.want)
		}
	}
}

func TestAllocaOffsetSentinel(t *testing.T) {
	inst := &Instruction{Kind: Alloca, AllocaOffset: AllocaOffsetUnset}
	if inst.AllocaOffset != -1 {
		t.Errorf("AllocaOffsetUnset = %d, want -1", inst.AllocaOffset)
	}
}

func TestEntryIsFirstBlock(t *testing.T) {
	fn := NewFunction("f", types.Function{}, LocalVar)
	if fn.Entry() != nil {
		t.Fatal("Entry() of a function with no blocks should be nil")
	}
	first := fn.AppendBlock()
	fn.AppendBlock()
	if fn.Entry() != first {
		t.Error("Entry() did not return the first appended block")
	}
}
