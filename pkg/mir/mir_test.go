package mir

import (
	"testing"

	"github.com/gointercept/compiler/pkg/types"
)

func TestOperandListSmallBufferOptimisation(t *testing.T) {
	var l OperandList
	for i := 0; i < 4; i++ {
		l.Append(ImmOperand(int64(i)))
	}
	if l.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", l.Len())
	}
	for i := 0; i < 4; i++ {
		if got := l.At(i).Imm; got != int64(i) {
			t.Errorf("At(%d) = %d, want %d", i, got, i)
		}
	}

	// A fifth operand must spill into the overflow slice without
	// disturbing the first four.
	l.Append(ImmOperand(99))
	if l.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", l.Len())
	}
	if got := l.At(4).Imm; got != 99 {
		t.Errorf("At(4) = %d, want 99", got)
	}
	for i := 0; i < 4; i++ {
		if got := l.At(i).Imm; got != int64(i) {
			t.Errorf("overflow append disturbed At(%d) = %d, want %d", i, got, i)
		}
	}

	l.Set(4, ImmOperand(100))
	if got := l.At(4).Imm; got != 100 {
		t.Errorf("Set(4, ...) then At(4) = %d, want 100", got)
	}

	slice := l.Slice()
	if len(slice) != 5 {
		t.Errorf("Slice() has %d elements, want 5", len(slice))
	}
}

func TestBlockClosedAndAppend(t *testing.T) {
	fn := NewFunction("f", types.Function{}, nil)
	b := fn.AppendBlock()
	if b.Closed() {
		t.Fatal("empty block reports closed")
	}
	nonTerm := fn.NewInst(OpAdd, types.Integer{BitWidth: 64}, true)
	b.Append(nonTerm)
	if b.Closed() {
		t.Fatal("block with non-terminator last instruction reports closed")
	}
	term := fn.NewInst(OpReturn, nil, false)
	b.Append(term)
	if !b.Closed() {
		t.Fatal("block with terminator last instruction reports open")
	}
}

func TestNewInstVRegAllocation(t *testing.T) {
	fn := NewFunction("f", types.Function{}, nil)
	a := fn.NewInst(OpAdd, types.Integer{BitWidth: 64}, true)
	b := fn.NewInst(OpAdd, types.Integer{BitWidth: 64}, true)
	if a.VReg < ARCH_START {
		t.Errorf("first vreg %d is below ARCH_START %d", a.VReg, ARCH_START)
	}
	if b.VReg != a.VReg+1 {
		t.Errorf("vregs not monotonic: %d then %d", a.VReg, b.VReg)
	}

	noVal := fn.NewInst(OpStore, nil, false)
	if noVal.IsValue() {
		t.Error("instruction created with assignVReg=false reports IsValue() true")
	}
	if noVal.VReg != -1 {
		t.Errorf("VReg = %d, want -1", noVal.VReg)
	}
}

func TestFrameObjectOneToOneWithIndex(t *testing.T) {
	fn := NewFunction("f", types.Function{}, nil)
	fo1 := fn.NewFrameObject(8, 8)
	fo2 := fn.NewFrameObject(16, 8)
	if fo1.Index != 0 || fo2.Index != 1 {
		t.Errorf("frame object indices = %d, %d, want 0, 1", fo1.Index, fo2.Index)
	}
	if len(fn.Frame) != 2 {
		t.Errorf("len(fn.Frame) = %d, want 2", len(fn.Frame))
	}
}

func TestLinkEdgeRecordsBothDirections(t *testing.T) {
	fn := NewFunction("f", types.Function{}, nil)
	a := fn.AppendBlock()
	b := fn.AppendBlock()
	LinkEdge(a, b)
	if len(a.Succs) != 1 || a.Succs[0] != b {
		t.Errorf("a.Succs = %v, want [b]", a.Succs)
	}
	if len(b.Preds) != 1 || b.Preds[0] != a {
		t.Errorf("b.Preds = %v, want [a]", b.Preds)
	}
}

func TestResolveForwardsThroughChain(t *testing.T) {
	fn := NewFunction("f", types.Function{}, nil)
	orig := fn.NewInst(OpImm, types.Integer{BitWidth: 64}, true)
	repl := fn.NewInst(OpImm, types.Integer{BitWidth: 64}, true)
	if orig.Resolve() != orig {
		t.Fatal("unreplaced instruction should resolve to itself")
	}
	orig.forwardTo(repl)
	if orig.Resolve() != repl {
		t.Error("Resolve() did not follow the forwarding pointer")
	}
}
