package ssairbuild

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

func isEmptyBody(n cgast.Node) bool {
	if n == nil {
		return true
	}
	blk, ok := n.(*cgast.Block)
	return ok && len(blk.Children) == 0
}

// emitIf lowers an If node: three blocks {then, else, join}, a
// CondBranch from the block the condition ends in, each arm branching
// to join when not already closed, and a join-side Phi when the If
// produces a value (spec.md §4.1 "If"). The join block is attached to
// the function only after both arms are emitted, so it follows every
// block the arms create.
func (b *Builder) emitIf(n *cgast.If) *ssair.Instruction {
	thenBlk := b.fn.AppendBlock()
	elseBlk := b.fn.AppendBlock()
	joinBlk := &ssair.Block{Func: b.fn}

	cond := b.emitRvalue(n.Cond)
	condBr := b.newVal(ssair.CondBranch, nil, n.Pos())
	condBr.SetCond(cond)
	condBr.Then = thenBlk
	condBr.Else = elseBlk

	b.cur = thenBlk
	thenVal := b.emitRvalue(n.Then)
	lastThen := b.cur
	thenReaches := !lastThen.Closed()
	if thenReaches {
		b.branchTo(joinBlk, n.Pos())
	}

	b.cur = elseBlk
	var elseVal *ssair.Instruction
	if n.Else != nil {
		elseVal = b.emitRvalue(n.Else)
	}
	lastElse := b.cur
	elseReaches := !lastElse.Closed()
	if elseReaches {
		b.branchTo(joinBlk, n.Pos())
	}

	b.fn.Blocks = append(b.fn.Blocks, joinBlk)
	b.cur = joinBlk
	if types.IsVoid(n.Type()) {
		return nil
	}
	phi := b.newVal(ssair.Phi, n.Type(), n.Pos())
	if thenReaches {
		phi.AddPhiArg(lastThen, thenVal)
	}
	if elseReaches {
		phi.AddPhiArg(lastElse, elseVal)
	}
	return phi
}

// emitWhile lowers a While loop: {cond, join} plus a body block when
// the body is non-empty (spec.md §4.1 "While").
func (b *Builder) emitWhile(n *cgast.While) *ssair.Instruction {
	condBlk := b.fn.AppendBlock()
	joinBlk := b.fn.AppendBlock()

	b.branchTo(condBlk, n.Pos())
	b.cur = condBlk
	condVal := b.emitRvalue(n.Cond)

	if isEmptyBody(n.Body) {
		cb := b.newVal(ssair.CondBranch, nil, n.Pos())
		cb.SetCond(condVal)
		cb.Then = condBlk
		cb.Else = joinBlk
	} else {
		bodyBlk := b.fn.AppendBlock()
		cb := b.newVal(ssair.CondBranch, nil, n.Pos())
		cb.SetCond(condVal)
		cb.Then = bodyBlk
		cb.Else = joinBlk

		b.cur = bodyBlk
		b.emitRvalue(n.Body)
		if !b.cur.Closed() {
			b.branchTo(condBlk, n.Pos())
		}
	}

	b.cur = joinBlk
	return nil
}

// emitFor lowers a For loop: the init statement, then {cond, body,
// join} with the iterator re-run at the end of each body pass
// (spec.md §4.1 "For").
func (b *Builder) emitFor(n *cgast.For) *ssair.Instruction {
	if n.Init != nil {
		b.emitStatement(n.Init)
	}

	condBlk := b.fn.AppendBlock()
	bodyBlk := b.fn.AppendBlock()
	joinBlk := b.fn.AppendBlock()

	b.branchTo(condBlk, n.Pos())
	b.cur = condBlk
	condVal := b.emitRvalue(n.Cond)
	cb := b.newVal(ssair.CondBranch, nil, n.Pos())
	cb.SetCond(condVal)
	cb.Then = bodyBlk
	cb.Else = joinBlk

	b.cur = bodyBlk
	b.emitRvalue(n.Body)
	if n.Iter != nil {
		b.emitStatement(n.Iter)
	}
	if !b.cur.Closed() {
		b.branchTo(condBlk, n.Pos())
	}

	b.cur = joinBlk
	return nil
}

// emitReturn lowers a Return node.
func (b *Builder) emitReturn(n *cgast.Return) *ssair.Instruction {
	var val *ssair.Instruction
	if n.Value != nil {
		val = b.emitRvalue(n.Value)
	}
	ret := b.newVal(ssair.Return, nil, n.Pos())
	if val != nil {
		ret.SetRetVal(val)
	}
	return nil
}
