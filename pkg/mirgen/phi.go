package mirgen

import (
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/mir"
)

// lowerPhis deconstructs every Phi in fn into a Copy inserted at the
// end of each predecessor block, writing the Phi's own virtual
// register (spec.md §4.2 "phi-to-copy lowering"). When a predecessor
// has more than one successor and the phi's block has more than one
// predecessor — a critical edge, where inserting the copy directly in
// the predecessor would run it on paths that never reach this phi —
// a trampoline block is spliced onto that edge instead, grounded on
// pkg/linearize/tunneling.go's "does this edge need special handling,
// then rewrite the branch target" shape.
func lowerPhis(fn *mir.Function) {
	blocks := make([]*mir.Block, len(fn.Blocks))
	copy(blocks, fn.Blocks)

	for _, mb := range blocks {
		kept := mb.Insts[:0]
		for _, inst := range mb.Insts {
			if inst.Opcode != mir.OpPhi {
				kept = append(kept, inst)
				continue
			}
			for _, pa := range inst.PhiArgs {
				pred := pa.Pred
				if isCriticalEdge(pred, mb) {
					pred = splitEdge(fn, pred, mb)
				}
				insertCopyBeforeTerminator(pred, inst, pa.Value)
			}
		}
		mb.Insts = kept
	}
}

func isCriticalEdge(pred, succ *mir.Block) bool {
	return len(pred.Succs) > 1 && len(succ.Preds) > 1
}

// splitEdge inserts a fresh trampoline block on the pred -> succ edge,
// retargeting pred's terminator and the CFG links accordingly, and
// returns the trampoline (the new home for the phi copy).
func splitEdge(fn *mir.Function, pred, succ *mir.Block) *mir.Block {
	tramp := fn.AppendBlock()
	tramp.Trampoline = true

	term := pred.Insts[len(pred.Insts)-1]
	switch term.Opcode {
	case mir.OpBranch:
		term.Target = tramp
	case mir.OpCondBranch:
		if term.Then == succ {
			term.Then = tramp
		}
		if term.Else == succ {
			term.Else = tramp
		}
	}

	for i, s := range pred.Succs {
		if s == succ {
			pred.Succs[i] = tramp
			break
		}
	}
	for i, p := range succ.Preds {
		if p == pred {
			succ.Preds[i] = tramp
			break
		}
	}
	tramp.Preds = append(tramp.Preds, pred)
	tramp.Succs = append(tramp.Succs, succ)

	branch := fn.NewInst(mir.OpBranch, nil, false)
	branch.Target = succ
	tramp.Append(branch)
	return tramp
}

// insertCopyBeforeTerminator appends a Copy writing phi's vreg, placed
// just before block's terminating instruction.
func insertCopyBeforeTerminator(block *mir.Block, phi *mir.Instruction, value mir.Operand) {
	if !block.Closed() {
		diag.ICE("mirgen: phi predecessor block has no terminator")
	}
	cp := &mir.Instruction{Opcode: mir.OpCopy, VReg: phi.VReg, Ty: phi.Ty, Block: block}
	cp.Args.Append(value)

	last := len(block.Insts) - 1
	block.Insts = append(block.Insts, nil)
	copy(block.Insts[last+1:], block.Insts[last:])
	block.Insts[last] = cp
}

// sweepMaterialized removes every Immediate/FuncRef/StaticRef
// instruction still in the block list. Because the operand-inlining
// priority rule always folds these into their consumer instead of
// leaving a virtual-register reference, they are dead on arrival by
// construction; this pass drops them rather than emitting instructions
// nothing reads (spec.md §4.2 "post-phi-lowering sweep").
func sweepMaterialized(fn *mir.Function) {
	for _, mb := range fn.Blocks {
		kept := mb.Insts[:0]
		for _, inst := range mb.Insts {
			switch inst.Opcode {
			case mir.OpImm, mir.OpFuncRef, mir.OpStaticAddr:
				continue
			default:
				kept = append(kept, inst)
			}
		}
		mb.Insts = kept
	}
}
