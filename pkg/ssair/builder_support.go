package ssair

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/types"
)

// NewInst allocates a fresh instruction of the given kind, owned by no
// block yet (Block is set on Append). loc is optional; when omitted the
// instruction carries the zero Pos.
func (f *Function) NewInst(kind Kind, ty types.Type, loc ...cgast.Pos) *Instruction {
	f.nextInstID++
	inst := &Instruction{ID: f.nextInstID, Kind: kind, Ty: ty, AllocaOffset: AllocaOffsetUnset}
	if len(loc) > 0 {
		inst.Loc = loc[0]
	}
	return inst
}
