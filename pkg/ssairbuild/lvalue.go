package ssairbuild

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// literalStaticInit recognises a single numeric or string literal
// initialiser, usable directly as a static variable's initial value
// (spec.md §4.1 "Declaration").
func literalStaticInit(n cgast.Node) (*ssair.StaticInit, bool) {
	lit, ok := n.(*cgast.Literal)
	if !ok {
		return nil, false
	}
	switch lit.Kind {
	case cgast.LiteralNumber:
		return &ssair.StaticInit{IntValue: lit.IntValue}, true
	case cgast.LiteralString:
		return &ssair.StaticInit{IsStr: true, StrValue: lit.StrValue}, true
	}
	return nil, false
}

// lvalueDeclaration emits a Declaration's storage: a static reference
// for non-local linkage, or an Alloca for a local variable. A static
// whose initialiser is a bare numeric or string literal takes it as
// its static initialiser; any other initialiser, and every initialiser
// of a local variable, is rvalue-emitted and stored into the address
// (spec.md §4.1 "Declaration").
func (b *Builder) lvalueDeclaration(d *cgast.Declaration) *ssair.Instruction {
	if addr, ok := b.memoAddress(d); ok {
		return addr
	}
	var addr *ssair.Instruction
	if d.Linkage != cgast.LocalVar {
		st := b.ctx.NewStatic(d.Name, d.Type())
		addr = b.newVal(ssair.StaticRef, types.Pointer{To: d.Type()}, d.Pos())
		addr.StaticName = st.Name
		if init, ok := literalStaticInit(d.Init); ok {
			st.Init = init
			return b.setAddress(d, addr)
		}
	} else {
		addr = b.newVal(ssair.Alloca, types.Pointer{To: d.Type()}, d.Pos())
	}
	b.setAddress(d, addr)
	if d.Init != nil {
		val := b.emitRvalue(d.Init)
		b.emitStore(val, addr, d.Pos())
	}
	return addr
}

// lvalueMemberAccess computes the field address: the base address
// plus the field's byte offset, bitcast directly through when the
// offset is zero (spec.md §4.1 "Member access").
func (b *Builder) lvalueMemberAccess(m *cgast.MemberAccess) *ssair.Instruction {
	base := b.emitLvalue(m.Target)
	var addr *ssair.Instruction
	if m.Offset == 0 {
		addr = b.newVal(ssair.Bitcast, types.Pointer{To: m.Type()}, m.Pos())
		addr.SetArgs(base)
	} else {
		off := b.immediate(m.Offset, wordType(), m.Pos())
		addr = b.newVal(ssair.Add, types.Pointer{To: m.Type()}, m.Pos())
		addr.SetArgs(base, off)
	}
	return b.setAddress(m, addr)
}

// lvalueUnaryDeref's address is simply the pointer value itself
// (spec.md §4.1 "Unary dereference").
func (b *Builder) lvalueUnaryDeref(u *cgast.Unary) *ssair.Instruction {
	val := b.emitRvalue(u.Operand)
	return b.setAddress(u, val)
}

// lvalueVariableReference reuses the referenced declaration's address;
// for a static, a fresh StaticRef instruction is emitted per use site
// so each reference is its own IR value (spec.md §4.1 "Variable
// reference").
func (b *Builder) lvalueVariableReference(v *cgast.VariableReference) *ssair.Instruction {
	declAddr := b.lvalueDeclaration(v.Decl)
	var addr *ssair.Instruction
	if declAddr.Kind == ssair.StaticRef {
		addr = b.newVal(ssair.StaticRef, declAddr.Ty, v.Pos())
		addr.StaticName = declAddr.StaticName
	} else {
		addr = declAddr
	}
	return b.setAddress(v, addr)
}

// lvalueCast's address is simply its inner expression's address: a
// cast used as an lvalue (e.g. `@(*int)(p) = 5`) reinterprets storage
// in place rather than converting a value (spec.md §4.1 "Cast").
func (b *Builder) lvalueCast(c *cgast.Cast) *ssair.Instruction {
	inner := b.emitLvalue(c.Inner)
	return b.setAddress(c, inner)
}
