package ssairbuild

import (
	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/cgcontext"
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

func cIntType() types.Type    { return types.Primitive{Name: "c_int", Size: 4, Signed: true} }
func byteType() types.Type    { return types.Primitive{Name: "byte", Size: 1, Signed: false} }
func voidType() types.Type    { return types.Primitive{Name: "void", Size: 0, Signed: false} }
func charPtrPtr() types.Type  { return types.Pointer{To: types.Pointer{To: byteType()}} }

func linkageOf(l cgast.Linkage) ssair.Linkage {
	switch l {
	case cgast.Exported:
		return ssair.Exported
	case cgast.Imported:
		return ssair.Imported
	case cgast.Reexported:
		return ssair.Reexported
	case cgast.Internal:
		return ssair.Internal
	default:
		return ssair.LocalVar
	}
}

func attrsOf(fn *cgast.Function) ssair.Attrs {
	return ssair.Attrs{
		NoMangle:    fn.NoMangle,
		ForceInline: fn.Inline,
		NoReturn:    fn.NoReturn,
		Pure:        fn.Pure,
		Leaf:        fn.Leaf,
		ConstEval:   fn.ConstEval,
		Discardable: fn.Discardable,
	}
}

func sigOf(fn *cgast.Function) types.Function {
	params := make([]types.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = types.Param{Name: p.Name, Type: p.Type()}
	}
	return types.Function{Return: fn.ReturnType, Params: params}
}

// declareUserFunctions creates an empty ssair.Function (name, type,
// linkage, attributes and Parameter placeholders, but no blocks yet)
// for every user function in root, in source order, and registers it
// with the context (spec.md §4.1 "Entry construction": "Create each
// user function (empty)...").
func (b *Builder) declareUserFunctions(root *cgast.Root) {
	for _, c := range root.Children {
		astFn, ok := c.(*cgast.Function)
		if !ok {
			continue
		}
		fn := ssair.NewFunction(astFn.Name, sigOf(astFn), linkageOf(astFn.Linkage))
		fn.Attrs = attrsOf(astFn)
		fn.Extern = astFn.Extern
		for _, p := range astFn.Params {
			fn.Params = append(fn.Params, fn.NewInst(ssair.Parameter, p.Type(), p.Pos()))
		}
		b.funcMap[astFn] = fn
		b.order = append(b.order, astFn)
		b.ctx.AddFunction(fn)
	}
}

func (b *Builder) lookupFunction(astFn *cgast.Function) *ssair.Function {
	fn, ok := b.funcMap[astFn]
	if !ok {
		diag.ICE("ssairbuild: function %q referenced before being declared", astFn.Name)
	}
	return fn
}

// buildEntry synthesises the module's entry function, declares each
// imported declaration so its address exists, then emits the entry
// body from root's remaining top-level statements (spec.md §4.1
// "Entry construction").
func (b *Builder) buildEntry(root *cgast.Root) {
	var fn *ssair.Function
	if root.IsModule {
		fn = ssair.NewFunction("__module"+root.ModuleName+"_entry", types.Function{Return: voidType()}, ssair.Exported)
	} else {
		sig := types.Function{Return: cIntType(), Params: []types.Param{
			{Name: "argc", Type: cIntType()},
			{Name: "argv", Type: charPtrPtr()},
			{Name: "envp", Type: charPtrPtr()},
		}}
		fn = ssair.NewFunction("main", sig, ssair.Exported)
		for _, p := range sig.Params {
			fn.Params = append(fn.Params, fn.NewInst(ssair.Parameter, p.Type, root.Pos()))
		}
	}
	fn.Attrs.NoMangle = true
	b.ctx.AddFunction(fn)

	b.fn = fn
	b.cur = fn.AppendBlock()

	for _, imp := range root.Imports {
		b.lvalueDeclaration(imp)
	}

	last := b.emitSequence(root.Children)
	if !b.cur.Closed() {
		ret := b.newVal(ssair.Return, nil, root.Pos())
		if !types.IsVoid(fn.Sig.Return) && last != nil {
			ret.SetRetVal(last)
		}
	}
}

// emitUserFunction fills in a previously-declared function's body:
// parameters are bound to their storage per the target's by-value/
// by-pointer passing rule, then the body is emitted and a trailing
// Return synthesised if control falls off the end (spec.md §4.1
// "Function emission").
func (b *Builder) emitUserFunction(astFn *cgast.Function) {
	fn := b.lookupFunction(astFn)
	b.fn = fn
	b.cur = fn.AppendBlock()

	for i, p := range astFn.Params {
		paramInst := fn.Params[i]
		switch {
		case types.IsReference(p.Type()):
			b.setAddress(p, paramInst)
		case cgcontext.ParameterPassedByPointer(b.ctx.Target.CallConv, types.SizeOf(p.Type())):
			paramInst.Ty = types.Pointer{To: p.Type()}
			b.setAddress(p, paramInst)
		default:
			addr := b.lvalueDeclaration(p)
			b.emitStore(paramInst, addr, p.Pos())
		}
	}

	bodyVal := b.emitRvalue(astFn.Body)
	if !b.cur.Closed() {
		ret := b.newVal(ssair.Return, nil, astFn.Pos())
		if !types.IsVoid(astFn.ReturnType) && bodyVal != nil {
			ret.SetRetVal(bodyVal)
		}
	}
}
