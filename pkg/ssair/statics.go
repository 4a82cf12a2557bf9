package ssair

import "github.com/gointercept/compiler/pkg/types"

// StaticVar is a module-level named storage object a StaticRef
// instruction points at: either a source-level static/exported
// declaration or a builder-synthesised string literal (spec.md §3.2,
// §4.1 "Literal rules").
type StaticVar struct {
	Name string
	Type types.Type
	Init *StaticInit // nil if uninitialised
}

// StaticInit is the compile-time initialiser of a StaticVar: either a
// single integer or a string's bytes, per spec.md §4.1 ("If the
// initialiser is a single numeric or string literal, set it as the
// static initialiser and stop").
type StaticInit struct {
	IsStr    bool
	IntValue int64
	StrValue string
}
