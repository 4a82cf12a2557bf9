// Package cgast declares the AST input contract the codegen core consumes.
// The lexer, parser and semantic analyser that produce trees of these node
// kinds are out of scope for this repository (spec.md §1); this package is
// the collaborator interface the rest of the core programs against.
package cgast

import "github.com/gointercept/compiler/pkg/types"

// Pos is a source location, carried by every node for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Node is the common interface implemented by every AST node kind the
// builder accepts.
type Node interface {
	Pos() Pos
	Type() types.Type
	implNode()
}

// Linkage mirrors ssair.Linkage; declarations carry it so the builder
// knows whether to allocate a static variable or a stack slot.
type Linkage int

const (
	LocalVar Linkage = iota
	Exported
	Imported
	Reexported
	Internal
)

// Base is embedded by every concrete node to supply Pos/Type. It is
// exported so callers outside this package can populate it in a struct
// literal when building synthetic trees (e.g. in tests).
type Base struct {
	P Pos
	T types.Type
}

func (b Base) Pos() Pos         { return b.P }
func (b Base) Type() types.Type { return b.T }

// Root is the top-level compilation unit: a sequence of top-level nodes
// (declarations and functions), with IsModule (and ModuleName) set for
// module compilation units (spec.md §4.1 "Entry construction").
type Root struct {
	Base
	Imports    []*Declaration // imported declarations, declared before the entry body (spec.md §4.1)
	Children   []Node
	IsModule   bool
	ModuleName string
}

func (*Root) implNode() {}

// Block is a sequence of statements/expressions; its value (when its
// type is non-void) is its last child's value.
type Block struct {
	Base
	Children []Node
}

func (*Block) implNode() {}

// Declaration introduces a named variable or function-level local.
type Declaration struct {
	Base
	Name    string
	Linkage Linkage
	Init    Node // nil if uninitialised
}

func (*Declaration) implNode() {}

// StructureDecl declares a structure type; it produces no codegen
// output by itself (spec.md §6 lists it purely as an input node kind).
type StructureDecl struct {
	Base
	Struct types.Struct
}

func (*StructureDecl) implNode() {}

// Function is a function definition (or declaration, when Body is nil).
type Function struct {
	Base
	Name       string
	Params     []*Declaration
	ReturnType types.Type
	Body       Node
	Linkage    Linkage
	Inline     bool
	NoMangle   bool
	NoReturn   bool
	Pure       bool
	Leaf       bool
	ConstEval  bool
	Discardable bool
	Extern     bool // true for declarations with no body
}

func (*Function) implNode() {}

// VariableReference binds to the Declaration it refers to.
type VariableReference struct {
	Base
	Decl *Declaration
}

func (*VariableReference) implNode() {}

// ModuleReference denotes access to a name exported from another module.
type ModuleReference struct {
	Base
	Module string
	Name   string
	Inner  Node
}

func (*ModuleReference) implNode() {}

// FunctionReference denotes a direct reference to a known function
// (as opposed to an arbitrary callee expression).
type FunctionReference struct {
	Base
	Func *Function
}

func (*FunctionReference) implNode() {}

// MemberAccess is `base.member`.
type MemberAccess struct {
	Base
	Target Node
	Member string
	Offset int64
}

func (*MemberAccess) implNode() {}

// If is `if cond then .. [else ..]`.
type If struct {
	Base
	Cond Node
	Then Node
	Else Node // nil if no else arm
}

func (*If) implNode() {}

// While is `while cond do body`.
type While struct {
	Base
	Cond Node
	Body Node // nil/empty for an empty body
}

func (*While) implNode() {}

// For is `for init; cond; iter do body`.
type For struct {
	Base
	Init Node
	Cond Node
	Iter Node
	Body Node
}

func (*For) implNode() {}

// Return is `return [value]`.
type Return struct {
	Base
	Value Node // nil for bare return
}

func (*Return) implNode() {}

// Call is a direct or indirect function call.
type Call struct {
	Base
	Callee Node // a *FunctionReference for direct calls
	Args   []Node
}

func (*Call) implNode() {}

// IntrinsicKind enumerates the fixed intrinsic-call catalogue (spec.md §4.1).
type IntrinsicKind int

const (
	IntrinsicSyscall IntrinsicKind = iota
	IntrinsicInline
	IntrinsicDebugTrap
	IntrinsicMemcpy
)

// IntrinsicCall is a call to one of the fixed intrinsics.
type IntrinsicCall struct {
	Base
	Kind IntrinsicKind
	Args []Node
}

func (*IntrinsicCall) implNode() {}

// Cast converts Inner's value to Type().
type Cast struct {
	Base
	Inner Node
}

func (*Cast) implNode() {}

// BinOp enumerates binary operator tokens. Most map 1:1 to an ssair
// opcode; Assign and Subscript are handled specially by the builder.
type BinOp int

const (
	OpAssign BinOp = iota
	OpSubscript
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
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

// Binary is a binary expression.
type Binary struct {
	Base
	Op    BinOp
	Left  Node
	Right Node
}

func (*Binary) implNode() {}

// UnOp enumerates unary operator tokens.
type UnOp int

const (
	OpAddressOf UnOp = iota // prefix &
	OpDeref                 // prefix @
	OpComplement            // prefix ~
)

// Unary is a unary expression.
type Unary struct {
	Base
	Op      UnOp
	Operand Node
}

func (*Unary) implNode() {}

// LiteralKind discriminates the token type backing a Literal, per
// spec.md §6 ("token-type discriminator among {Number, String, LBrack}").
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralCompound // LBrack: array/compound literal
)

// Literal is a literal value.
type Literal struct {
	Base
	Kind     LiteralKind
	IntValue int64
	StrValue string
	Children []Node // populated when Kind == LiteralCompound
}

func (*Literal) implNode() {}

// NewPos is a small convenience constructor used by tests and callers
// building synthetic trees.
func NewPos(file string, line, col int) Pos { return Pos{File: file, Line: line, Column: col} }
