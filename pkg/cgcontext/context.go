// Package cgcontext implements the codegen context: the single root
// resource described by spec.md §5. It owns the target description, the
// diagnostics collector, the list of IR functions, and the counters that
// spec.md §9 calls out as process-wide mutable state in the source
// ("fold them into the codegen context, reset on context creation").
package cgcontext

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/types"
)

// Language is the compilation unit's source language.
type Language int

const (
	LangFun Language = iota
	LangIR
)

// Arch is the target architecture.
type Arch int

const (
	ArchX86_64 Arch = iota
	ArchNone
)

// Format is the target output format.
type Format int

const (
	FormatLLVM Format = iota
	FormatNative
)

// CallConv is the target calling convention.
type CallConv int

const (
	CallConvMSWindows CallConv = iota
	CallConvSysV
)

// Target is the tuple spec.md §6 describes as the "target description".
type Target struct {
	Language Language `yaml:"-"`
	Arch     Arch     `yaml:"arch"`
	Format   Format   `yaml:"format"`
	CallConv CallConv `yaml:"callconv"`
}

// DefaultTarget mirrors the original implementation's default assumption
// (ARCH_X86_64 / TARGET_NATIVE / CG_CALL_CONV_SYSV), per SPEC_FULL.md §12.
func DefaultTarget() Target {
	return Target{Language: LangFun, Arch: ArchX86_64, Format: FormatNative, CallConv: CallConvSysV}
}

// targetFile is the on-disk shape of --target-file, per SPEC_FULL.md §11.
type targetFile struct {
	Arch     string `yaml:"arch"`
	Format   string `yaml:"format"`
	CallConv string `yaml:"callconv"`
}

// LoadTargetFile reads a YAML target description, starting from
// DefaultTarget() and overriding each field the file sets.
func LoadTargetFile(path string) (Target, error) {
	t := DefaultTarget()
	f, err := os.Open(path)
	if err != nil {
		return t, err
	}
	defer f.Close()
	var tf targetFile
	if err := yaml.NewDecoder(f).Decode(&tf); err != nil {
		return t, fmt.Errorf("cgcontext: parsing target file %s: %w", path, err)
	}
	switch tf.Arch {
	case "x86_64":
		t.Arch = ArchX86_64
	case "none":
		t.Arch = ArchNone
	}
	switch tf.Format {
	case "llvm":
		t.Format = FormatLLVM
	case "native":
		t.Format = FormatNative
	}
	switch tf.CallConv {
	case "mswin":
		t.CallConv = CallConvMSWindows
	case "sysv":
		t.CallConv = CallConvSysV
	}
	return t, nil
}

// Context is the root resource of one compilation (spec.md §5). All
// other objects produced during AST lowering and MIR translation are
// owned transitively through it; Close releases everything.
type Context struct {
	Target Target
	Diags  *diag.Collector

	Functions []*ssair.Function
	Statics   []*ssair.StaticVar

	out    io.WriteCloser
	closed bool

	nextStringLit  int
	nextAnonStruct int
}

// New creates a context for one compilation, with its counters reset to
// zero (spec.md §9). out is the output sink; it is closed exactly once
// by Close, on every exit path, per spec.md §5.
func New(target Target, diags *diag.Collector, out io.WriteCloser) *Context {
	return &Context{Target: target, Diags: diags, out: out}
}

// NextStringLitName returns a fresh, monotonically increasing name for
// an anonymous string literal (spec.md §3.2 "Static variables... when
// the builder must synthesise one").
func (c *Context) NextStringLitName() string {
	name := fmt.Sprintf("__str_lit%d", c.nextStringLit)
	c.nextStringLit++
	return name
}

// NextAnonStructID returns the next value of the process-wide (here,
// per-context) anonymous-struct mangling counter (spec.md §4.3, §9).
func (c *Context) NextAnonStructID() int {
	id := c.nextAnonStruct
	c.nextAnonStruct++
	return id
}

// AddFunction registers fn with the context.
func (c *Context) AddFunction(fn *ssair.Function) {
	c.Functions = append(c.Functions, fn)
}

// NewStatic registers a fresh module-level static variable and returns
// it so the caller can attach an initialiser (spec.md §3.2).
func (c *Context) NewStatic(name string, ty types.Type) *ssair.StaticVar {
	st := &ssair.StaticVar{Name: name, Type: ty}
	c.Statics = append(c.Statics, st)
	return st
}

// Out returns the context's output sink.
func (c *Context) Out() io.Writer { return c.out }

// Close tears down the context exactly once, closing the output handle
// regardless of whether the compilation succeeded (spec.md §5, §7 "no
// partial artifact is emitted").
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.out != nil {
		return c.out.Close()
	}
	return nil
}

// ParameterPassedByPointer reports whether a parameter of byte size sz
// is passed via a hidden pointer under cc (spec.md §4.1, §6). The SysV
// branch is the source's own approximation (size > 16), not a full
// ABI classification — replicated verbatim per spec.md §9's guidance,
// rather than implementing System V's aggregate-classification
// algorithm.
func ParameterPassedByPointer(cc CallConv, sz int64) bool {
	switch cc {
	case CallConvMSWindows:
		return sz > 8
	case CallConvSysV:
		return sz > 16
	default:
		diag.ICE("unrecognized calling convention %d", cc)
		return false
	}
}
