// Command codegen drives the AST->IR->MIR codegen core end to end:
// pkg/cgast -> pkg/ssairbuild -> pkg/ssair -> pkg/mirgen -> pkg/mir.
//
// The teacher's original front end (lexer/parser/semantic analyser) and
// backend (register allocation, instruction selection, asm emission) are
// explicitly out of scope for this core (spec.md §1) and have been
// removed rather than carried as unwired reference code; nothing in this
// tree still produces a pkg/cabs or pkg/clight tree, and the core never
// consumed one. Since the AST this core consumes (pkg/cgast) also has no
// reimplemented parser path (SPEC_FULL.md §12 deliberately omits
// ir_parser.c's stub), this command exercises the pipeline against a
// small built-in demonstration program rather than a real source file,
// matching the original's debug-dump entry points
// (codegen_platforms.c, machine_ir.c), which are reachable independently
// of full source translation.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gointercept/compiler/pkg/cgast"
	"github.com/gointercept/compiler/pkg/cgcontext"
	"github.com/gointercept/compiler/pkg/diag"
	"github.com/gointercept/compiler/pkg/mir"
	"github.com/gointercept/compiler/pkg/mirgen"
	"github.com/gointercept/compiler/pkg/ssair"
	"github.com/gointercept/compiler/pkg/ssairbuild"
	"github.com/gointercept/compiler/pkg/types"
)

var version = "0.1.0"

// exitFunc is os.Exit by default, overridable in tests so RunE's debug
// paths can be exercised without terminating the test binary.
var exitFunc = os.Exit

var (
	printDotDJ     bool
	printDotCFG    bool
	printIRAndExit bool
	archFlag       string
	formatFlag     string
	ccFlag         string
	targetFile     string
)

func main() {
	os.Exit(runCLI())
}

func runCLI() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCmd mirrors the teacher's own cmd/ralph-cc root command shape
// (package-level flag vars, RunE writing to an injected out/errOut pair).
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codegen",
		Short:         "run the AST->IR->MIR codegen core on a built-in demonstration program",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&printDotDJ, "print-dot-dj", false, "print the dominance-join .dot graph and exit")
	rootCmd.Flags().BoolVar(&printDotCFG, "print-dot-cfg", false, "print the MIR CFG .dot graph and exit")
	rootCmd.Flags().BoolVar(&printIRAndExit, "print-ir-and-exit", false, "print ssair and mir textual dumps and exit")
	rootCmd.Flags().StringVar(&archFlag, "arch", "x86_64", "target architecture (x86_64|none)")
	rootCmd.Flags().StringVar(&formatFlag, "format", "native", "target output format (llvm|native)")
	rootCmd.Flags().StringVar(&ccFlag, "cc", "sysv", "target calling convention (mswin|sysv)")
	rootCmd.Flags().StringVar(&targetFile, "target-file", "", "load the target description from a YAML file instead of --arch/--format/--cc")
	return rootCmd
}

func resolveTarget() (cgcontext.Target, error) {
	if targetFile != "" {
		return cgcontext.LoadTargetFile(targetFile)
	}
	t := cgcontext.DefaultTarget()
	switch archFlag {
	case "x86_64":
		t.Arch = cgcontext.ArchX86_64
	case "none":
		t.Arch = cgcontext.ArchNone
	}
	switch formatFlag {
	case "llvm":
		t.Format = cgcontext.FormatLLVM
	case "native":
		t.Format = cgcontext.FormatNative
	}
	switch ccFlag {
	case "mswin":
		t.CallConv = cgcontext.CallConvMSWindows
	case "sysv":
		t.CallConv = cgcontext.CallConvSysV
	}
	return t, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func run(out, errOut io.Writer) error {
	target, err := resolveTarget()
	if err != nil {
		fmt.Fprintf(errOut, "codegen: %v\n", err)
		return err
	}

	diags := diag.NewCollector(errOut, true)
	ctx := cgcontext.New(target, diags, nopWriteCloser{out})
	defer ctx.Close()

	if err := ssairbuild.Build(ctx, demoProgram()); err != nil {
		fmt.Fprintf(errOut, "codegen: %v\n", err)
		return err
	}
	if diags.HasError() {
		return fmt.Errorf("codegen: aborting after %d diagnostic(s)", len(diags.Diagnostics()))
	}

	mfns := mirgen.Translate(ctx.Functions)

	switch {
	case printDotCFG:
		for _, fn := range mfns {
			mirgen.WriteCFGDot(out, fn)
		}
		exitFunc(42)
	case printDotDJ:
		for _, fn := range mfns {
			mirgen.WriteDominanceJoinDot(out, fn)
		}
		exitFunc(42)
	case printIRAndExit:
		sp := ssair.NewPrinter(out)
		for _, fn := range ctx.Functions {
			sp.PrintFunction(fn)
		}
		mp := mir.NewPrinter(out)
		for _, fn := range mfns {
			mp.PrintFunction(fn)
		}
		exitFunc(42)
	default:
		fmt.Fprintf(out, "codegen: built %d function(s), %d static(s)\n", len(ctx.Functions), len(ctx.Statics))
	}
	return nil
}

// demoProgram builds add(a: c_int, b: c_int) -> c_int { return a + b; },
// the same minimal fixture pkg/ssairbuild's own tests exercise, so that
// --print-dot-cfg/--print-dot-dj/--print-ir-and-exit have a concrete CFG
// (with the synthesized main entry calling nothing in particular) to
// dump without depending on a source-file bridge this core doesn't own.
func demoProgram() *cgast.Root {
	intTy := types.Integer{BitWidth: 32, Signed: true}

	declA := &cgast.Declaration{Base: cgast.Base{T: intTy}, Name: "a"}
	declB := &cgast.Declaration{Base: cgast.Base{T: intTy}, Name: "b"}

	refA := &cgast.VariableReference{Base: cgast.Base{T: intTy}, Decl: declA}
	refB := &cgast.VariableReference{Base: cgast.Base{T: intTy}, Decl: declB}

	sum := &cgast.Binary{Base: cgast.Base{T: intTy}, Op: cgast.OpAdd, Left: refA, Right: refB}
	ret := &cgast.Return{Value: sum}
	body := &cgast.Block{Children: []cgast.Node{ret}}

	fn := &cgast.Function{
		Base:       cgast.Base{T: types.Function{Return: intTy}},
		Name:       "add",
		Params:     []*cgast.Declaration{declA, declB},
		ReturnType: intTy,
		Body:       body,
	}

	return &cgast.Root{Children: []cgast.Node{fn}}
}
