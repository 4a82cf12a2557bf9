package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gointercept/compiler/pkg/cgcontext"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestNewRootCmdFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	expectedFlags := []string{"print-dot-dj", "print-dot-cfg", "print-ir-and-exit", "arch", "format", "cc", "target-file"}
	for _, flagName := range expectedFlags {
		if flag := cmd.Flags().Lookup(flagName); flag == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func resetFlags() {
	printDotDJ = false
	printDotCFG = false
	printIRAndExit = false
	archFlag = "x86_64"
	formatFlag = "native"
	ccFlag = "sysv"
	targetFile = ""
}

func TestRunDefaultPathSummarizesBuild(t *testing.T) {
	resetFlags()
	var out, errOut bytes.Buffer
	if err := run(&out, &errOut); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "function(s)") {
		t.Errorf("default output = %q, want a function-count summary", out.String())
	}
}

func TestRunPrintDotCFGExitsWithCode42(t *testing.T) {
	resetFlags()
	printDotCFG = true
	defer func() { printDotCFG = false }()

	var gotCode int
	called := false
	orig := exitFunc
	exitFunc = func(code int) { called = true; gotCode = code }
	defer func() { exitFunc = orig }()

	var out, errOut bytes.Buffer
	if err := run(&out, &errOut); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !called {
		t.Fatal("expected exitFunc to be called for --print-dot-cfg")
	}
	if gotCode != 42 {
		t.Errorf("exit code = %d, want 42", gotCode)
	}
	if !strings.HasPrefix(out.String(), "digraph ") {
		t.Errorf("output = %q, want it to start with 'digraph '", out.String())
	}
}

func TestRunPrintIRAndExitDumpsBothIRLevels(t *testing.T) {
	resetFlags()
	printIRAndExit = true
	defer func() { printIRAndExit = false }()

	orig := exitFunc
	exitFunc = func(code int) {}
	defer func() { exitFunc = orig }()

	var out, errOut bytes.Buffer
	if err := run(&out, &errOut); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "add") {
		t.Errorf("print-ir-and-exit output = %q, want it to mention the 'add' function", out.String())
	}
	if !strings.Contains(out.String(), "alloca") {
		t.Errorf("print-ir-and-exit output = %q, want the ssair dump (an 'alloca')", out.String())
	}
	if !strings.Contains(out.String(), "frameaddr") {
		t.Errorf("print-ir-and-exit output = %q, want the mir dump (a 'frameaddr')", out.String())
	}
}

func TestResolveTargetFromFlags(t *testing.T) {
	resetFlags()
	archFlag, formatFlag, ccFlag = "none", "llvm", "mswin"
	got, err := resolveTarget()
	if err != nil {
		t.Fatalf("resolveTarget() error = %v", err)
	}
	want := cgcontext.Target{
		Language: cgcontext.LangFun,
		Arch:     cgcontext.ArchNone,
		Format:   cgcontext.FormatLLVM,
		CallConv: cgcontext.CallConvMSWindows,
	}
	if got != want {
		t.Errorf("resolveTarget() = %+v, want %+v", got, want)
	}
}
