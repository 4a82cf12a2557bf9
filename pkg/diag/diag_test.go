package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gointercept/compiler/pkg/cgast"
)

func pos(file string, line, col int) cgast.Pos {
	return cgast.Pos{File: file, Line: line, Column: col}
}

func TestErrorfSetsHasErrorAndSorryfDoesNot(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(&buf, false)

	c.Sorryf(pos("a.fun", 1, 1), "unsupported feature %s", "varargs")
	if c.HasError() {
		t.Error("Sorryf should not set HasError")
	}

	c.Errorf(pos("a.fun", 2, 5), "undeclared identifier %q", "x")
	if !c.HasError() {
		t.Error("Errorf should set HasError")
	}
}

func TestDiagnosticsAccumulateInOrder(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(&buf, false)

	c.Errorf(pos("a.fun", 1, 1), "first")
	c.Sorryf(pos("a.fun", 2, 1), "second")
	c.Errorf(pos("a.fun", 3, 1), "third")

	diags := c.Diagnostics()
	if len(diags) != 3 {
		t.Fatalf("len(Diagnostics()) = %d, want 3", len(diags))
	}
	wantMsgs := []string{"first", "second", "third"}
	wantSev := []Severity{Error, Sorry, Error}
	for i, d := range diags {
		if d.Message != wantMsgs[i] {
			t.Errorf("diags[%d].Message = %q, want %q", i, d.Message, wantMsgs[i])
		}
		if d.Severity != wantSev[i] {
			t.Errorf("diags[%d].Severity = %v, want %v", i, d.Severity, wantSev[i])
		}
	}
}

func TestReportFormatsFileLineColumn(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(&buf, false)
	c.Errorf(pos("foo.fun", 7, 12), "bad thing")

	got := buf.String()
	if !strings.Contains(got, "foo.fun:7:12:") {
		t.Errorf("report output = %q, want it to contain 'foo.fun:7:12:'", got)
	}
	if !strings.Contains(got, "error:") {
		t.Errorf("report output = %q, want it to contain 'error:'", got)
	}
	if !strings.Contains(got, "bad thing") {
		t.Errorf("report output = %q, want it to contain the message", got)
	}
}

func TestSeverityString(t *testing.T) {
	if Error.String() != "error" {
		t.Errorf("Error.String() = %q, want 'error'", Error.String())
	}
	if Sorry.String() != "sorry" {
		t.Errorf("Sorry.String() = %q, want 'sorry'", Sorry.String())
	}
}

func TestICEPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected ICE to panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "internal compiler error") {
			t.Errorf("panic value = %v, want it to contain 'internal compiler error'", r)
		}
		if !strings.Contains(msg, "unrecognized opcode 7") {
			t.Errorf("panic value = %v, want formatted args included", r)
		}
	}()
	ICE("unrecognized opcode %d", 7)
}

func TestICEDoesNotAccumulateAsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(&buf, false)
	func() {
		defer func() { recover() }()
		ICE("boom")
	}()
	if len(c.Diagnostics()) != 0 {
		t.Error("ICE should not report through any Collector")
	}
	if c.HasError() {
		t.Error("ICE should not set a Collector's HasError")
	}
}
