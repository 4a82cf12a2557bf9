// Package diag implements the diagnostics collaborator codegen reports
// user-source errors and unsupported-feature warnings through (spec.md
// §7). It follows the teacher's accumulate-and-continue style
// (pkg/parser.Parser.addError/Errors) rather than failing on the first
// problem, so a single invocation can surface multiple errors.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/gointercept/compiler/pkg/cgast"
)

// Severity distinguishes user-source errors from unsupported-feature
// notices; both are reported the same way but only Error sets HasError.
type Severity int

const (
	Error Severity = iota
	Sorry
)

func (s Severity) String() string {
	if s == Sorry {
		return "sorry"
	}
	return "error"
}

// Diagnostic is one reported problem: a severity, a source span and a
// formatted message.
type Diagnostic struct {
	Severity Severity
	File     string
	Loc      cgast.Pos
	Message  string
}

// Collector accumulates diagnostics for one compilation and exposes the
// has-error flag the rest of the pipeline gates later passes on
// (spec.md §7 "Propagation policy").
type Collector struct {
	w        io.Writer
	color    bool
	diags    []Diagnostic
	hasError bool
}

// NewCollector creates a collector that writes formatted diagnostics to
// w as they are reported. colorize enables fatih/color severity tags
// (used for a TTY stderr, disabled for redirected output or tests).
func NewCollector(w io.Writer, colorize bool) *Collector {
	return &Collector{w: w, color: colorize}
}

// Errorf reports a user source error at loc (spec.md §7 "User source
// errors"). It sets HasError and aborts the caller's current operation —
// by convention the caller returns immediately after calling Errorf.
func (c *Collector) Errorf(loc cgast.Pos, format string, args ...any) {
	c.report(Error, loc, fmt.Sprintf(format, args...))
	c.hasError = true
}

// Sorryf reports an unsupported-feature notice (spec.md §7 "Unsupported
// features"). It does not set HasError.
func (c *Collector) Sorryf(loc cgast.Pos, format string, args ...any) {
	c.report(Sorry, loc, fmt.Sprintf(format, args...))
}

func (c *Collector) report(sev Severity, loc cgast.Pos, msg string) {
	d := Diagnostic{Severity: sev, File: loc.File, Loc: loc, Message: msg}
	c.diags = append(c.diags, d)
	tag := sev.String()
	if c.color {
		paint := color.New(color.FgHiYellow, color.Bold)
		if sev == Error {
			paint = color.New(color.FgHiRed, color.Bold)
		}
		tag = paint.Sprint(tag)
	}
	fmt.Fprintf(c.w, "%s:%d:%d: %s: %s\n", loc.File, loc.Line, loc.Column, tag, msg)
}

// HasError reports whether any Errorf call has occurred so far.
func (c *Collector) HasError() bool { return c.hasError }

// Diagnostics returns every diagnostic reported so far, in order.
func (c *Collector) Diagnostics() []Diagnostic { return c.diags }

// ICE reports an internal invariant violation: a reachable-but-impossible
// state the core has detected (unrecognised node/opcode, use of an IR
// instruction before it has been translated to MIR, ...). These are
// programmer errors, not user errors, so they panic rather than
// accumulate (spec.md §7 "Internal invariants").
func ICE(format string, args ...any) {
	panic(fmt.Sprintf("internal compiler error: "+format, args...))
}
