package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/bindplan/plan"
	"golang.org/x/term"
)

// colorEnabled reports whether w gets ANSI colors: never with --no-color
// or NO_COLOR, otherwise only when w is a terminal.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// reporter prints run results for humans on stderr.
type reporter struct {
	w                         io.Writer
	red, yellow, green, reset string
}

func newReporter(w io.Writer, color bool) *reporter {
	r := &reporter{w: w}
	if color {
		r.red, r.yellow, r.green, r.reset = "\033[31m", "\033[33m", "\033[32m", "\033[0m"
	}
	return r
}

func (r *reporter) diagnostics(diags []plan.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(r.w, "%sFAIL%s %s: %s [%s]\n", r.red, r.reset, d.Key, d.Message, d.Code)
	}
}

func (r *reporter) drift(drift []plan.Drift) {
	for _, d := range drift {
		fmt.Fprintf(r.w, "%sDRIFT%s %s\n", r.yellow, r.reset, d)
	}
}

func (r *reporter) ok(functions int) {
	fmt.Fprintf(r.w, "%sOK%s %d functions\n", r.green, r.reset, functions)
}
