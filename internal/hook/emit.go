package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adrianpk/hookgate/internal/policy"
)

const rule = "============================================================"

// Output is the machine-readable form of a decision.
type Output struct {
	Decision string   `json:"decision"`
	Title    string   `json:"title,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Hints    []string `json:"hints,omitempty"`
	ExitCode int      `json:"exit_code"`
}

// NewOutput converts a decision.
func NewOutput(d policy.Decision) Output {
	return Output{
		Decision: d.Verdict.String(),
		Title:    d.Title,
		Errors:   d.Errors,
		Warnings: d.Warnings,
		Hints:    d.Hints,
		ExitCode: d.ExitCode(),
	}
}

// Emit renders d and returns the process exit code. Blocks go to stderr
// with every error and hint, warnings to stdout, allows stay silent. With
// asJSON stdout carries only the decision as one JSON object and warnings
// move to stderr.
func Emit(stdout, stderr io.Writer, d policy.Decision, asJSON bool) int {
	switch d.Verdict {
	case policy.Block:
		writeReport(stderr, d, true)
	case policy.Warn:
		if asJSON {
			writeReport(stderr, d, false)
		} else {
			writeReport(stdout, d, false)
		}
	}

	if asJSON {
		_ = json.NewEncoder(stdout).Encode(NewOutput(d))
	}

	return d.ExitCode()
}

func writeReport(w io.Writer, d policy.Decision, blocked bool) {
	title := d.Title
	if title == "" {
		title = strings.ToUpper(d.Verdict.String())
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, rule)

	if blocked {
		for _, e := range d.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", e)
		}
	}
	for _, warn := range d.Warnings {
		fmt.Fprintf(w, "  WARNING: %s\n", warn)
	}
	if len(d.Hints) > 0 {
		fmt.Fprintln(w)
		for _, h := range d.Hints {
			fmt.Fprintf(w, "  hint: %s\n", h)
		}
	}
	fmt.Fprintln(w)
}
