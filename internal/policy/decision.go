// Package policy holds the rule evaluators behind the command gate. Each
// evaluator is a pure function of its inputs returning Findings; external
// facts are passed in or fetched through small interfaces.
package policy

import "strings"

// Verdict is the outcome of an evaluation.
type Verdict int

const (
	Allow Verdict = iota
	Warn
	Block
)

func (v Verdict) String() string {
	switch v {
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return "allow"
	}
}

// Findings collects errors, warnings and remediation hints in order.
type Findings struct {
	Errors   []string
	Warnings []string
	Hints    []string
}

// Error records a violation.
func (f *Findings) Error(msg string) { f.Errors = append(f.Errors, msg) }

// Warn records an advisory message.
func (f *Findings) Warn(msg string) { f.Warnings = append(f.Warnings, msg) }

// Hint records a remediation hint. Duplicates are skipped.
func (f *Findings) Hint(msg string) {
	for _, h := range f.Hints {
		if h == msg {
			return
		}
	}
	f.Hints = append(f.Hints, msg)
}

// Add appends other to f.
func (f *Findings) Add(other Findings) {
	f.Errors = append(f.Errors, other.Errors...)
	f.Warnings = append(f.Warnings, other.Warnings...)
	for _, h := range other.Hints {
		f.Hint(h)
	}
}

// Empty reports whether nothing was found.
func (f Findings) Empty() bool {
	return len(f.Errors) == 0 && len(f.Warnings) == 0
}

// Decision is the gate result. It becomes an exit code only at the process
// boundary.
type Decision struct {
	Verdict  Verdict
	Title    string
	Errors   []string
	Warnings []string
	Hints    []string
}

// Decide turns findings into a decision. Any error blocks, warnings alone
// warn, nothing allows.
func Decide(title string, f Findings) Decision {
	d := Decision{
		Title:    title,
		Errors:   f.Errors,
		Warnings: f.Warnings,
		Hints:    f.Hints,
	}
	switch {
	case len(f.Errors) > 0:
		d.Verdict = Block
	case len(f.Warnings) > 0:
		d.Verdict = Warn
	default:
		d.Verdict = Allow
	}
	return d
}

// Merge combines decisions. The strongest verdict wins and its title is
// kept; messages are concatenated in order.
func Merge(ds ...Decision) Decision {
	var out Decision
	for _, d := range ds {
		if d.Verdict > out.Verdict || (out.Title == "" && d.Verdict == out.Verdict && d.Verdict != Allow) {
			out.Title = d.Title
		}
		if d.Verdict > out.Verdict {
			out.Verdict = d.Verdict
		}
		out.Errors = append(out.Errors, d.Errors...)
		out.Warnings = append(out.Warnings, d.Warnings...)
		for _, h := range d.Hints {
			if !contains(out.Hints, h) {
				out.Hints = append(out.Hints, h)
			}
		}
	}
	return out
}

// ExitCode maps the verdict to the hook protocol: 2 blocks, 0 otherwise.
func (d Decision) ExitCode() int {
	if d.Verdict == Block {
		return 2
	}
	return 0
}

// Reason returns the first error, or the first warning.
func (d Decision) Reason() string {
	if len(d.Errors) > 0 {
		return strings.TrimSpace(d.Errors[0])
	}
	if len(d.Warnings) > 0 {
		return strings.TrimSpace(d.Warnings[0])
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
