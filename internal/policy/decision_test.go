package policy

import (
	"reflect"
	"testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		findings Findings
		want     Verdict
		exitCode int
	}{
		{"nothing", Findings{}, Allow, 0},
		{"warning only", Findings{Warnings: []string{"w"}}, Warn, 0},
		{"error", Findings{Errors: []string{"e"}}, Block, 2},
		{"error and warning", Findings{Errors: []string{"e"}, Warnings: []string{"w"}}, Block, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide("TITLE", tt.findings)
			if d.Verdict != tt.want {
				t.Errorf("Verdict = %v, want %v", d.Verdict, tt.want)
			}
			if d.ExitCode() != tt.exitCode {
				t.Errorf("ExitCode() = %d, want %d", d.ExitCode(), tt.exitCode)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	warn := Decide("PUSH WARNING", Findings{Warnings: []string{"direct push"}, Hints: []string{"use a PR"}})
	block := Decide("COMMIT BLOCKED", Findings{Errors: []string{"secret"}, Hints: []string{"use a PR"}})
	allow := Decide("", Findings{})

	got := Merge(allow, warn, block)
	if got.Verdict != Block {
		t.Errorf("Verdict = %v, want block", got.Verdict)
	}
	if got.Title != "COMMIT BLOCKED" {
		t.Errorf("Title = %q", got.Title)
	}
	if !reflect.DeepEqual(got.Warnings, []string{"direct push"}) || !reflect.DeepEqual(got.Errors, []string{"secret"}) {
		t.Errorf("messages = %v / %v", got.Errors, got.Warnings)
	}
	if len(got.Hints) != 1 {
		t.Errorf("Hints = %v, want deduplicated", got.Hints)
	}
	if got.Reason() != "secret" {
		t.Errorf("Reason() = %q", got.Reason())
	}

	if m := Merge(); m.Verdict != Allow || m.ExitCode() != 0 {
		t.Errorf("Merge() = %+v, want allow", m)
	}
}

func TestFindingsHintDedup(t *testing.T) {
	var f Findings
	f.Hint("a")
	f.Hint("a")
	f.Add(Findings{Hints: []string{"a", "b"}})
	if !reflect.DeepEqual(f.Hints, []string{"a", "b"}) {
		t.Errorf("Hints = %v", f.Hints)
	}
	if !f.Empty() {
		t.Error("hints alone should leave findings empty")
	}
}
