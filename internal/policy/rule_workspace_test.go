package policy

import (
	"errors"
	"testing"
)

func TestWorktreeRule(t *testing.T) {
	rule := NewWorktreeRule(nil)

	tests := []struct {
		name       string
		branch     string
		inWorktree bool
		checkErr   error
		wantErrors []string
	}{
		{"feature in worktree", "feature/login", true, nil, nil},
		{"feature in main checkout", "feature/login", false, nil, []string{"feature/login must be worked in a git worktree"}},
		{"hotfix in main checkout", "hotfix/urgent", false, nil, []string{"must be worked in a git worktree"}},
		{"main branch", "main", false, nil, nil},
		{"probe failure", "bugfix/x", false, errors.New("git: timeout"), []string{"worktree check failed"}},
		{"unrelated branch with probe failure", "docs-update", false, errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := rule.Evaluate(tt.branch, tt.inWorktree, tt.checkErr)
			checkFindings(t, f, tt.wantErrors, nil)
			if len(tt.wantErrors) > 0 && !anyContains(f.Hints, "git gtr new "+tt.branch) {
				t.Errorf("Hints = %v, want git gtr new hint", f.Hints)
			}
		})
	}
}

func TestWorktreeRuleCustomPrefixes(t *testing.T) {
	rule := NewWorktreeRule(mustConfig(t, "workflow:\n  worktree_prefixes: [\"wip/\"]\n"))
	if !rule.Required("wip/a") {
		t.Error("Required(wip/a) = false, want true")
	}
	if rule.Required("feature/a") {
		t.Error("Required(feature/a) = true, want false with custom prefixes")
	}
}
