package policy

import (
	"reflect"
	"testing"

	"github.com/adrianpk/hookgate/internal/parser"
)

func TestIsProtected(t *testing.T) {
	tests := []struct {
		branch    string
		protected []string
		want      bool
	}{
		{"main", nil, true},
		{"master", []string{"develop"}, true},
		{"develop", []string{"develop"}, true},
		{"refs/heads/main", nil, true},
		{"release/1.2", []string{"release/*"}, true},
		{"feature/x", []string{"release/*"}, false},
		{"", []string{"main"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			if got := IsProtected(tt.branch, tt.protected); got != tt.want {
				t.Errorf("IsProtected(%q, %v) = %v, want %v", tt.branch, tt.protected, got, tt.want)
			}
		})
	}
}

func TestParsePush(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		current string
		want    Push
	}{
		{"implicit current", nil, "feature/x", Push{Targets: []string{"feature/x"}}},
		{"remote only", []string{"origin"}, "main", Push{Targets: []string{"main"}}},
		{"remote and branch", []string{"origin", "main"}, "feature/x", Push{Targets: []string{"main"}}},
		{"src dst", []string{"origin", "feature/x:main"}, "", Push{Targets: []string{"main"}}},
		{"plus refspec", []string{"origin", "+main"}, "", Push{Targets: []string{"main"}, Force: true}},
		{"head", []string{"origin", "HEAD"}, "main", Push{Targets: []string{"main"}}},
		{"refs heads", []string{"origin", "refs/heads/main"}, "", Push{Targets: []string{"main"}}},
		{"delete refspec", []string{"origin", ":main"}, "", Push{Targets: []string{"main"}, Delete: true}},
		{"lease", []string{"--force-with-lease", "origin", "x"}, "", Push{Targets: []string{"x"}, Force: true, Lease: true}},
		{"value flag skipped", []string{"-o", "ci.skip", "origin", "x"}, "", Push{Targets: []string{"x"}}},
		{"short cluster", []string{"-uf", "origin", "x"}, "", Push{Targets: []string{"x"}, Force: true}},
		{"all", []string{"--all", "origin"}, "x", Push{All: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePush(tt.args, tt.current)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePush(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestEvaluatePushForceToProtected(t *testing.T) {
	rule := NewBranchRule(mustConfig(t, "push:\n  protected_branches: [main, master]\n"))

	commands := []string{
		"git push origin main --force",
		"git push --force origin main",
		"git push -f origin main",
		"git push origin +main",
		"git push origin main --force-with-lease",
		"git push --force",
		"git -C /repo push origin main -f",
		"/usr/bin/git push origin master --force",
	}

	for _, c := range commands {
		t.Run(c, func(t *testing.T) {
			f := rule.EvaluatePush(parser.Parse(c), "main")
			if !anyContains(f.Errors, "force push to protected branch is prohibited") {
				t.Errorf("Errors = %v, want force-push prohibition", f.Errors)
			}
			if Decide("PUSH", f).Verdict != Block {
				t.Error("expected block")
			}
		})
	}
}

func TestEvaluatePush(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		command    string
		current    string
		wantErrors []string
		wantWarns  []string
	}{
		{
			name:      "plain push to protected",
			command:   "git push origin main",
			current:   "feature/x",
			wantWarns: []string{"direct push to protected branch: main"},
		},
		{
			name:    "feature branch",
			command: "git push -u origin feature/x",
			current: "feature/x",
		},
		{
			name:      "force elsewhere",
			command:   "git push --force origin feature/x",
			current:   "feature/x",
			wantWarns: []string{"force push detected"},
		},
		{
			name:    "lease elsewhere",
			command: "git push --force-with-lease origin feature/x",
			current: "feature/x",
		},
		{
			name:       "delete protected",
			command:    "git push origin --delete main",
			current:    "feature/x",
			wantErrors: []string{"deleting protected branch"},
		},
		{
			name:       "configured glob",
			yaml:       "push:\n  protected_branches: [\"release/*\"]\n",
			command:    "git push -f origin release/2.0",
			current:    "feature/x",
			wantErrors: []string{"release/2.0"},
		},
		{
			name:       "default branches stay protected",
			yaml:       "push:\n  protected_branches: [develop]\n",
			command:    "git push --force origin master",
			current:    "feature/x",
			wantErrors: []string{"force push to protected branch"},
		},
		{
			name:    "push word in message is ignored",
			command: `git commit -m "push origin main --force"`,
			current: "main",
		},
		{
			name:    "not git",
			command: "jj push --force",
			current: "main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := NewBranchRule(mustConfig(t, tt.yaml))
			f := rule.EvaluatePush(parser.Parse(tt.command), tt.current)
			checkFindings(t, f, tt.wantErrors, tt.wantWarns)
		})
	}
}

func TestPushTargets(t *testing.T) {
	rule := NewBranchRule(nil)
	got := rule.PushTargets([]string{"--force", "origin", "a:b", "+c"}, "")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PushTargets() = %v, want %v", got, want)
	}
}

func TestEvaluateCheckout(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"git checkout main", "main"},
		{"git switch feature/x", "feature/x"},
		{"git checkout origin/main", "origin/main"},
		{"git checkout -b feature/new", ""},
		{"git switch -c feature/new", ""},
		{"git checkout -- file.go", ""},
		{"git checkout .", ""},
		{"git checkout src/main.go", ""},
		{"git status", ""},
	}

	rule := NewBranchRule(nil)
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := rule.EvaluateCheckout(parser.Parse(tt.command))
			if tt.want == "" {
				if !f.Empty() {
					t.Errorf("findings = %+v, want none", f)
				}
				return
			}
			if !anyContains(f.Warnings, "branch switch detected: "+tt.want) {
				t.Errorf("Warnings = %v, want switch to %s", f.Warnings, tt.want)
			}
			if !anyContains(f.Hints, "git gtr new "+tt.want) {
				t.Errorf("Hints = %v, want worktree hint", f.Hints)
			}
		})
	}
}
