package parser

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		cmd         string
		wantProgram string
		wantEnv     map[string]string
		wantTokens  []string
	}{
		{"empty command", "", "", map[string]string{}, nil},
		{"whitespace only", "   ", "", map[string]string{}, nil},
		{"simple program", "ls", "ls", map[string]string{}, []string{"ls"}},
		{
			name:        "gh issue create",
			cmd:         `gh issue create --title "Login fails" --body-file /tmp/claude-cmd-issue-1`,
			wantProgram: "gh",
			wantEnv:     map[string]string{},
			wantTokens:  []string{"gh", "issue", "create", "--title", "Login fails", "--body-file", "/tmp/claude-cmd-issue-1"},
		},
		{
			name:        "git commit with message",
			cmd:         "git commit -m 'feat: add login'",
			wantProgram: "git",
			wantEnv:     map[string]string{},
			wantTokens:  []string{"git", "commit", "-m", "feat: add login"},
		},
		{
			name:        "env var prefix",
			cmd:         "GH_TOKEN=abc gh pr create --fill",
			wantProgram: "gh",
			wantEnv:     map[string]string{"GH_TOKEN": "abc"},
			wantTokens:  []string{"GH_TOKEN=abc", "gh", "pr", "create", "--fill"},
		},
		{
			name:        "multiple env vars",
			cmd:         "GIT_TRACE=1 GIT_DIR=/tmp/repo git push",
			wantProgram: "git",
			wantEnv:     map[string]string{"GIT_TRACE": "1", "GIT_DIR": "/tmp/repo"},
			wantTokens:  []string{"GIT_TRACE=1", "GIT_DIR=/tmp/repo", "git", "push"},
		},
		{"env var only", "FOO=bar", "", map[string]string{"FOO": "bar"}, []string{"FOO=bar"}},
		{
			name:        "escaped space",
			cmd:         `cat notes\ draft.md`,
			wantProgram: "cat",
			wantEnv:     map[string]string{},
			wantTokens:  []string{"cat", "notes draft.md"},
		},
		{
			name:        "absolute program path",
			cmd:         "/usr/bin/git status",
			wantProgram: "git",
			wantEnv:     map[string]string{},
			wantTokens:  []string{"/usr/bin/git", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.cmd)
			if got.Raw != tt.cmd {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.cmd)
			}
			if got.Program != tt.wantProgram {
				t.Errorf("Program = %q, want %q", got.Program, tt.wantProgram)
			}
			if !reflect.DeepEqual(got.Env, tt.wantEnv) {
				t.Errorf("Env = %v, want %v", got.Env, tt.wantEnv)
			}
			if !reflect.DeepEqual(got.Tokens, tt.wantTokens) {
				t.Errorf("Tokens = %q, want %q", got.Tokens, tt.wantTokens)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		cmd  string
		want []string
	}{
		{"git push origin", []string{"git", "push", "origin"}},
		{"git\tpush\torigin", []string{"git", "push", "origin"}},
		{"git   push   origin", []string{"git", "push", "origin"}},
		{`gh pr create --title "Add login" --body-file /tmp/x`, []string{"gh", "pr", "create", "--title", "Add login", "--body-file", "/tmp/x"}},
		{`git commit -m ""`, []string{"git", "commit", "-m", ""}},
		{`echo "unterminated`, []string{"echo", `"unterminated`}},
		{`it's broken`, []string{"it's", "broken"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			if got := Split(tt.cmd); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestParseProgramBasename(t *testing.T) {
	got := Parse("/usr/local/bin/gh issue create --body-file /tmp/claude-cmd-issue-1")
	if !got.Is("gh", "issue", "create") {
		t.Errorf("Is(gh issue create) = false, got %+v", got)
	}
	if got.Is("gh", "pr", "create") {
		t.Error("Is(gh pr create) = true, want false")
	}
}

func TestCommandSub(t *testing.T) {
	tests := []struct {
		cmd      string
		wantSub  string
		wantArgs []string
	}{
		{"git push origin main", "push", []string{"origin", "main"}},
		{"git -C ../repo push --force", "push", []string{"--force"}},
		{"GIT_TRACE=1 git -c core.x=y commit -m push", "commit", []string{"-m", "push"}},
		{"gh -R acme/app pr create", "pr", []string{"create"}},
		{"ls", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			sub, args := Parse(tt.cmd).Sub()
			if sub != tt.wantSub || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("Sub() = (%q, %v), want (%q, %v)", sub, args, tt.wantSub, tt.wantArgs)
			}
		})
	}

	if !Parse("git -C repo commit -m x").Is("git", "commit") {
		t.Error(`Is("git", "commit") should skip global options`)
	}
	if Parse(`git commit -m "push"`).Is("git", "push") {
		t.Error(`Is("git", "push") should not match a message word`)
	}
}

func TestCommandAfter(t *testing.T) {
	cmd := Parse("git -C repo push --force origin main")
	want := []string{"--force", "origin", "main"}
	if got := cmd.After("push"); !reflect.DeepEqual(got, want) {
		t.Errorf("After(push) = %v, want %v", got, want)
	}
	if got := cmd.After("checkout"); got != nil {
		t.Errorf("After(checkout) = %v, want nil", got)
	}
}

func TestFlagHelpers(t *testing.T) {
	args := []string{"pr", "create", "--label", "bug", "--label=ci", "--body-file", "/tmp/b", "-f"}

	if !HasFlag(args, "--force", "-f") {
		t.Error("HasFlag(-f) = false")
	}
	if HasFlag(args, "--body") {
		t.Error("HasFlag(--body) = true, want false")
	}
	if v, ok := FlagValue(args, "--body-file"); !ok || v != "/tmp/b" {
		t.Errorf("FlagValue(--body-file) = (%q, %v)", v, ok)
	}
	if got := FlagValues(args, "--label"); !reflect.DeepEqual(got, []string{"bug", "ci"}) {
		t.Errorf("FlagValues(--label) = %v", got)
	}
	if _, ok := FlagValue(args, "--title"); ok {
		t.Error("FlagValue(--title) ok = true, want false")
	}
}
