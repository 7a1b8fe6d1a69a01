package policy

import (
	"testing"
)

func TestReadWorkingTree(t *testing.T) {
	tests := []struct {
		name         string
		porcelain    string
		statusBranch string
		want         WorkingTree
	}{
		{
			name:         "clean",
			statusBranch: "## feature/x...origin/feature/x\n",
			want:         WorkingTree{Branch: "feature/x"},
		},
		{
			name:         "changes and ahead",
			porcelain:    " M a.go\n?? b.go\nA  c.go\n",
			statusBranch: "## main...origin/main [ahead 2]\n M a.go\n",
			want:         WorkingTree{Branch: "main", Changed: 3, Ahead: 2},
		},
		{
			name:         "ahead and behind",
			statusBranch: "## dev...origin/dev [ahead 1, behind 4]",
			want:         WorkingTree{Branch: "dev", Ahead: 1},
		},
		{
			name:         "no upstream",
			porcelain:    "?? new.txt",
			statusBranch: "## feature/y",
			want:         WorkingTree{Branch: "feature/y", Changed: 1},
		},
		{
			name: "empty",
			want: WorkingTree{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadWorkingTree(tt.porcelain, tt.statusBranch); got != tt.want {
				t.Errorf("ReadWorkingTree() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWorkingTreeRule(t *testing.T) {
	var rule WorkingTreeRule

	if f := rule.Evaluate(WorkingTree{Branch: "main"}); !f.Empty() {
		t.Errorf("clean tree findings = %+v, want none", f)
	}

	f := rule.Evaluate(WorkingTree{Changed: 2, Ahead: 1})
	checkFindings(t, f, nil, []string{"uncommitted changes: 2 files", "unpushed commits exist"})
	if !anyContains(f.Hints, "git push") || !anyContains(f.Hints, "git commit") {
		t.Errorf("Hints = %v, want commit and push hints", f.Hints)
	}
}

func TestParseStatusBranchDottedName(t *testing.T) {
	branch, ahead := parseStatusBranch("## release/1.2...origin/release/1.2 [ahead 3]")
	if branch != "release/1.2" || ahead != 3 {
		t.Errorf("parseStatusBranch() = %q, %d; want release/1.2, 3", branch, ahead)
	}
}
