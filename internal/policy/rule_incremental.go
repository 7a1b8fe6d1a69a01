package policy

import (
	"strconv"
	"strings"
)

// WorkingTree summarizes uncommitted and unpushed work in a checkout.
type WorkingTree struct {
	Branch  string
	Changed int
	Ahead   int
}

// ReadWorkingTree builds a summary from `git status --porcelain` and
// `git status -sb` output.
func ReadWorkingTree(porcelain, statusBranch string) WorkingTree {
	wt := WorkingTree{Changed: CountChanges(porcelain)}
	wt.Branch, wt.Ahead = parseStatusBranch(statusBranch)
	return wt
}

// CountChanges counts the entries of `git status --porcelain`, untracked
// files included.
func CountChanges(porcelain string) int {
	count := 0
	for _, line := range strings.Split(porcelain, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// parseStatusBranch reads the "## branch...upstream [ahead N]" header.
func parseStatusBranch(out string) (string, int) {
	header := out
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		header = out[:i]
	}
	header = strings.TrimSpace(strings.TrimPrefix(header, "##"))
	if header == "" {
		return "", 0
	}

	branch := header
	if i := strings.IndexByte(branch, ' '); i >= 0 {
		branch = branch[:i]
	}
	if i := strings.Index(branch, "..."); i >= 0 {
		branch = branch[:i]
	}

	ahead := 0
	if i := strings.Index(header, "ahead "); i >= 0 {
		num := header[i+len("ahead "):]
		if j := strings.IndexAny(num, ",]"); j >= 0 {
			num = num[:j]
		}
		if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
			ahead = n
		}
	}

	return branch, ahead
}

// WorkingTreeRule reports unfinished work at the end of a session.
type WorkingTreeRule struct{}

// Evaluate turns a working tree summary into checklist warnings.
func (WorkingTreeRule) Evaluate(wt WorkingTree) Findings {
	var f Findings
	if wt.Changed > 0 {
		f.Warn("uncommitted changes: " + strconv.Itoa(wt.Changed) + " files")
		f.Hint("git add && git commit")
	}
	if wt.Ahead > 0 {
		f.Warn("unpushed commits exist (" + strconv.Itoa(wt.Ahead) + " ahead)")
		f.Hint("git push")
	}
	return f
}
