package policy

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// WorktreeRule requires development branches to be worked in a linked git
// worktree rather than the main checkout.
type WorktreeRule struct {
	Prefixes []string
}

// NewWorktreeRule creates a worktree rule from config.
func NewWorktreeRule(cfg *config.Config) *WorktreeRule {
	if cfg == nil {
		cfg = config.Default()
	}
	return &WorktreeRule{Prefixes: cfg.Workflow.WorktreePrefixes}
}

// Required reports whether branch needs a worktree.
func (r *WorktreeRule) Required(branch string) bool {
	for _, p := range r.Prefixes {
		if p != "" && strings.HasPrefix(branch, p) {
			return true
		}
	}
	return false
}

// Evaluate checks branch against the worktree requirement. checkErr is the
// error met while probing the worktree; a failed probe is a failed check.
func (r *WorktreeRule) Evaluate(branch string, inWorktree bool, checkErr error) Findings {
	var f Findings
	if !r.Required(branch) {
		return f
	}

	if checkErr != nil {
		f.Error("worktree check failed for " + branch + ": " + checkErr.Error())
		f.Hint("run the command from a git worktree: git gtr new " + branch)
		return f
	}

	if !inWorktree {
		f.Error("development branch " + branch + " must be worked in a git worktree (currently in the main checkout)")
		f.Hint("git gtr new " + branch)
		f.Hint("git gtr ai " + branch)
	}

	return f
}
