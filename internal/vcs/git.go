// Package vcs wraps the git and gh command line tools. Only the facts the
// policy evaluators need are exposed.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrianpk/hookgate/internal/runner"
)

const gitTimeout = 5 * time.Second

// ErrNotFound is returned when an issue, PR or repository cannot be found.
var ErrNotFound = errors.New("not found")

// Git queries a local repository.
type Git struct {
	Dir     string
	Timeout time.Duration
	Runner  runner.Runner
}

// NewGit returns a git client rooted at dir.
func NewGit(dir string, r runner.Runner) *Git {
	if r == nil {
		r = runner.Exec{}
	}
	return &Git{Dir: dir, Timeout: gitTimeout, Runner: r}
}

func (g *Git) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = g.Timeout
	}
	res := g.Runner.Run(ctx, runner.Command{
		Name:    "git",
		Args:    args,
		Dir:     g.Dir,
		Timeout: timeout,
	})
	if res.Err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), res.Err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("git %s: exit %d: %s", strings.Join(args, " "), res.ExitCode, res.Output())
	}
	return res.Stdout, nil
}

// CurrentBranch returns the checked out branch name.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, 0, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// TopLevel returns the repository root.
func (g *Git) TopLevel(ctx context.Context) (string, error) {
	out, err := g.run(ctx, 3*time.Second, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[0]), nil
}

// InWorktree reports whether the working directory is a linked worktree.
func (g *Git) InWorktree(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, 0, "rev-parse", "--git-dir")
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.TrimSpace(out), "worktrees"), nil
}

// StagedDiff returns the staged change set with zero context lines.
func (g *Git) StagedDiff(ctx context.Context) (string, error) {
	return g.run(ctx, 10*time.Second, "diff", "--cached", "-U0")
}

// StatusPorcelain returns `git status --porcelain` output.
func (g *Git) StatusPorcelain(ctx context.Context) (string, error) {
	return g.run(ctx, 0, "status", "--porcelain")
}

// StatusBranch returns `git status -sb` output.
func (g *Git) StatusBranch(ctx context.Context) (string, error) {
	return g.run(ctx, 0, "status", "-sb")
}

// ChangedFiles lists files changed between base and HEAD.
func (g *Git) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	out, err := g.run(ctx, 10*time.Second, "diff", "--name-only", base+"...HEAD")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
