package hook

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/policy"
)

// Repo exposes the repository facts the gate depends on. vcs.Git
// implements it.
type Repo interface {
	CurrentBranch(ctx context.Context) (string, error)
	InWorktree(ctx context.Context) (bool, error)
	StagedDiff(ctx context.Context) (string, error)
}

// Gate evaluates Bash commands before they run.
type Gate struct {
	Config    *config.Config
	ConfigErr error
	Repo      Repo
	Tracker   policy.Tracker
	Routing   *policy.RoutingRule

	readFile func(string) ([]byte, error)
}

// NewGate creates a gate. cfgErr is the error met while loading cfg; when
// set, only the checks that do not depend on the guardrails file run.
func NewGate(cfg *config.Config, cfgErr error, repo Repo, tracker policy.Tracker) *Gate {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Gate{
		Config:    cfg,
		ConfigErr: cfgErr,
		Repo:      repo,
		Tracker:   tracker,
		Routing:   policy.NewRoutingRule(cfg),
		readFile:  os.ReadFile,
	}
}

// degraded reports whether the guardrails file is unavailable.
func (g *Gate) degraded() bool {
	return g.ConfigErr != nil
}

// Evaluate decides on a PreToolUse event. Non-Bash events are allowed.
func (g *Gate) Evaluate(ctx context.Context, in Input) policy.Decision {
	raw := in.Command()
	if in.ToolName != "Bash" || raw == "" {
		return policy.Decision{Verdict: policy.Allow}
	}

	var decisions []policy.Decision
	decisions = append(decisions, g.configDecision())

	// evasion blocks on its own, whatever else the command does
	if f := policy.EvaluateEvasion(raw); len(f.Errors) > 0 {
		decisions = append(decisions, policy.Decide("COMMAND EVASION DETECTED", f))
		d := policy.Merge(decisions...)
		g.log(in, d)
		return d
	}

	for _, seg := range parser.Segments(raw) {
		cmd := parser.ParseSegment(seg)
		switch {
		case cmd.Is("gh", "issue", "create"):
			decisions = append(decisions, g.issueCreate(ctx, in, cmd))
		case cmd.Is("gh", "pr", "create"):
			decisions = append(decisions, g.prCreate(ctx, in, cmd))
		case cmd.Is("git", "commit"):
			decisions = append(decisions, g.commit(ctx, cmd))
		case cmd.Is("git", "push"):
			decisions = append(decisions, g.push(ctx, cmd))
		case cmd.Is("git", "checkout"), cmd.Is("git", "switch"):
			f := policy.NewBranchRule(g.Config).EvaluateCheckout(cmd)
			decisions = append(decisions, policy.Decide("BRANCH SWITCH WARNING", f))
		}
	}

	if !g.degraded() {
		f := policy.NewDangerousRule(g.Config).Evaluate(parser.StripHeredocs(raw))
		decisions = append(decisions, decide("DANGEROUS OPERATION BLOCKED", "DANGEROUS OPERATION WARNING", f))
	}

	d := policy.Merge(decisions...)
	g.log(in, d)
	return d
}

func (g *Gate) configDecision() policy.Decision {
	var f policy.Findings
	if g.degraded() {
		f.Warn("guardrails unavailable, running structural checks only: " + g.ConfigErr.Error())
		f.Hint("run `hookgate init` to create a guardrails file")
		return policy.Decide("GUARDRAILS WARNING", f)
	}
	for _, p := range g.Config.Problems {
		f.Warn("guardrails: " + p)
	}
	return policy.Decide("GUARDRAILS WARNING", f)
}

func (g *Gate) commit(ctx context.Context, cmd parser.Command) policy.Decision {
	if g.degraded() {
		return policy.Decision{}
	}

	rule := policy.NewCommitRule(g.Config)
	var diff string
	var err error
	if len(rule.Secrets.Patterns) > 0 {
		diff, err = g.stagedDiff(ctx)
	}
	return decide("COMMIT BLOCKED", "COMMIT WARNING", rule.Evaluate(cmd, diff, err))
}

func (g *Gate) push(ctx context.Context, cmd parser.Command) policy.Decision {
	var f policy.Findings

	branch, err := g.currentBranch(ctx)
	if err != nil {
		f.Warn("could not determine current branch: " + err.Error())
	}

	if !g.degraded() && branch != "" {
		inWorktree, wtErr := g.inWorktree(ctx)
		f.Add(policy.NewWorktreeRule(g.Config).Evaluate(branch, inWorktree, wtErr))
	}

	f.Add(policy.NewBranchRule(g.Config).EvaluatePush(cmd, branch))
	return decide("GIT PUSH BLOCKED", "GIT PUSH WARNING", f)
}

func (g *Gate) currentBranch(ctx context.Context) (string, error) {
	if g.Repo == nil {
		return "", errors.New("no repository")
	}
	return g.Repo.CurrentBranch(ctx)
}

func (g *Gate) inWorktree(ctx context.Context) (bool, error) {
	if g.Repo == nil {
		return false, errors.New("no repository")
	}
	return g.Repo.InWorktree(ctx)
}

func (g *Gate) stagedDiff(ctx context.Context) (string, error) {
	if g.Repo == nil {
		return "", errors.New("no repository")
	}
	return g.Repo.StagedDiff(ctx)
}

// readBody resolves path against the event cwd and reads it.
func (g *Gate) readBody(in Input, path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "~/"):
		path = config.ExpandPath(path)
	case !filepath.IsAbs(path) && in.Cwd != "":
		path = filepath.Join(in.Cwd, path)
	}
	data, err := g.readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (g *Gate) log(in Input, d policy.Decision) {
	log.Info("gate decision",
		"tool", in.ToolName,
		"session", in.SessionID,
		"verdict", d.Verdict.String(),
		"reason", d.Reason(),
	)
}

// decide picks the title matching the outcome.
func decide(blockTitle, warnTitle string, f policy.Findings) policy.Decision {
	if len(f.Errors) > 0 {
		return policy.Decide(blockTitle, f)
	}
	return policy.Decide(warnTitle, f)
}
