package dod

import (
	"context"
	"fmt"
	"time"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/policy"
	"github.com/adrianpk/hookgate/internal/runner"
)

// Brancher reports the current branch. vcs.Git implements it.
type Brancher interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// Gate runs the DoD commands of the target level before `gh pr create`.
type Gate struct {
	Config *config.Config
	Git    Brancher
	Runner runner.Runner
	Dir    string
}

// NewGate creates a gate.
func NewGate(cfg *config.Config, git Brancher, r runner.Runner, dir string) *Gate {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Gate{Config: cfg, Git: git, Runner: r, Dir: dir}
}

// Evaluate runs the gate when raw creates a pull request. Required steps
// that fail block; optional ones warn.
func (g *Gate) Evaluate(ctx context.Context, raw string) policy.Decision {
	var labels []string
	found := false
	for _, seg := range parser.Segments(raw) {
		cmd := parser.ParseSegment(seg)
		if cmd.Is("gh", "pr", "create") {
			found = true
			labels = append(parser.FlagValues(cmd.Tokens, "--label"), parser.FlagValues(cmd.Tokens, "-l")...)
			break
		}
	}
	if !found {
		return policy.Decision{Verdict: policy.Allow}
	}

	var branch string
	if g.Git != nil {
		b, err := g.Git.CurrentBranch(ctx)
		if err != nil {
			log.Warn("dod gate: branch unknown", "error", err)
		}
		branch = b
	}

	level := LevelFor(g.Config, labels, branch)
	f := g.run(ctx, Steps(g.Config, level))

	log.Info("dod gate", "branch", branch, "level", level, "errors", len(f.Errors))

	if len(f.Errors) > 0 {
		f.Hint("fix the failing checks, or lower the level with a dod: label if the change allows it")
		return policy.Decide("QUALITY GATE BLOCKED [DoD: "+Title(level)+"]", f)
	}
	return policy.Decide("QUALITY GATE WARNING [DoD: "+Title(level)+"]", f)
}

func (g *Gate) run(ctx context.Context, steps []Step) policy.Findings {
	var f policy.Findings
	timeout := g.Config.DoD.GateTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	for _, s := range steps {
		args := parser.Split(s.Command)
		if len(args) == 0 {
			continue
		}

		var res runner.Result
		if g.Runner == nil {
			res = runner.Result{ExitCode: -1, Err: runner.ErrNotFound}
		} else {
			res = g.Runner.Run(ctx, runner.Command{Name: args[0], Args: args[1:], Dir: g.Dir, Timeout: timeout})
		}
		if res.OK() {
			continue
		}

		msg := fmt.Sprintf("[%s] %s: %s", Title(s.Level), s.Label(), outcome(res))
		if s.Required {
			f.Error(msg)
		} else {
			f.Warn(msg)
		}
	}
	return f
}

// outcome names a failed result as failed, timeout or error.
func outcome(res runner.Result) string {
	switch {
	case res.TimedOut():
		return "timeout"
	case res.Err != nil:
		return "error (" + res.Err.Error() + ")"
	}
	return "failed"
}
