package dod

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrianpk/hookgate/internal/cache"
	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/policy"
	"github.com/adrianpk/hookgate/internal/runner"
)

// EnvStrict turns on strict mode when set to 1.
const EnvStrict = "CLAUDE_DOD_STRICT"

var fallbackBronze = []config.Requirement{
	{Name: "Type Check", Command: "npx tsc --noEmit", Required: true},
	{Name: "Lint", Command: "npm run lint", Required: true},
	{Name: "Tests", Command: "npm run test:run -- --passWithNoTests", Required: true},
}

// Repo is what the checklist needs from git. vcs.Git implements it.
type Repo interface {
	TopLevel(ctx context.Context) (string, error)
	StatusPorcelain(ctx context.Context) (string, error)
	StatusBranch(ctx context.Context) (string, error)
}

// StatePath returns the DoD state file for cfg.
func StatePath(cfg *config.Config) string {
	if p := cfg.DoD.StatePath; p != "" {
		return config.ExpandPath(p)
	}
	return filepath.Join(config.CacheDir(), "dod-state.json")
}

// Checker builds the session end checklist.
type Checker struct {
	Config  *config.Config
	Repo    Repo
	Runner  runner.Runner
	Quality cache.Store
	State   cache.Store
	Strict  bool
	Cwd     string

	now func() time.Time
}

// NewChecker creates a checker. Strict mode comes from the config or the
// CLAUDE_DOD_STRICT environment variable.
func NewChecker(cfg *config.Config, repo Repo, r runner.Runner, quality, state cache.Store, cwd string) *Checker {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Checker{
		Config:  cfg,
		Repo:    repo,
		Runner:  r,
		Quality: quality,
		State:   state,
		Strict:  cfg.DoD.Strict || os.Getenv(EnvStrict) == "1",
		Cwd:     cwd,
		now:     time.Now,
	}
}

// Checklist is the session end report.
type Checklist struct {
	Strict   bool
	Warnings []string
	Actions  []string
	Rules    string
}

// Run collects the checklist and records it in the state store when it is
// not empty.
func (c *Checker) Run(ctx context.Context) Checklist {
	list := Checklist{Strict: c.Strict, Rules: c.Config.Path}

	root := c.root(ctx)

	var f policy.Findings
	f.Add(c.workingTree(ctx))

	var dod []string
	if c.Strict {
		dod = c.strict(ctx)
	} else {
		dod = c.fromCache(root)
	}

	list.Warnings = append(f.Warnings, dod...)
	list.Actions = f.Hints
	for _, w := range dod {
		if strings.HasPrefix(w, "DoD") || strings.HasPrefix(w, "Security") {
			list.Actions = append(list.Actions, "fix issues before merge")
			break
		}
	}

	if len(list.Warnings) > 0 {
		c.save(root, list)
	}
	return list
}

func (c *Checker) root(ctx context.Context) string {
	if c.Repo == nil {
		return ""
	}
	root, err := c.Repo.TopLevel(ctx)
	if err != nil {
		return ""
	}
	return root
}

func (c *Checker) workingTree(ctx context.Context) policy.Findings {
	if c.Repo == nil {
		return policy.Findings{}
	}
	porcelain, err := c.Repo.StatusPorcelain(ctx)
	if err != nil {
		log.Debug("dod check: status failed", "error", err)
		return policy.Findings{}
	}
	branch, _ := c.Repo.StatusBranch(ctx)
	return policy.WorkingTreeRule{}.Evaluate(policy.ReadWorkingTree(porcelain, branch))
}

// fromCache summarizes the quality cache entries of files under root.
func (c *Checker) fromCache(root string) []string {
	var entries map[string]cache.Entry
	if c.Quality != nil {
		var err error
		if entries, err = c.Quality.All(); err != nil {
			log.Warn("dod check: quality cache unreadable", "error", err)
		}
	}
	if len(entries) == 0 {
		return []string{"No quality cache found (run type-check/lint manually)"}
	}
	if root == "" {
		return []string{"Not a git repository (skip DoD cache check)"}
	}

	ttl := c.Config.DoD.CacheTTL
	now := c.clock()
	prefix := filepath.Clean(root) + string(filepath.Separator)

	var checked, stale, typeFails, lintFails, security int
	for path, e := range entries {
		if !filepath.IsAbs(path) || !strings.HasPrefix(filepath.Clean(path), prefix) {
			continue
		}
		checked++

		if e.Time <= 0 || e.Age(now) > ttl {
			stale++
		}
		if strings.Contains(e.Result, "type:FAIL") {
			typeFails++
		}
		if strings.Contains(e.Result, "lint:FAIL") {
			lintFails++
		}
		if strings.Contains(e.Result, "security:") && !strings.Contains(e.Result, "security:OK") {
			security++
		}
	}

	if checked == 0 {
		return []string{"No repo-local quality cache entries found"}
	}

	var out []string
	if stale > 0 {
		out = append(out, fmt.Sprintf("Quality cache stale: %d/%d entries older than %s", stale, checked, ttl))
	}
	if typeFails > 0 {
		out = append(out, fmt.Sprintf("DoD Bronze (cache): %d type failures", typeFails))
	}
	if lintFails > 0 {
		out = append(out, fmt.Sprintf("DoD Bronze (cache): %d lint failures", lintFails))
	}
	if security > 0 {
		out = append(out, fmt.Sprintf("Security (cache): %d issues detected", security))
	}
	return out
}

// strict runs the required bronze commands.
func (c *Checker) strict(ctx context.Context) []string {
	var reqs []config.Requirement
	for _, r := range c.Config.DoD.Bronze.Requirements {
		if r.Required && r.Command != "" {
			reqs = append(reqs, r)
		}
	}
	if len(reqs) == 0 {
		reqs = fallbackBronze
	}

	var out []string
	for _, r := range reqs {
		args := parser.Split(r.Command)
		if len(args) == 0 {
			continue
		}
		var res runner.Result
		if c.Runner == nil {
			res = runner.Result{ExitCode: -1, Err: runner.ErrNotFound}
		} else {
			res = c.Runner.Run(ctx, runner.Command{
				Name:    args[0],
				Args:    args[1:],
				Dir:     c.Cwd,
				Timeout: c.Config.DoD.StrictTimeout,
			})
		}
		if !res.OK() {
			out = append(out, "DoD Bronze (strict): "+r.Label()+" "+outcome(res))
		}
	}
	return out
}

func (c *Checker) save(root string, list Checklist) {
	if c.State == nil {
		return
	}
	key := root
	if key == "" {
		key = c.Cwd
	}

	e := cache.NewEntry("", "", c.clock())
	e.Warnings = list.Warnings
	e.Meta = map[string]string{
		"strict_mode": strconv.FormatBool(list.Strict),
		"cwd":         c.Cwd,
		"git_root":    root,
		"guardrails":  list.Rules,
	}
	if err := c.State.Put(cache.RepoKey(key), e); err != nil {
		log.Warn("dod state not saved", "error", err)
	}
}

func (c *Checker) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Write prints the checklist.
func (l Checklist) Write(w io.Writer) {
	if len(l.Warnings) == 0 {
		fmt.Fprintln(w, "\n[Session End] All checks passed.")
		return
	}

	fmt.Fprintln(w)
	if l.Strict {
		fmt.Fprintln(w, "[DoD Check] strict mode: full checks were run")
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "SESSION END CHECKLIST")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for i, warn := range l.Warnings {
		fmt.Fprintf(w, "  %d. %s\n", i+1, warn)
	}
	if len(l.Actions) > 0 {
		fmt.Fprintln(w, "\nActions:")
		for _, a := range l.Actions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	if l.Rules != "" {
		fmt.Fprintf(w, "\nRules: %s\n", l.Rules)
	}
	fmt.Fprintln(w, strings.Repeat("=", 60))
}
