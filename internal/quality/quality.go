// Package quality runs the post-edit checks for source files: a project
// type check, a lint of the edited file and a literal security scan.
// Results are cached by content hash so an unchanged file is not rechecked.
package quality

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrianpk/hookgate/internal/cache"
	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/glob"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/runner"
)

const (
	defaultTypeCheck = "npx tsc --noEmit"
	defaultLint      = "npm run lint"
)

// CachePath returns the quality cache file for cfg.
func CachePath(cfg *config.Config) string {
	if p := cfg.Quality.CachePath; p != "" {
		return config.ExpandPath(p)
	}
	return filepath.Join(config.CacheDir(), "quality-ts-cache.json")
}

// Checker checks edited files.
type Checker struct {
	Config *config.Config
	Runner runner.Runner
	Store  cache.Store
	// Dir is the working directory for the check commands.
	Dir string

	now func() time.Time
}

// NewChecker creates a checker.
func NewChecker(cfg *config.Config, r runner.Runner, store cache.Store, dir string) *Checker {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Checker{Config: cfg, Runner: r, Store: store, Dir: dir, now: time.Now}
}

// Report is the outcome for one file.
type Report struct {
	File     string
	Cached   bool
	Result   string
	Security []string
	Details  []string
}

// Check runs the checks for path. ok is false when the file is not selected
// by the include and exclude patterns or cannot be read.
func (c *Checker) Check(ctx context.Context, path string) (Report, bool) {
	path = c.resolve(path)
	q := c.Config.Quality
	if path == "" || !glob.Select(path, q.Include, q.Exclude) {
		return Report{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Report{}, false
	}
	hash := cache.HashBytes(content)

	if c.Store != nil {
		entry, found, err := c.Store.Get(path)
		if err != nil {
			log.Warn("quality cache unreadable", "error", err)
		}
		if found && cache.Fresh(entry, hash, q.CacheTTL, c.clock()) {
			result := entry.Result
			if result == "" {
				result = "OK"
			}
			return Report{File: path, Cached: true, Result: result}, true
		}
	}

	rep := Report{File: path}
	var results []string

	if res := c.run(ctx, c.typeCheckCommand(), nil, q.TypeCheckTimeout); res.OK() {
		results = append(results, "type:OK")
	} else {
		results = append(results, "type:FAIL")
		rep.Details = append(rep.Details, "type check: "+summarize(res, 200))
	}

	if res := c.run(ctx, c.lintCommand(), []string{path}, q.LintTimeout); res.OK() {
		results = append(results, "lint:OK")
	} else {
		results = append(results, "lint:FAIL")
		rep.Details = append(rep.Details, "lint: "+summarize(res, 150))
	}

	rep.Security = c.scan(string(content))
	if len(rep.Security) == 0 {
		results = append(results, "security:OK")
	} else {
		results = append(results, fmt.Sprintf("security:%d", len(rep.Security)))
	}

	rep.Result = strings.Join(results, " | ")

	if c.Store != nil {
		if err := c.Store.Put(path, cache.NewEntry(hash, rep.Result, c.clock())); err != nil {
			log.Warn("quality cache not saved", "error", err)
		}
	}
	log.Info("quality check", "file", path, "result", rep.Result)
	return rep, true
}

// typeCheckCommand uses quality.type_check_command, then the bronze A1
// requirement, then the default.
func (c *Checker) typeCheckCommand() string {
	if cmd := c.Config.Quality.TypeCheckCommand; cmd != "" {
		return cmd
	}
	if r, ok := c.Config.DoD.Bronze.Find("A1"); ok && r.Command != "" {
		return r.Command
	}
	return defaultTypeCheck
}

func (c *Checker) lintCommand() string {
	if cmd := c.Config.Quality.LintCommand; cmd != "" {
		return cmd
	}
	if r, ok := c.Config.DoD.Bronze.Find("A2"); ok && r.Command != "" {
		return r.Command
	}
	return defaultLint
}

// run executes line with extra arguments appended. npm scripts receive
// them after "--".
func (c *Checker) run(ctx context.Context, line string, extra []string, timeout time.Duration) runner.Result {
	args := parser.Split(line)
	if len(args) == 0 {
		return runner.Result{ExitCode: -1, Err: runner.ErrNotFound}
	}
	if len(extra) > 0 {
		if args[0] == "npm" && contains(args, "run") {
			args = append(args, "--")
		}
		args = append(args, extra...)
	}
	if c.Runner == nil {
		return runner.Result{ExitCode: -1, Err: runner.ErrNotFound}
	}
	return c.Runner.Run(ctx, runner.Command{Name: args[0], Args: args[1:], Dir: c.Dir, Timeout: timeout})
}

// scan reports the configured security snippets found in content.
func (c *Checker) scan(content string) []string {
	patterns := c.Config.SecurityPatterns[c.language()]
	if len(patterns) == 0 {
		patterns = config.Default().SecurityPatterns["typescript"]
	}

	var hits []string
	for _, p := range patterns {
		if p.Pattern == "" || !strings.Contains(content, p.Pattern) {
			continue
		}
		sev := p.Severity
		if sev == "" {
			sev = "medium"
		}
		hits = append(hits, fmt.Sprintf("SECURITY[%s]: %s - %s", sev, p.Pattern, p.Message))
	}
	return hits
}

func (c *Checker) language() string {
	if l := c.Config.Quality.Language; l != "" {
		return l
	}
	return "typescript"
}

func (c *Checker) resolve(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") || filepath.IsAbs(p) || c.Dir == "" {
		return config.ExpandPath(p)
	}
	return filepath.Join(c.Dir, p)
}

func (c *Checker) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

// Write prints the report the way the hook shows it to the agent.
func (r Report) Write(w io.Writer) {
	name := filepath.Base(r.File)
	if r.Cached {
		fmt.Fprintf(w, "[Quality Check] Cached: %s :: %s\n", name, r.Result)
		return
	}
	fmt.Fprintf(w, "\n[Quality Check] %s\n", name)
	for _, part := range strings.Split(r.Result, " | ") {
		fmt.Fprintf(w, "  %s\n", part)
	}
	for _, d := range r.Details {
		fmt.Fprintf(w, "    %s\n", d)
	}
	for _, s := range r.Security {
		fmt.Fprintf(w, "  %s\n", s)
	}
}

func summarize(res runner.Result, max int) string {
	var out string
	switch {
	case res.TimedOut():
		out = "timeout"
	case res.Err != nil && res.Output() == "":
		out = res.Err.Error()
	default:
		out = res.Output()
	}
	if len(out) > max {
		out = out[:max]
	}
	if out == "" {
		out = fmt.Sprintf("exit %d", res.ExitCode)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
