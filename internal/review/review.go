// Package review inspects a pull request right after `gh pr create` and
// tells the agent what to fix. It never blocks the command that already ran.
package review

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/dod"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/parser"
	"github.com/adrianpk/hookgate/internal/vcs"
)

var (
	prURLPattern   = regexp.MustCompile(`https://github\.com/([^/\s]+/[^/\s]+)/pull/(\d+)`)
	dodLevelBox    = regexp.MustCompile(`(?i)\[x\]\s*(Bronze|Silver|Gold)`)
	issueRef       = regexp.MustCompile(`#\d+`)
	requirementRef = regexp.MustCompile(`(?i)要件.*#\d+|Requirements.*#\d+`)
	testMention    = regexp.MustCompile(`\.test\.|\.spec\.|__tests__|テスト|(?i:tests?\b)`)
)

// Fetcher loads a pull request. vcs.GitHub implements it.
type Fetcher interface {
	PullRequestWithBody(ctx context.Context, number int, repo string) (*vcs.PullRequest, error)
}

// Reviewer reviews newly created pull requests.
type Reviewer struct {
	Config *config.Config
	GitHub Fetcher
}

// NewReviewer creates a reviewer.
func NewReviewer(cfg *config.Config, gh Fetcher) *Reviewer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Reviewer{Config: cfg, GitHub: gh}
}

// Result is the hook output. A non-empty Decision asks the agent to act.
type Result struct {
	Decision          string  `json:"decision,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	AdditionalContext Context `json:"additionalContext"`
}

// Context carries the review details.
type Context struct {
	PRURL       string   `json:"pr_url"`
	PRNumber    int      `json:"pr_number"`
	PRType      string   `json:"pr_type"`
	Status      string   `json:"status,omitempty"`
	Message     string   `json:"message,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	FixCommand  string   `json:"fix_command,omitempty"`
	Instruction string   `json:"instruction,omitempty"`
}

// Blocked reports whether the review found errors.
func (r Result) Blocked() bool { return r.Decision == "block" }

// Review looks for a created PR in output of command. ok is false when
// there is nothing to review.
func (r *Reviewer) Review(ctx context.Context, command, output string) (Result, bool) {
	if !r.Config.Review.Enabled || !createsPR(command) {
		return Result{}, false
	}

	url, repo, number, found := ParseURL(output)
	if !found {
		return Result{}, false
	}
	if r.GitHub == nil {
		return Result{}, false
	}

	pr, err := r.GitHub.PullRequestWithBody(ctx, number, repo)
	if err != nil {
		log.Warn("review: pr not loaded", "pr", number, "error", err)
		return Result{}, false
	}
	if strings.TrimSpace(pr.Body) == "" {
		return Result{}, false
	}

	labels := pr.LabelNames()
	prType := Type(labels)

	var errs, suggestions []string
	switch prType {
	case "requirements":
		errs, suggestions = ValidateRequirements(r.Config.Review.RequirementsPhases, pr.Body)
	case "implementation":
		errs, suggestions = ValidateImplementation(pr.Body, labels)
	default:
		suggestions = append(suggestions, "add a type:requirements or type:implementation label")
	}

	c := Context{PRURL: url, PRNumber: number, PRType: prType}
	res := Result{AdditionalContext: c}
	switch {
	case len(errs) > 0:
		fixPath := r.Config.Review.FixBodyPath
		if fixPath == "" {
			fixPath = "/tmp/fixed-pr-body.md"
		}
		res.Decision = "block"
		res.Reason = fmt.Sprintf("PR #%d has quality errors, fix them", number)
		res.AdditionalContext.Errors = errs
		res.AdditionalContext.Suggestions = suggestions
		res.AdditionalContext.FixCommand = "gh pr edit " + strconv.Itoa(number) + " --body-file " + fixPath
		res.AdditionalContext.Instruction = "write the corrected body to " + fixPath + " and update the PR with gh pr edit"
	case len(suggestions) > 0:
		res.AdditionalContext.Status = "ok_with_suggestions"
		res.AdditionalContext.Suggestions = suggestions
	default:
		res.AdditionalContext.Status = "ok"
		res.AdditionalContext.Message = "quality check OK"
	}

	log.Info("review", "pr", number, "type", prType, "errors", len(errs), "suggestions", len(suggestions))
	return res, true
}

// ParseURL finds the first pull request URL in output.
func ParseURL(output string) (url, repo string, number int, ok bool) {
	m := prURLPattern.FindStringSubmatch(output)
	if m == nil {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", "", 0, false
	}
	return m[0], m[1], n, true
}

// Type derives the PR type from labels.
func Type(labels []string) string {
	for _, l := range labels {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "requirements") {
			return "requirements"
		}
		if strings.Contains(lower, "implementation") {
			return "implementation"
		}
	}
	return ""
}

// ValidateRequirements checks a requirements PR body for the phase
// headings, a DoD level choice, a pre-mortem and an issue reference.
func ValidateRequirements(phases []config.PhaseCheck, body string) (errs, suggestions []string) {
	for _, p := range phases {
		if re := p.Regexp(); re != nil && !re.MatchString(body) {
			errs = append(errs, "missing section: "+p.Name)
		}
	}
	if !dodLevelBox.MatchString(body) {
		suggestions = append(suggestions, "select a DoD level ([x] Silver)")
	}
	if !strings.Contains(body, "Pre-mortem") && !strings.Contains(body, "失敗シナリオ") {
		suggestions = append(suggestions, "add a Pre-mortem section (failure scenarios)")
	}
	if !issueRef.MatchString(body) {
		errs = append(errs, "no issue reference (#number)")
	}
	return errs, suggestions
}

// ValidateImplementation checks an implementation PR body for the
// requirements reference, test mentions and e2e coverage on gold.
func ValidateImplementation(body string, labels []string) (errs, suggestions []string) {
	if !requirementRef.MatchString(body) {
		errs = append(errs, "no requirements PR reference")
	}
	if !testMention.MatchString(body) {
		suggestions = append(suggestions, "no test files mentioned")
	}
	if levelFromLabels(labels) == "gold" && !strings.Contains(strings.ToLower(body), "e2e") {
		errs = append(errs, "gold level: E2E tests must be mentioned")
	}
	return errs, suggestions
}

func levelFromLabels(labels []string) string {
	level := ""
	for _, l := range labels {
		lower := strings.ToLower(l)
		for _, name := range dod.Levels {
			if strings.Contains(lower, name) {
				level = name
			}
		}
	}
	return level
}

func createsPR(command string) bool {
	for _, seg := range parser.Segments(command) {
		if parser.ParseSegment(seg).Is("gh", "pr", "create") {
			return true
		}
	}
	return false
}
