package policy

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/vcs"
)

// Tracker fetches issue and pull request metadata from the code host.
type Tracker interface {
	Issue(ctx context.Context, number int) (*vcs.Issue, error)
	PullRequest(ctx context.Context, number int) (*vcs.PullRequest, error)
}

// ChainValidator enforces the issue → requirements PR → implementation PR
// chain.
type ChainValidator struct {
	Tracker  Tracker
	Workflow config.WorkflowConfig
}

// NewChainValidator creates a chain validator from config.
func NewChainValidator(cfg *config.Config, t Tracker) *ChainValidator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ChainValidator{Tracker: t, Workflow: cfg.Workflow}
}

// RequirementsRefs returns the requirements PR numbers referenced in body.
func (v *ChainValidator) RequirementsRefs(body string) []int {
	return extractNumbers(body, v.Workflow.RequirementsRefRegexps(), nil)
}

// IssueRefs returns the issue numbers referenced in body. Numbers cited as
// requirements PRs are not issues.
func (v *ChainValidator) IssueRefs(body string) []int {
	exclude := make(map[int]bool)
	for _, n := range v.RequirementsRefs(body) {
		exclude[n] = true
	}
	return extractNumbers(body, v.Workflow.IssueRefRegexps(), exclude)
}

// ValidateRequirements checks a requirements PR: every linked issue must
// exist and have finished investigation.
func (v *ChainValidator) ValidateRequirements(ctx context.Context, body string) Findings {
	var f Findings
	labels := v.Workflow.Labels

	refs := v.IssueRefs(body)
	if len(refs) == 0 {
		f.Error("no related issue referenced")
		f.Hint("add 'closes #123' to the body")
		return f
	}

	for _, n := range refs {
		issue, ok := v.issue(ctx, n, &f)
		if !ok {
			continue
		}
		if issue.HasLabel(labels.InvestigationComplete) {
			continue
		}
		if issue.HasLabel(labels.NeedsInvestigation) {
			f.Error("issue #" + strconv.Itoa(n) + ": investigation not complete (" + labels.NeedsInvestigation + ")")
			f.Hint("finish the investigation and label the issue " + labels.InvestigationComplete)
		} else {
			f.Warn("issue #" + strconv.Itoa(n) + ": missing " + labels.InvestigationComplete + " label")
		}
	}

	return f
}

// ValidateImplementation checks an implementation PR: linked issues must
// exist and the requirements PR must be merged or approved.
func (v *ChainValidator) ValidateImplementation(ctx context.Context, body string) Findings {
	var f Findings
	labels := v.Workflow.Labels

	refs := v.IssueRefs(body)
	if len(refs) == 0 {
		f.Error("no related issue referenced")
		f.Hint("add 'closes #123' to the body")
	}
	for _, n := range refs {
		issue, ok := v.issue(ctx, n, &f)
		if !ok {
			continue
		}
		if !issue.HasLabel(labels.ReadyToDevelop) {
			f.Warn("issue #" + strconv.Itoa(n) + ": missing " + labels.ReadyToDevelop + " label")
			f.Hint("check that the requirements PR was approved")
		}
	}

	if matchesAny(body, v.Workflow.NoRequirementsRegexps()) {
		return f
	}

	prs := v.RequirementsRefs(body)
	if len(prs) == 0 {
		if matchesAny(body, v.Workflow.FeatureRegexps()) {
			f.Error("no requirements PR referenced for a new feature")
			f.Hint("add 'requirements PR: #123' to the body or open one first with /req")
		} else {
			f.Warn("no requirements PR referenced")
			f.Hint("new features need a requirements PR first (/req)")
		}
		return f
	}

	for _, n := range prs {
		v.checkRequirementsPR(ctx, n, &f)
	}

	return f
}

func (v *ChainValidator) checkRequirementsPR(ctx context.Context, n int, f *Findings) {
	ref := "requirements PR #" + strconv.Itoa(n)
	if v.Tracker == nil {
		f.Error(ref + ": could not be checked (no tracker)")
		return
	}

	pr, err := v.Tracker.PullRequest(ctx, n)
	if err != nil {
		if errors.Is(err, vcs.ErrNotFound) {
			f.Error(ref + " not found")
		} else {
			f.Error(ref + ": could not be checked: " + err.Error())
		}
		return
	}

	if label := v.Workflow.Labels.Requirements; label != "" && !pr.HasLabelPrefix(label) {
		f.Warn("PR #" + strconv.Itoa(n) + ": missing " + label + " label")
	}

	switch strings.ToUpper(pr.State) {
	case "MERGED":
	case "OPEN":
		switch strings.ToUpper(pr.ReviewDecision) {
		case "APPROVED":
		case "CHANGES_REQUESTED":
			f.Error(ref + ": changes requested")
			f.Hint("address the review comments on the requirements PR")
		default:
			f.Warn(ref + ": not approved yet (review pending)")
			f.Hint("get the requirements PR reviewed and approved first")
		}
	case "CLOSED":
		f.Error(ref + ": closed without merge")
	}
}

func (v *ChainValidator) issue(ctx context.Context, n int, f *Findings) (*vcs.Issue, bool) {
	ref := "issue #" + strconv.Itoa(n)
	if v.Tracker == nil {
		f.Error(ref + ": could not be checked (no tracker)")
		return nil, false
	}

	issue, err := v.Tracker.Issue(ctx, n)
	if err != nil {
		if errors.Is(err, vcs.ErrNotFound) {
			f.Error(ref + " not found")
		} else {
			f.Error(ref + ": could not be checked: " + err.Error())
		}
		return nil, false
	}
	return issue, true
}

// extractNumbers collects the first capture group of every match, sorted
// and unique.
func extractNumbers(body string, res []*regexp.Regexp, exclude map[int]bool) []int {
	seen := make(map[int]bool)
	var out []int
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatch(body, -1) {
			raw := m[0]
			if len(m) > 1 {
				raw = m[1]
			}
			n, err := strconv.Atoi(strings.TrimLeft(raw, "#"))
			if err != nil || seen[n] || exclude[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func matchesAny(s string, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
