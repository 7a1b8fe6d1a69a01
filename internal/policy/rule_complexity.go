package policy

import (
	"strconv"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// ComplexityRule flags documents touching too many domains at once.
type ComplexityRule struct {
	Markers   []string
	Threshold int
	Action    string
	Message   string
}

// NewComplexityRule creates a complexity rule from config.
func NewComplexityRule(cfg *config.Config) *ComplexityRule {
	if cfg == nil {
		cfg = config.Default()
	}
	c := cfg.Issue.Complexity
	return &ComplexityRule{
		Markers:   c.Markers,
		Threshold: c.SplitThreshold,
		Action:    c.Action,
		Message:   c.Message,
	}
}

// Found returns the distinct markers present in body, case-insensitively.
func (r *ComplexityRule) Found(body string) []string {
	lower := strings.ToLower(body)
	var found []string
	seen := make(map[string]bool)
	for _, m := range r.Markers {
		key := strings.ToLower(strings.TrimSpace(m))
		if key == "" || seen[key] {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = true
			found = append(found, m)
		}
	}
	return found
}

// Evaluate warns, or errors with action block, when the number of markers
// reaches the split threshold.
func (r *ComplexityRule) Evaluate(body string) Findings {
	var f Findings
	if len(r.Markers) == 0 || r.Threshold <= 0 {
		return f
	}

	found := r.Found(body)
	if len(found) < r.Threshold {
		return f
	}

	msg := strconv.Itoa(len(found)) + " domain markers detected (threshold " + strconv.Itoa(r.Threshold) + "): " + strings.Join(found, ", ")
	if strings.EqualFold(r.Action, "block") {
		f.Error(msg)
	} else {
		f.Warn(msg)
	}
	if r.Message != "" {
		f.Hint(r.Message)
	}
	f.Hint("create one sub-issue per domain, e.g. gh issue create --title 'feat(db): ...' --body-file /tmp/sub-issue-1.md")
	return f
}
