package policy

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// EvaluateLabels checks the labels passed to gh pr create. A missing
// required prefix is an error, a missing optional one a warning.
func EvaluateLabels(rules []config.LabelRule, labels []string) Findings {
	var f Findings
	for _, rule := range rules {
		if rule.Prefix == "" {
			continue
		}
		if hasPrefix(labels, rule.Prefix) {
			continue
		}
		msg := rule.Message
		if msg == "" {
			msg = rule.Prefix + " label is required"
		}
		if rule.Required {
			f.Error(msg)
			f.Hint("add it with --label " + rule.Prefix + "...")
		} else {
			f.Warn(msg)
		}
	}
	return f
}

// EvaluateTemplate requires the PR template mapped to the branch prefix,
// e.g. requirements/x needs --template requirements.md.
func EvaluateTemplate(templates map[string]string, branch, template string) Findings {
	var f Findings
	prefix, _, ok := strings.Cut(branch, "/")
	if !ok {
		return f
	}
	want, ok := templates[prefix]
	if !ok || want == "" || template == want {
		return f
	}
	f.Error("branch '" + branch + "' requires --template " + want)
	f.Hint("gh pr create --template " + want + " ...")
	return f
}

// PRType returns the value of the first type: label.
func PRType(labels []string) string {
	for _, l := range labels {
		if strings.HasPrefix(l, "type:") {
			return strings.TrimPrefix(l, "type:")
		}
	}
	return ""
}

// SuggestCI recommends the default CI label for a PR type when no ci:
// label was given.
func SuggestCI(types map[string]config.TypeConfig, prType string, labels []string) Findings {
	var f Findings
	if prType == "" || hasPrefix(labels, "ci:") {
		return f
	}
	ci := "ci:full"
	if tc, ok := types[prType]; ok && tc.DefaultCI != "" {
		ci = tc.DefaultCI
	}
	f.Warn("recommended CI label for type:" + prType + ": " + ci)
	return f
}

func hasPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
