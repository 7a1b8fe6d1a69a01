package policy

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// DangerousRule matches configured risky command patterns.
type DangerousRule struct {
	Rules []config.PatternRule
}

// NewDangerousRule creates a rule from config.
func NewDangerousRule(cfg *config.Config) *DangerousRule {
	if cfg == nil {
		return &DangerousRule{}
	}
	return &DangerousRule{Rules: cfg.DangerousOperations}
}

// Evaluate checks the raw command against every rule. The default action
// is warn.
func (r *DangerousRule) Evaluate(raw string) Findings {
	var f Findings
	for _, rule := range r.Rules {
		re := rule.Regexp()
		if re == nil || !re.MatchString(raw) {
			continue
		}
		msg := rule.Message
		if msg == "" {
			msg = "dangerous operation detected"
		}
		msg += " (" + rule.Pattern + ")"
		if strings.EqualFold(actionOrDefault(rule.Action, "warn"), "block") {
			f.Error(msg)
		} else {
			f.Warn(msg)
		}
	}
	return f
}
