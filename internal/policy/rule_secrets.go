package policy

import (
	"fmt"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// SecretScanner searches text for configured secret patterns.
type SecretScanner struct {
	Patterns []config.SecretPattern
}

// NewSecretScanner creates a scanner from config. A nil config yields a
// scanner with no patterns.
func NewSecretScanner(cfg *config.Config) *SecretScanner {
	if cfg == nil {
		return &SecretScanner{}
	}
	return &SecretScanner{Patterns: cfg.Commit.SecretPatterns}
}

// Scan reports every pattern found in text. label names the scanned
// artifact in messages, e.g. "commit message".
func (s *SecretScanner) Scan(label, text string) Findings {
	var f Findings
	if text == "" {
		return f
	}

	for _, p := range s.Patterns {
		re := p.Regexp()
		if re == nil || !re.MatchString(text) {
			continue
		}
		name := p.Name
		if name == "" {
			name = "Secret"
		}
		if strings.EqualFold(actionOrDefault(p.Action, "block"), "block") {
			f.Error(fmt.Sprintf("secret detected in %s (%s)", label, name))
			f.Hint("remove the secret and load it from the environment or a secret manager")
		} else {
			f.Warn(fmt.Sprintf("secret-like pattern in %s (%s)", label, name))
		}
	}

	return f
}

func actionOrDefault(action, def string) string {
	if action == "" {
		return def
	}
	return action
}
