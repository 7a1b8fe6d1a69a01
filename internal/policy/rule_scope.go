package policy

import (
	"strings"
	"unicode"

	"github.com/adrianpk/hookgate/internal/config"
)

// ScopeDetector flags change categories (db, api, ui, ...) mentioned in a
// document.
type ScopeDetector struct {
	Scopes []config.Scope
}

// NewScopeDetector creates a detector from config.
func NewScopeDetector(cfg *config.Config) *ScopeDetector {
	if cfg == nil {
		cfg = config.Default()
	}
	return &ScopeDetector{Scopes: cfg.PR.Scopes}
}

// Detect returns the scopes whose patterns match body. Every configured
// scope has an entry.
func (d *ScopeDetector) Detect(body string) map[string]bool {
	detected := make(map[string]bool, len(d.Scopes))
	for _, s := range d.Scopes {
		detected[s.ID] = false
		for _, re := range s.Regexps() {
			if re.MatchString(body) {
				detected[s.ID] = true
				break
			}
		}
	}
	return detected
}

// Applies reports whether a section with the given applies_to condition is
// in force. Conditions naming no known scope always apply; otherwise every
// named scope must be detected.
func (d *ScopeDetector) Applies(appliesTo string, detected map[string]bool) bool {
	if strings.TrimSpace(appliesTo) == "" {
		return true
	}

	for _, s := range d.Scopes {
		if !mentionsScope(appliesTo, s) {
			continue
		}
		if !detected[s.ID] {
			return false
		}
	}
	return true
}

// mentionsScope matches the scope label as a substring or the id as a
// whole word, both case-insensitively.
func mentionsScope(appliesTo string, s config.Scope) bool {
	lower := strings.ToLower(appliesTo)
	if s.Label != "" && strings.Contains(lower, strings.ToLower(s.Label)) {
		return true
	}
	if s.ID == "" {
		return false
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if w == strings.ToLower(s.ID) {
			return true
		}
	}
	return false
}
