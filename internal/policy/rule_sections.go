package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// SectionValidator checks that a document carries its required sections.
type SectionValidator struct {
	Scopes      *ScopeDetector
	RowPattern  *regexp.Regexp
	GroupLabels map[string]string
}

// NewSectionValidator creates a validator from config.
func NewSectionValidator(cfg *config.Config) *SectionValidator {
	if cfg == nil {
		cfg = config.Default()
	}
	return &SectionValidator{
		Scopes:      NewScopeDetector(cfg),
		RowPattern:  cfg.PR.RowRegexp(),
		GroupLabels: cfg.PR.GroupLabels,
	}
}

type sectionGroup struct {
	key      string
	errors   []string
	warnings []string
}

// Validate reports every missing required section. Sections with an
// applies_to condition are skipped unless the body triggers its scope.
// When sections are grouped, errors are listed under group headings in
// first-seen order.
func (v *SectionValidator) Validate(body string, sections []config.Section) Findings {
	var f Findings
	lower := strings.ToLower(body)
	detected := v.Scopes.Detect(body)

	var groups []*sectionGroup
	index := make(map[string]*sectionGroup)
	grouped := false

	for _, sec := range sections {
		key := sectionGroupKey(sec)
		if key != "common" {
			grouped = true
		}
		g, ok := index[key]
		if !ok {
			g = &sectionGroup{key: key}
			index[key] = g
			groups = append(groups, g)
		}

		if !sec.Required {
			continue
		}
		name := strings.TrimSpace(sec.Name)
		if name == "" {
			continue
		}
		if sec.AppliesTo != "" && !v.Scopes.Applies(sec.AppliesTo, detected) {
			continue
		}

		if !sectionPresent(lower, body, sec) {
			msg := "missing required section: " + name
			if desc := strings.TrimSpace(sec.Description); desc != "" {
				msg += " (" + desc + ")"
			}
			g.errors = append(g.errors, msg)
			continue
		}

		if sec.MinimumCount > 0 && v.RowPattern != nil {
			n := len(v.RowPattern.FindAllStringIndex(body, -1))
			if n < sec.MinimumCount {
				g.warnings = append(g.warnings, fmt.Sprintf("%s: at least %d entries recommended (found %d)", name, sec.MinimumCount, n))
			}
		}
	}

	for _, g := range groups {
		if len(g.errors) > 0 {
			if grouped {
				f.Error("[" + v.groupLabel(g.key) + "]")
			}
			for _, e := range g.errors {
				f.Error(e)
			}
		}
		f.Warnings = append(f.Warnings, g.warnings...)
	}
	if len(f.Errors) > 0 {
		f.Hint("add the missing sections to the body file and retry")
	}

	return f
}

func sectionPresent(lower, body string, sec config.Section) bool {
	terms := append([]string{sec.Name}, sec.Aliases...)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	if re := sec.Regexp(); re != nil && re.MatchString(body) {
		return true
	}
	return false
}

// sectionGroupKey uses the explicit group, or the phaseN prefix of the id.
func sectionGroupKey(sec config.Section) string {
	if sec.Group != "" {
		return sec.Group
	}
	if strings.HasPrefix(sec.ID, "phase") {
		return strings.SplitN(sec.ID, "_", 2)[0]
	}
	return "common"
}

func (v *SectionValidator) groupLabel(key string) string {
	if label, ok := v.GroupLabels[key]; ok && label != "" {
		return label
	}
	return key
}
