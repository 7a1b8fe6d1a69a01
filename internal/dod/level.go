// Package dod implements the Definition of Done hooks: the session end
// checklist and the quality gate run before a pull request is created.
package dod

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// Levels in ascending order. Each level includes the ones before it.
var Levels = []string{"bronze", "silver", "gold"}

// LevelFor picks the DoD level: a label naming a level wins, then the
// first branch_levels entry matching branch, then the default level.
func LevelFor(cfg *config.Config, labels []string, branch string) string {
	for _, l := range labels {
		lower := strings.ToLower(l)
		for i := len(Levels) - 1; i >= 0; i-- {
			if strings.Contains(lower, Levels[i]) {
				return Levels[i]
			}
		}
	}

	for _, bl := range cfg.DoD.BranchLevels {
		for _, re := range bl.Regexps() {
			if re.MatchString(branch) {
				return strings.ToLower(bl.Level)
			}
		}
	}

	if l := strings.ToLower(cfg.DoD.DefaultLevel); l != "" {
		return l
	}
	return "silver"
}

// Step is a requirement together with the level that introduced it.
type Step struct {
	Level string
	config.Requirement
}

// Steps returns the requirements of level and every level below it.
func Steps(cfg *config.Config, level string) []Step {
	var steps []Step
	for _, name := range Levels {
		l, _ := cfg.DoD.Level(name)
		for _, r := range l.Requirements {
			steps = append(steps, Step{Level: name, Requirement: r})
		}
		if name == level {
			break
		}
	}
	return steps
}

// Title capitalizes a level name for display.
func Title(level string) string {
	if level == "" {
		return ""
	}
	return strings.ToUpper(level[:1]) + level[1:]
}
