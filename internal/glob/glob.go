// Package glob matches slash-separated paths against patterns with ** support.
package glob

import (
	"path"
	"path/filepath"
	"strings"
)

// Match matches a path against a glob pattern.
// ** matches any number of directories, including none. Patterns without a
// directory part are also tried against the base name.
func Match(p, pattern string) bool {
	p = filepath.ToSlash(filepath.Clean(p))
	pattern = filepath.ToSlash(filepath.Clean(pattern))

	if strings.Contains(pattern, "**") {
		return matchSegments(strings.Split(p, "/"), strings.Split(pattern, "/"))
	}

	if matched, _ := path.Match(pattern, p); matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, _ := path.Match(pattern, path.Base(p))
		return matched
	}
	return false
}

// matchSegments walks path and pattern segment by segment, letting a **
// segment absorb zero or more path segments.
func matchSegments(parts, pattern []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(parts[i:], rest) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if matched, _ := path.Match(head, parts[0]); !matched {
			return false
		}
		parts = parts[1:]
		pattern = pattern[1:]
	}
	return len(parts) == 0
}

// MatchAny returns true if the path matches any of the patterns.
func MatchAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if Match(p, pattern) {
			return true
		}
	}
	return false
}

// Select reports whether p is matched by include and not by exclude. An
// empty include list matches everything.
func Select(p string, include, exclude []string) bool {
	if len(include) > 0 && !MatchAny(p, include) {
		return false
	}
	return !MatchAny(p, exclude)
}
