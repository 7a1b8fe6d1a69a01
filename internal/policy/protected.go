package policy

import (
	"path"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
)

// IsProtected reports whether branch matches one of the protected entries.
// Entries may be exact names or path.Match patterns such as release/*.
// The always-protected branches match even when protected is empty.
func IsProtected(branch string, protected []string) bool {
	branch = normalizeBranch(branch)
	if branch == "" {
		return false
	}

	for _, p := range append(config.AlwaysProtected(), protected...) {
		if p == branch {
			return true
		}
		if strings.ContainsAny(p, "*?[") {
			if ok, _ := path.Match(p, branch); ok {
				return true
			}
		}
	}

	return false
}

// normalizeBranch strips the refs/heads/ prefix.
func normalizeBranch(b string) string {
	b = strings.TrimSpace(b)
	b = strings.TrimPrefix(b, "refs/heads/")
	return b
}
