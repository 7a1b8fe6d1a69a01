package policy

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/parser"
)

// pushValueFlags take a separate value token.
var pushValueFlags = map[string]bool{
	"-o": true, "--push-option": true, "--repo": true,
	"--receive-pack": true, "--exec": true,
}

// BranchRule guards pushes to protected branches and warns on branch
// switches in a shared checkout.
type BranchRule struct {
	Protected        []string
	WorktreePrefixes []string
}

// NewBranchRule creates a branch rule from config.
func NewBranchRule(cfg *config.Config) *BranchRule {
	if cfg == nil {
		cfg = config.Default()
	}
	return &BranchRule{
		Protected:        cfg.Push.ProtectedBranches,
		WorktreePrefixes: cfg.Workflow.WorktreePrefixes,
	}
}

// Push describes the parsed intent of a git push.
type Push struct {
	Targets []string
	Force   bool
	Lease   bool
	Delete  bool
	All     bool
}

// ParsePush inspects the tokens after `push`. Flags may appear anywhere.
// Without an explicit refspec the current branch is the target.
func ParsePush(args []string, current string) Push {
	var p Push
	var positional []string

	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") {
			positional = append(positional, a)
			continue
		}

		key := a
		if idx := strings.Index(a, "="); idx != -1 {
			key = a[:idx]
		}
		switch {
		case key == "--force" || key == "-f":
			p.Force = true
		case key == "--force-with-lease" || key == "--force-if-includes":
			p.Force = true
			p.Lease = true
		case key == "--delete" || key == "-d":
			p.Delete = true
		case key == "--all" || key == "--mirror" || key == "--branches":
			p.All = true
		case pushValueFlags[key] && key == a:
			i++
		case isShortCluster(a, a[len(a)-1]) && strings.ContainsRune(a[1:], 'f'):
			p.Force = true
		}
	}

	// first positional is the remote
	var refspecs []string
	if len(positional) > 1 {
		refspecs = positional[1:]
	}

	for _, ref := range refspecs {
		if strings.HasPrefix(ref, "+") {
			p.Force = true
			ref = ref[1:]
		}
		dst := ref
		if idx := strings.LastIndex(ref, ":"); idx != -1 {
			dst = ref[idx+1:]
			if ref[:idx] == "" {
				p.Delete = true
			}
		}
		if dst == "HEAD" || dst == "" {
			dst = current
		}
		if dst = normalizeBranch(dst); dst != "" {
			p.Targets = append(p.Targets, dst)
		}
	}

	if len(refspecs) == 0 && !p.All && current != "" {
		p.Targets = append(p.Targets, normalizeBranch(current))
	}

	return p
}

// EvaluatePush applies push protection. A forced or deleting push to a
// protected branch is always an error.
func (r *BranchRule) EvaluatePush(cmd parser.Command, current string) Findings {
	var f Findings
	sub, args := cmd.Sub()
	if cmd.Program != "git" || sub != "push" {
		return f
	}

	push := ParsePush(args, current)

	var protected []string
	if push.All {
		protected = append(protected, config.AlwaysProtected()...)
	}
	for _, t := range push.Targets {
		if IsProtected(t, r.Protected) && !contains(protected, t) {
			protected = append(protected, t)
		}
	}

	switch {
	case len(protected) > 0 && push.Delete:
		f.Error("deleting protected branch is prohibited: " + strings.Join(protected, ", "))
		f.Hint("protected branches change only through merged pull requests")
	case len(protected) > 0 && push.Force:
		f.Error("force push to protected branch is prohibited: " + strings.Join(protected, ", "))
		f.Hint("push to a feature branch and open a pull request")
	case len(protected) > 0:
		f.Warn("direct push to protected branch: " + strings.Join(protected, ", "))
		f.Hint("use the PR workflow instead")
	case push.Force && !push.Lease:
		f.Warn("force push detected")
		f.Hint("consider using --force-with-lease")
	}

	return f
}

// EvaluateCheckout warns when a command switches branches in place.
func (r *BranchRule) EvaluateCheckout(cmd parser.Command) Findings {
	var f Findings
	target := r.switchTarget(cmd)
	if target == "" {
		return f
	}

	f.Warn("branch switch detected: " + target)
	f.Hint("use a worktree for parallel work: git gtr new " + target)
	f.Hint("keep this session on its current branch")
	return f
}

func (r *BranchRule) switchTarget(cmd parser.Command) string {
	if cmd.Program != "git" {
		return ""
	}

	sub, args := cmd.Sub()
	switch sub {
	case "checkout":
		for _, a := range args {
			switch {
			case a == "-b" || a == "-B" || a == "--orphan" || a == "--":
				return ""
			case strings.HasPrefix(a, "-"):
				continue
			}
			if strings.HasPrefix(a, ".") {
				return ""
			}
			if strings.Contains(a, "/") && !r.branchLike(a) {
				return ""
			}
			return a
		}
	case "switch":
		for _, a := range args {
			switch {
			case a == "-c" || a == "-C" || a == "--create" || a == "--force-create" || a == "--orphan":
				return ""
			case strings.HasPrefix(a, "-") && a != "-":
				continue
			}
			return a
		}
	}

	return ""
}

func (r *BranchRule) branchLike(ref string) bool {
	for _, p := range r.WorktreePrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return strings.HasPrefix(ref, "origin/") || IsProtected(ref, r.Protected)
}

// PushTargets returns the branches a push with args would update.
func (r *BranchRule) PushTargets(args []string, current string) []string {
	return ParsePush(args, current).Targets
}
