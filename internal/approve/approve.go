// Package approve answers PermissionRequest events for read-only tools and
// for single commands on a configured safe list, so the user is asked less
// often. Listed git ref commands are approved only in their read forms.
package approve

import (
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/parser"
)

// Output is the PermissionRequest hook response.
type Output struct {
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// SpecificOutput wraps the decision for the PermissionRequest event.
type SpecificOutput struct {
	HookEventName string    `json:"hookEventName"`
	Decision      *Decision `json:"decision,omitempty"`
}

// Decision is the permission verdict.
type Decision struct {
	Behavior string `json:"behavior"`
	Message  string `json:"message,omitempty"`
}

// Allow builds an allow response.
func Allow(reason string) Output {
	return Output{HookSpecificOutput: &SpecificOutput{
		HookEventName: "PermissionRequest",
		Decision:      &Decision{Behavior: "allow", Message: reason},
	}}
}

// unsafeChars mark redirection, background jobs and substitution. They are
// rejected even inside quotes.
const unsafeChars = "&<>`\n"

// Approver decides which permission requests to grant.
type Approver struct {
	Readonly map[string]bool
	MCP      map[string]bool
	Agent    map[string]bool
	Safe     [][]string
}

// New creates an approver from the approve config section.
func New(cfg *config.Config) *Approver {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &Approver{
		Readonly: set(cfg.Approve.ReadonlyTools),
		MCP:      set(cfg.Approve.MCPReadonly),
		Agent:    set(cfg.Approve.AgentTools),
	}
	for _, s := range cfg.Approve.SafeCommands {
		if words := strings.Fields(s); len(words) > 0 {
			a.Safe = append(a.Safe, words)
		}
	}
	return a
}

// Approve returns the reason to allow the request, or ok false to leave the
// decision to the user.
func (a *Approver) Approve(tool string, input map[string]any) (string, bool) {
	switch {
	case a.Readonly[tool]:
		return "readonly tool: " + tool, true
	case a.MCP[tool]:
		return "MCP readonly: " + tool, true
	case a.Agent[tool]:
		return "agent management: " + tool, true
	case tool == "Bash":
		cmd, _ := input["command"].(string)
		if safe := a.SafeCommand(cmd); safe != "" {
			return "safe command: " + safe, true
		}
	}
	return "", false
}

// SafeCommand returns the safe command entry that raw starts with. Compound
// commands, substitutions and redirections never match.
func (a *Approver) SafeCommand(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, unsafeChars) || parser.HasSubstitution(raw) {
		return ""
	}
	if len(parser.Segments(raw)) != 1 {
		return ""
	}

	cmd := parser.Parse(raw)
	if len(cmd.Env) > 0 {
		return ""
	}
	tokens := cmd.Tokens
	if len(tokens) == 0 {
		return ""
	}

	if cmd.Program == "git" && mutatesRefs(cmd) {
		return ""
	}

	for _, words := range a.Safe {
		if hasPrefix(tokens, words) {
			return strings.Join(words, " ")
		}
	}
	return ""
}

// listFlags put git branch and git tag in listing mode, where positional
// arguments are patterns or commits rather than names to create.
var listFlags = map[string]map[string]bool{
	"branch": {
		"-l": true, "--list": true, "-a": true, "--all": true, "-r": true, "--remotes": true,
		"-v": true, "-vv": true, "--verbose": true, "--contains": true, "--no-contains": true,
		"--merged": true, "--no-merged": true, "--points-at": true, "--show-current": true,
		"--sort": true, "--format": true,
	},
	"tag": {
		"-l": true, "--list": true, "--contains": true, "--no-contains": true,
		"--merged": true, "--no-merged": true, "--points-at": true, "--sort": true, "--format": true,
	},
}

// readonlyRemote are the git remote subcommands that only print.
var readonlyRemote = map[string]bool{"show": true, "get-url": true}

// mutatesRefs reports whether a git branch, tag or remote invocation
// creates, deletes, renames or rewrites something. Safe command entries
// match by prefix, so `git branch` alone would also cover `git branch -D`.
func mutatesRefs(cmd parser.Command) bool {
	sub, args := cmd.Sub()
	switch sub {
	case "branch", "tag":
		listing := false
		positional := false
		for _, a := range args {
			key, _, _ := strings.Cut(a, "=")
			switch {
			case listFlags[sub][key]:
				listing = true
			case strings.HasPrefix(a, "-"):
				// delete, move, copy, force, upstream, annotate, sign
				return true
			default:
				positional = true
			}
		}
		return positional && !listing
	case "remote":
		for _, a := range args {
			if a == "-v" || a == "--verbose" {
				continue
			}
			return !readonlyRemote[a]
		}
	}
	return false
}

func hasPrefix(tokens, words []string) bool {
	if len(tokens) < len(words) {
		return false
	}
	for i, w := range words {
		if tokens[i] != w {
			return false
		}
	}
	return true
}

func set(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}
