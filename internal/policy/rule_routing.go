package policy

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/parser"
)

var ghCreatePattern = regexp.MustCompile(`\bgh\s+(issue|pr)\s+create\b`)

// wrapperPrograms run their arguments as another command.
var wrapperPrograms = map[string]bool{
	"env": true, "xargs": true, "eval": true, "exec": true, "command": true,
	"nohup": true, "sudo": true, "time": true, "timeout": true, "nice": true,
}

// shellPrograms run a command string given with -c.
var shellPrograms = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "dash": true, "ksh": true,
}

// RoutingRule checks that issue and PR creation goes through an approved
// wrapper command. A wrapper writes the body to a marker file; the marker
// path prefix and a recent mtime identify it.
type RoutingRule struct {
	Prefix   string
	Commands []string
	MaxAge   time.Duration

	now  func() time.Time
	stat func(string) (os.FileInfo, error)
}

// NewRoutingRule creates a routing rule from config.
func NewRoutingRule(cfg *config.Config) *RoutingRule {
	if cfg == nil {
		cfg = config.Default()
	}
	return &RoutingRule{
		Prefix:   cfg.Routing.MarkerPrefix,
		Commands: cfg.Routing.Commands,
		MaxAge:   cfg.Routing.MaxAge,
		now:      time.Now,
		stat:     os.Stat,
	}
}

// Routed reports whether bodyFile is a fresh marker file and names the
// wrapper command that wrote it ("unknown" when the prefix matches but no
// command does).
func (r *RoutingRule) Routed(bodyFile string) (bool, string) {
	if bodyFile == "" || r.Prefix == "" {
		return false, ""
	}
	clean := filepath.Clean(bodyFile)
	if !strings.HasPrefix(clean, r.Prefix) {
		return false, ""
	}

	info, err := r.statFile(clean)
	if err != nil || info.IsDir() {
		return false, ""
	}
	if r.MaxAge > 0 && r.clock().Sub(info.ModTime()) > r.MaxAge {
		return false, ""
	}

	for _, c := range r.Commands {
		if strings.HasPrefix(clean, r.Prefix+c) {
			return true, c
		}
	}
	return true, "unknown"
}

// RecommendedCommand names the wrapper to use for a gh create command.
func (r *RoutingRule) RecommendedCommand(cmd parser.Command) string {
	switch {
	case cmd.Is("gh", "issue", "create"):
		return "/issue"
	case cmd.Is("gh", "pr", "create"):
		for _, l := range parser.FlagValues(cmd.Tokens, "--label") {
			if strings.Contains(l, "requirements") {
				return "/req"
			}
		}
		return "/dev"
	}
	return "/issue, /req or /dev"
}

// EvaluateRouting errors when a gh create command bypasses the wrappers.
func (r *RoutingRule) EvaluateRouting(cmd parser.Command, bodyFile string) Findings {
	var f Findings
	if ok, _ := r.Routed(bodyFile); ok {
		return f
	}

	kind := "issue"
	if cmd.Is("gh", "pr", "create") {
		kind = "PR"
	}
	rec := r.RecommendedCommand(cmd)
	f.Error(kind + " creation must go through " + rec + " (direct gh " + strings.ToLower(kind) + " create is prohibited)")
	f.Hint("recommended command: " + rec)
	return f
}

func (r *RoutingRule) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

func (r *RoutingRule) statFile(p string) (os.FileInfo, error) {
	if r.stat == nil {
		return os.Stat(p)
	}
	return r.stat(p)
}

// Evasion describes a gh create command hidden behind indirection.
type Evasion struct {
	Kind   string // issue or pr
	Method string // compound, substitution, grouping or wrapper
}

// DetectEvasion finds `gh issue|pr create` run through a compound command,
// a command substitution, a subshell or brace group, or a wrapper such as
// `sh -c`, `env` or `xargs`. It needs no configuration. Mentions inside
// quoted arguments of other commands are not flagged.
func DetectEvasion(raw string) (Evasion, bool) {
	segments := parser.Segments(raw)

	for _, seg := range segments {
		inner, grouped := parser.Unwrap(seg)
		cmd := parser.Parse(inner)

		if kind := directCreate(cmd); kind != "" {
			switch {
			case len(segments) > 1:
				return Evasion{Kind: kind, Method: "compound"}, true
			case parser.HasSubstitution(inner):
				return Evasion{Kind: kind, Method: "substitution"}, true
			case grouped:
				return Evasion{Kind: kind, Method: "grouping"}, true
			}
			continue
		}

		if kind := substitutedCreate(cmd); kind != "" {
			return Evasion{Kind: kind, Method: "substitution"}, true
		}

		if m := ghCreatePattern.FindStringSubmatch(inner); m != nil && isWrapper(cmd) {
			return Evasion{Kind: m[1], Method: "wrapper"}, true
		}

		// gh create in the unquoted text of any other command
		if m := ghCreatePattern.FindStringSubmatch(parser.Unquoted(inner)); m != nil {
			return Evasion{Kind: m[1], Method: "wrapper"}, true
		}
	}

	return Evasion{}, false
}

// EvaluateEvasion turns a detected evasion into a blocking finding.
func EvaluateEvasion(raw string) Findings {
	var f Findings
	ev, ok := DetectEvasion(raw)
	if !ok {
		return f
	}

	f.Error("gh " + ev.Kind + " create is run through " + ev.Method + " indirection")
	f.Error("direct execution is prohibited")
	if ev.Kind == "issue" {
		f.Hint("use the /issue command")
	} else {
		f.Hint("use the /req or /dev command")
	}
	return f
}

func directCreate(cmd parser.Command) string {
	switch {
	case cmd.Is("gh", "issue", "create"):
		return "issue"
	case cmd.Is("gh", "pr", "create"):
		return "pr"
	}
	return ""
}

// substitutedCreate matches `$(which gh) issue create` and the backtick
// form, where the program itself is computed.
func substitutedCreate(cmd parser.Command) string {
	if !strings.HasPrefix(cmd.Program, "$(") && !strings.HasPrefix(cmd.Program, "`") {
		return ""
	}
	rest := cmd.Rest()
	for i := 0; i+1 < len(rest); i++ {
		if (rest[i] == "issue" || rest[i] == "pr") && rest[i+1] == "create" {
			return rest[i]
		}
	}
	return ""
}

func isWrapper(cmd parser.Command) bool {
	if wrapperPrograms[cmd.Program] {
		return true
	}
	if shellPrograms[cmd.Program] {
		return parser.HasFlag(cmd.Rest(), "-c") || hasShortFlag(cmd.Rest(), 'c')
	}
	return false
}

// hasShortFlag matches clusters such as -lc or -ec.
func hasShortFlag(args []string, flag byte) bool {
	for _, a := range args {
		if len(a) > 1 && a[0] == '-' && a[1] != '-' && strings.IndexByte(a[1:], flag) >= 0 {
			return true
		}
	}
	return false
}
