package policy

import (
	"strconv"
	"strings"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/parser"
)

// CommitRule validates git commit messages and staged changes.
type CommitRule struct {
	Types      []string
	MaxLength  int
	SingleLine bool
	NoPeriod   bool
	Secrets    *SecretScanner
}

// NewCommitRule creates a commit rule from config.
func NewCommitRule(cfg *config.Config) *CommitRule {
	if cfg == nil {
		return &CommitRule{Secrets: &SecretScanner{}}
	}
	return &CommitRule{
		Types:      cfg.CommitTypes(),
		MaxLength:  cfg.Commit.MaxLength,
		SingleLine: cfg.Commit.SingleLine,
		NoPeriod:   cfg.Commit.NoPeriod,
		Secrets:    NewSecretScanner(cfg),
	}
}

// Evaluate checks the message of a `git commit` and scans the staged diff.
// diffErr is the error met while reading the diff, if any.
func (r *CommitRule) Evaluate(cmd parser.Command, stagedDiff string, diffErr error) Findings {
	var f Findings
	if !cmd.Is("git", "commit") {
		return f
	}

	message := CommitMessage(cmd.Tokens)
	if message != "" {
		f.Add(r.evaluateMessage(message))
		f.Add(r.Secrets.Scan("commit message", message))
	}

	if diffErr != nil {
		if len(r.Secrets.Patterns) > 0 {
			f.Warn("staged changes could not be scanned for secrets: " + diffErr.Error())
		}
		return f
	}
	f.Add(r.Secrets.Scan("staged changes", stagedDiff))

	return f
}

func (r *CommitRule) evaluateMessage(message string) Findings {
	var f Findings
	subject := message
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		subject = message[:i]
	}

	if len(r.Types) > 0 && !hasConventionalType(subject, r.Types) {
		f.Warn("commit message does not follow {type}: {description}")
		f.Hint("allowed types: " + strings.Join(r.Types, ", "))
	}

	if r.MaxLength > 0 && len(subject) > r.MaxLength {
		f.Error("commit message exceeds max length of " + strconv.Itoa(r.MaxLength))
	}

	if r.NoPeriod && strings.HasSuffix(strings.TrimSpace(subject), ".") {
		f.Error("commit message must not end with period")
	}

	if r.SingleLine && strings.Contains(strings.TrimSpace(message), "\n") {
		f.Error("commit message must be single line (no body)")
	}

	return f
}

func hasConventionalType(subject string, types []string) bool {
	for _, t := range types {
		if strings.HasPrefix(subject, t+":") || strings.HasPrefix(subject, t+"(") || strings.HasPrefix(subject, t+"!:") {
			return true
		}
	}
	return false
}

// CommitMessage extracts the message given with -m/--message, including
// clustered short flags such as -am. Several -m values are joined as
// paragraphs, like git does.
func CommitMessage(tokens []string) string {
	var parts []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-m" || tok == "--message" || isShortCluster(tok, 'm'):
			if i+1 < len(tokens) {
				parts = append(parts, unwrapMessage(tokens[i+1]))
				i++
			}
		case strings.HasPrefix(tok, "--message="):
			parts = append(parts, unwrapMessage(strings.TrimPrefix(tok, "--message=")))
		case strings.HasPrefix(tok, "-m") && len(tok) > 2 && !strings.HasPrefix(tok, "--"):
			parts = append(parts, unwrapMessage(strings.TrimPrefix(strings.TrimPrefix(tok, "-m"), "=")))
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// isShortCluster reports tokens like -am where the last flag takes a value.
func isShortCluster(tok string, last byte) bool {
	if len(tok) < 3 || tok[0] != '-' || tok[1] == '-' || tok[len(tok)-1] != last {
		return false
	}
	for i := 1; i < len(tok); i++ {
		c := tok[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// unwrapMessage resolves "$(cat <<'EOF' ... EOF)" style messages.
func unwrapMessage(value string) string {
	if strings.HasPrefix(value, "$(cat <<") {
		if msg := extractHeredocFromCat(value); msg != "" {
			return msg
		}
	}
	return value
}

func extractHeredocFromCat(s string) string {
	start := strings.Index(s, "<<")
	if start == -1 {
		return ""
	}

	rest := strings.TrimPrefix(s[start+2:], "-")
	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "'") || strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
	}

	delimEnd := strings.IndexAny(rest, "'\"\n")
	if delimEnd == -1 {
		return ""
	}

	delimiter := rest[:delimEnd]
	rest = rest[delimEnd:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		return ""
	}

	for _, closing := range []string{"\n" + delimiter + "\n", "\n" + delimiter} {
		if endIdx := strings.Index("\n"+rest, closing); endIdx >= 0 {
			if endIdx == 0 {
				return ""
			}
			return strings.TrimSpace(rest[:endIdx-1])
		}
	}

	return ""
}
