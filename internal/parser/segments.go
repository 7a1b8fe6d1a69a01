package parser

import (
	"regexp"
	"strings"
)

// heredocPattern matches heredoc start: << or <<- followed by delimiter
var heredocPattern = regexp.MustCompile(`^<<(-?)\s*['"]?(\w+)['"]?`)

type heredoc struct {
	delimiter string
	indented  bool
}

// Segments splits a shell command by |, &&, ||, ; and newlines. Separators
// inside quotes are ignored. Unquoted heredoc bodies are dropped so their
// content is not mistaken for commands. Empty segments are dropped.
func Segments(cmd string) []string {
	var segments []string
	var current strings.Builder
	var pending []heredoc
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			segments = append(segments, s)
		}
		current.Reset()
	}
	i := 0

	for i < len(cmd) {
		ch := cmd[i]

		switch ch {
		case '|':
			flush()
			// Skip || (treat as single separator)
			if i+1 < len(cmd) && cmd[i+1] == '|' {
				i++
			}
		case '&':
			if i+1 < len(cmd) && cmd[i+1] == '&' {
				flush()
				i++ // Skip second &
			} else {
				// Background & or redirection like 2>&1
				current.WriteByte(ch)
			}
		case ';':
			flush()
		case '\n':
			flush()
			if len(pending) > 0 {
				i = skipHeredocBodies(cmd, i+1, pending)
				pending = nil
				continue
			}
		case '<':
			if strings.HasPrefix(cmd[i:], "<<<") {
				current.WriteString("<<<")
				i += 3
				continue
			}
			if m := heredocPattern.FindStringSubmatch(cmd[i:]); m != nil {
				current.WriteString(m[0])
				pending = append(pending, heredoc{delimiter: m[2], indented: m[1] == "-"})
				i += len(m[0])
				continue
			}
			current.WriteByte(ch)
		case '\\':
			current.WriteByte(ch)
			if i+1 < len(cmd) {
				i++
				current.WriteByte(cmd[i])
			}
		case '\'', '"':
			// Skip quoted strings entirely
			quote := ch
			current.WriteByte(ch)
			i++
			for i < len(cmd) && cmd[i] != quote {
				if quote == '"' && cmd[i] == '\\' && i+1 < len(cmd) {
					current.WriteByte(cmd[i])
					i++
				}
				if i < len(cmd) {
					current.WriteByte(cmd[i])
					i++
				}
			}
			if i < len(cmd) {
				current.WriteByte(cmd[i])
			}
		default:
			current.WriteByte(ch)
		}
		i++
	}

	flush()
	return segments
}

// skipHeredocBodies returns the offset just past the closing delimiter line
// of every pending heredoc, or len(cmd) when one is never closed.
func skipHeredocBodies(cmd string, pos int, pending []heredoc) int {
	for _, hd := range pending {
		for {
			if pos >= len(cmd) {
				return len(cmd)
			}
			end := strings.IndexByte(cmd[pos:], '\n')
			var line string
			next := len(cmd)
			if end == -1 {
				line = cmd[pos:]
			} else {
				line = cmd[pos : pos+end]
				next = pos + end + 1
			}
			pos = next
			line = strings.TrimRight(line, "\r")
			if hd.indented {
				line = strings.TrimLeft(line, "\t")
			}
			if line == hd.delimiter {
				break
			}
		}
	}
	return pos
}

// HasSubstitution reports whether cmd contains a $(...) or backtick
// command substitution outside single quotes.
func HasSubstitution(cmd string) bool {
	inSingle := false
	for i := 0; i < len(cmd); i++ {
		switch cmd[i] {
		case '\\':
			if !inSingle {
				i++
			}
		case '\'':
			inSingle = !inSingle
		case '`':
			if !inSingle {
				return true
			}
		case '$':
			if !inSingle && i+1 < len(cmd) && cmd[i+1] == '(' {
				return true
			}
		}
	}
	return false
}

// StripHeredocs removes the bodies of unquoted heredocs, keeping the
// command lines that open them. Heredocs inside quotes, such as
// "$(cat <<'EOF' ... EOF)", are left alone.
func StripHeredocs(cmd string) string {
	var out strings.Builder
	var pending []heredoc
	var quote byte
	i := 0

	for i < len(cmd) {
		ch := cmd[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' && i+1 < len(cmd) {
				out.WriteByte(ch)
				i++
				ch = cmd[i]
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '\\' && i+1 < len(cmd):
			out.WriteByte(ch)
			i++
			ch = cmd[i]
		case ch == '<' && strings.HasPrefix(cmd[i:], "<<<"):
			out.WriteString("<<<")
			i += 3
			continue
		case ch == '<':
			if m := heredocPattern.FindStringSubmatch(cmd[i:]); m != nil {
				out.WriteString(m[0])
				pending = append(pending, heredoc{delimiter: m[2], indented: m[1] == "-"})
				i += len(m[0])
				continue
			}
		case ch == '\n' && len(pending) > 0:
			out.WriteByte(ch)
			i = skipHeredocBodies(cmd, i+1, pending)
			pending = nil
			continue
		}
		out.WriteByte(ch)
		i++
	}

	return out.String()
}

// groupingWords open a group or a compound statement and may precede the
// command of a segment: `if gh ...`, `then git push`, `! gh ...`.
var groupingWords = map[string]bool{
	"!": true, "{": true, "if": true, "elif": true, "then": true, "else": true,
	"while": true, "until": true, "do": true,
}

// Unwrap strips subshell parentheses, brace groups, negation and compound
// statement keywords around the command of a segment. grouped reports
// whether anything was removed.
func Unwrap(seg string) (inner string, grouped bool) {
	s := strings.TrimSpace(seg)
	orig := s

	for s != "" {
		if s[0] == '(' {
			s = strings.TrimSpace(s[1:])
			continue
		}
		word, rest := firstWord(s)
		if !groupingWords[word] {
			break
		}
		s = rest
	}

	for s != "" {
		last := s[len(s)-1]
		switch {
		case last == ')' && parenDepth(s) < 0:
			s = strings.TrimSpace(s[:len(s)-1])
		case last == '}' && (len(s) == 1 || s[len(s)-2] == ' ' || s[len(s)-2] == '\t'):
			s = strings.TrimSpace(s[:len(s)-1])
		default:
			return s, s != orig
		}
	}
	return s, s != orig
}

// ParseSegment parses one segment after unwrapping it.
func ParseSegment(seg string) Command {
	inner, _ := Unwrap(seg)
	return Parse(inner)
}

// Unquoted returns cmd with the content of quoted strings removed, so
// text passed as an argument is not mistaken for a command.
func Unquoted(cmd string) string {
	var out strings.Builder
	var quote byte
	for i := 0; i < len(cmd); i++ {
		ch := cmd[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
				out.WriteByte(' ')
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '\\' && i+1 < len(cmd):
			i++
			out.WriteByte(cmd[i])
		default:
			out.WriteByte(ch)
		}
	}
	return out.String()
}

func firstWord(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// parenDepth counts unquoted opening minus closing parentheses.
func parenDepth(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == '\\':
			i++
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		}
	}
	return depth
}
