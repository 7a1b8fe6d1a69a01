// Package parser provides shell command parsing utilities.
package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Command is one parsed shell command: leading VAR=value assignments, the
// program and the raw tokens.
type Command struct {
	Raw     string
	Tokens  []string
	Env     map[string]string
	Program string
}

var envVarPattern = regexp.MustCompile(`^([A-Z_][A-Z0-9_]*)=(.*)$`)

// Parse parses a shell command string into its components.
func Parse(cmd string) Command {
	result := Command{
		Raw: cmd,
		Env: make(map[string]string),
	}

	tokens := Split(strings.TrimSpace(cmd))
	if len(tokens) == 0 {
		return result
	}
	result.Tokens = tokens

	idx := 0

	// Extract leading environment variables
	for idx < len(tokens) {
		match := envVarPattern.FindStringSubmatch(tokens[idx])
		if match == nil {
			break
		}
		result.Env[match[1]] = match[2]
		idx++
	}

	if idx < len(tokens) {
		// Program name, without its directory so /usr/bin/gh is still gh
		result.Program = filepath.Base(tokens[idx])
	}

	return result
}

// Is reports whether the command runs program with the given subcommand
// chain, e.g. Is("gh", "pr", "create").
func (c Command) Is(program string, sub ...string) bool {
	if c.Program != program {
		return false
	}
	if len(sub) == 0 {
		return true
	}
	first, args := c.Sub()
	if first != sub[0] {
		return false
	}
	for _, s := range sub[1:] {
		next := ""
		for len(args) > 0 {
			tok := args[0]
			args = args[1:]
			if !strings.HasPrefix(tok, "-") {
				next = tok
				break
			}
		}
		if next != s {
			return false
		}
	}
	return true
}

// globalValueFlags are program-level options taking a separate value that
// may precede the subcommand.
var globalValueFlags = map[string]map[string]bool{
	"git": {"-C": true, "-c": true, "--git-dir": true, "--work-tree": true, "--namespace": true},
	"gh":  {"-R": true, "--repo": true},
}

// Rest returns the tokens after the program name.
func (c Command) Rest() []string {
	for i, tok := range c.Tokens {
		if envVarPattern.MatchString(tok) {
			continue
		}
		return c.Tokens[i+1:]
	}
	return nil
}

// Sub returns the subcommand and the tokens following it, skipping global
// options placed before it (git -C dir push). Sub is empty when the
// command has none.
func (c Command) Sub() (string, []string) {
	rest := c.Rest()
	valueFlags := globalValueFlags[c.Program]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if strings.HasPrefix(tok, "-") {
			if valueFlags[tok] {
				i++
			}
			continue
		}
		return tok, rest[i+1:]
	}
	return "", nil
}

// After returns the raw tokens that follow the first occurrence of word,
// or nil when word is absent.
func (c Command) After(word string) []string {
	for i, tok := range c.Tokens {
		if tok == word {
			return c.Tokens[i+1:]
		}
	}
	return nil
}

// Split tokenizes cmd respecting quotes and backslash escapes. When quoting
// is unbalanced it falls back to whitespace splitting.
func Split(cmd string) []string {
	tokens, ok := tokenize(cmd)
	if !ok {
		return strings.Fields(cmd)
	}
	return tokens
}

// tokenize splits a command string into tokens, respecting quotes. The
// boolean is false when a quote is left open.
func tokenize(cmd string) ([]string, bool) {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false
	// quoted empty strings ("") still produce a token
	started := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
				started = true
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
				started = true
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 || started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if inSingleQuote || inDoubleQuote || escaped {
		return tokens, false
	}

	if current.Len() > 0 || started {
		tokens = append(tokens, current.String())
	}

	return tokens, true
}

// parseFlag parses a flag token into key and value.
func parseFlag(token string) (string, string) {
	if idx := strings.Index(token, "="); idx != -1 {
		return token[:idx], token[idx+1:]
	}
	return token, ""
}

// HasFlag reports whether any of the named flags appears in args, either
// bare or in --flag=value form.
func HasFlag(args []string, names ...string) bool {
	for _, arg := range args {
		key, _ := parseFlag(arg)
		for _, name := range names {
			if key == name {
				return true
			}
		}
	}
	return false
}

// FlagValue returns the value of the first occurrence of flag in args,
// accepting both --flag=value and --flag value.
func FlagValue(args []string, flag string) (string, bool) {
	values := FlagValues(args, flag)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// FlagValues returns every value given for flag, in order.
func FlagValues(args []string, flag string) []string {
	var values []string
	for i := 0; i < len(args); i++ {
		key, value := parseFlag(args[i])
		if key != flag {
			continue
		}
		if strings.Contains(args[i], "=") {
			values = append(values, value)
			continue
		}
		if i+1 < len(args) {
			values = append(values, args[i+1])
			i++
		}
	}
	return values
}
