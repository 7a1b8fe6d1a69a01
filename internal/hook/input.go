// Package hook implements the hook entry points: it reads tool events,
// runs the policy evaluators and renders decisions for the host.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedInput is returned when the hook payload cannot be decoded.
// Callers treat it as nothing to do.
var ErrMalformedInput = errors.New("malformed hook input")

// Legacy payload variables, read when stdin is empty.
const (
	EnvToolInput = "CLAUDE_TOOL_INPUT"
	EnvHookInput = "CLAUDE_HOOK_INPUT"
)

// Input is a tool event sent by the host.
type Input struct {
	HookEventName string         `json:"hook_event_name"`
	SessionID     string         `json:"session_id"`
	Cwd           string         `json:"cwd"`
	ToolName      string         `json:"tool_name"`
	ToolInput     map[string]any `json:"tool_input"`
	ToolResult    any            `json:"tool_result,omitempty"`
	ToolResponse  any            `json:"tool_response,omitempty"`
}

// ReadInput decodes a payload from r. When r is empty the legacy
// environment variables are tried through getenv.
func ReadInput(r io.Reader, getenv func(string) string) (Input, error) {
	var in Input

	data, err := io.ReadAll(r)
	if err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return in, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		return in, nil
	}

	if getenv == nil {
		return in, fmt.Errorf("%w: empty payload", ErrMalformedInput)
	}

	if raw := getenv(EnvHookInput); strings.TrimSpace(raw) != "" {
		var legacy struct {
			Tool  string         `json:"tool"`
			Input map[string]any `json:"input"`
		}
		if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
			return in, fmt.Errorf("%w: %s: %v", ErrMalformedInput, EnvHookInput, err)
		}
		in.ToolName = legacy.Tool
		in.ToolInput = legacy.Input
		return in, nil
	}

	if raw := getenv(EnvToolInput); strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &in.ToolInput); err != nil {
			return in, fmt.Errorf("%w: %s: %v", ErrMalformedInput, EnvToolInput, err)
		}
		if _, ok := in.ToolInput["command"]; ok {
			in.ToolName = "Bash"
		}
		return in, nil
	}

	return in, fmt.Errorf("%w: empty payload", ErrMalformedInput)
}

// Command returns tool_input.command.
func (in Input) Command() string {
	return in.stringField("command")
}

// FilePath returns tool_input.file_path, falling back to notebook_path.
func (in Input) FilePath() string {
	if p := in.stringField("file_path"); p != "" {
		return p
	}
	return in.stringField("notebook_path")
}

func (in Input) stringField(key string) string {
	if in.ToolInput == nil {
		return ""
	}
	s, _ := in.ToolInput[key].(string)
	return s
}

// Output flattens the captured result of a post-execution event. Bash
// results carry stdout and stderr; other shapes are rendered as JSON.
func (in Input) Output() string {
	res := in.ToolResponse
	if res == nil {
		res = in.ToolResult
	}

	switch v := res.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		stdout, _ := v["stdout"].(string)
		stderr, _ := v["stderr"].(string)
		if stdout != "" || stderr != "" {
			return stdout + stderr
		}
		if out, ok := v["output"].(string); ok {
			return out
		}
	}

	data, err := json.Marshal(res)
	if err != nil {
		return ""
	}
	return string(data)
}
