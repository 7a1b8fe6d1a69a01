package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrianpk/hookgate/internal/fsutil"
)

// Hook is one hook registration in Claude Code settings.
type Hook struct {
	Event   string
	Matcher string
	Args    string
}

// Hooks lists the registrations written by setup.
var Hooks = []Hook{
	{Event: "PreToolUse", Matcher: "Bash", Args: "gate"},
	{Event: "PreToolUse", Matcher: "Bash", Args: "dod gate"},
	{Event: "PostToolUse", Matcher: "Edit|Write", Args: "quality"},
	{Event: "PostToolUse", Matcher: "Bash", Args: "review"},
	{Event: "PermissionRequest", Matcher: "*", Args: "approve"},
	{Event: "SessionStart", Args: "session start"},
	{Event: "SessionEnd", Args: "session end"},
	{Event: "Stop", Args: "dod check"},
}

// SettingsPath returns ~/.claude/settings.json.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// RunSetup registers the hookgate hooks in the settings file at path.
// Registrations already present are kept; other hooks are not touched.
func RunSetup(w io.Writer, path, binary string) error {
	settings := make(map[string]interface{})

	data, err := os.ReadFile(path)
	if err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("cannot parse settings.json: %w", err)
		}
	} else if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot read settings.json: %w", err)
	}

	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		hooks = make(map[string]interface{})
		settings["hooks"] = hooks
	}

	added := 0
	for _, h := range Hooks {
		command := binary + " " + h.Args
		entries, _ := hooks[h.Event].([]interface{})
		if hasHook(entries, command) {
			continue
		}

		entry := map[string]interface{}{
			"hooks": []interface{}{
				map[string]interface{}{
					"type":    "command",
					"command": command,
				},
			},
		}
		if h.Matcher != "" {
			entry["matcher"] = h.Matcher
		}
		hooks[h.Event] = append(entries, entry)
		added++
	}

	if added == 0 {
		fmt.Fprintln(w, "hookgate hooks already configured")
		return nil
	}

	output, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal settings: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, output, 0o644); err != nil {
		return fmt.Errorf("cannot write settings.json: %w", err)
	}

	fmt.Fprintf(w, "Configured %d hooks: %s\n", added, path)
	fmt.Fprintln(w, "Run 'hookgate init' to create the guardrails file")
	return nil
}

func hasHook(entries []interface{}, command string) bool {
	for _, entry := range entries {
		e, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		list, ok := e["hooks"].([]interface{})
		if !ok {
			continue
		}
		for _, h := range list {
			hm, ok := h.(map[string]interface{})
			if !ok {
				continue
			}
			if cmd, ok := hm["command"].(string); ok && strings.TrimSpace(cmd) == command {
				return true
			}
		}
	}
	return false
}
