package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/hook"
	"github.com/adrianpk/hookgate/internal/log"
)

var (
	// Global flags
	cfgFile string
	asJSON  bool

	// exitCode is set by hook commands; 2 blocks the tool call.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "hookgate",
	Short: "Policy hooks for Claude Code",
	Long: `hookgate gates the commands an agent runs against a guardrails file.

Hooks:
  gate              PreToolUse Bash: command policy engine
  dod gate          PreToolUse Bash: Definition of Done gate for gh pr create
  quality           PostToolUse Edit/Write: type check, lint and security scan
  review            PostToolUse Bash: review of a newly created PR
  approve           PermissionRequest: auto-approve read-only requests
  session start|end SessionStart/SessionEnd: advisory issue locks
  dod check         Stop: session end checklist

Setup:
  init              write a default guardrails file
  setup             register the hooks in ~/.claude/settings.json`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command and returns the process exit code. The
// host reads only 0 and 2, so usage and setup errors are printed and
// logged but exit 0 and never block a tool call.
func Execute() int {
	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		return 0
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Guardrails file (default: ./.claude/guardrails.yaml or ~/.claude/cache/claude-guardrails.yaml)")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Also write the decision as JSON to stdout")
}

// loadConfig returns the guardrails and the load error, if any. The config
// is always usable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Warn("guardrails unavailable", "error", err)
	}
	return cfg, err
}

// readHookInput decodes the hook payload. ok is false for malformed input,
// which the hooks treat as nothing to do.
func readHookInput(cmd *cobra.Command) (hook.Input, bool) {
	in, err := hook.ReadInput(cmd.InOrStdin(), os.Getenv)
	if err != nil {
		log.Debug("hook input ignored", "command", cmd.CommandPath(), "error", err)
		return in, false
	}
	return in, true
}

// workDir is the event cwd, falling back to the process directory.
func workDir(in hook.Input) string {
	if in.Cwd != "" {
		return in.Cwd
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
