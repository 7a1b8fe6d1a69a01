package main

import (
	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/hook"
	"github.com/adrianpk/hookgate/internal/runner"
	"github.com/adrianpk/hookgate/internal/vcs"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Evaluate a Bash command against the guardrails (PreToolUse)",
	Args:  cobra.NoArgs,
	RunE:  runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	in, ok := readHookInput(cmd)
	if !ok {
		return nil
	}

	cfg, cfgErr := loadConfig()
	dir := workDir(in)
	r := runner.Exec{}

	g := hook.NewGate(cfg, cfgErr, vcs.NewGit(dir, r), vcs.NewGitHub(dir, r))
	d := g.Evaluate(cmd.Context(), in)
	exitCode = hook.Emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), d, asJSON)
	return nil
}
