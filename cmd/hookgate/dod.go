package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/cache"
	"github.com/adrianpk/hookgate/internal/dod"
	"github.com/adrianpk/hookgate/internal/hook"
	"github.com/adrianpk/hookgate/internal/policy"
	"github.com/adrianpk/hookgate/internal/quality"
	"github.com/adrianpk/hookgate/internal/runner"
	"github.com/adrianpk/hookgate/internal/vcs"
)

var strict bool

var dodCmd = &cobra.Command{
	Use:   "dod",
	Short: "Definition of Done hooks",
}

var dodCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Print the session end checklist (Stop)",
	Args:  cobra.NoArgs,
	RunE:  runDoDCheck,
}

var dodGateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the DoD level commands before gh pr create (PreToolUse)",
	Args:  cobra.NoArgs,
	RunE:  runDoDGate,
}

func init() {
	dodCheckCmd.Flags().BoolVar(&strict, "strict", false, "Run the bronze commands instead of reading the quality cache")
	dodCmd.AddCommand(dodCheckCmd, dodGateCmd)
	rootCmd.AddCommand(dodCmd)
}

func runDoDCheck(cmd *cobra.Command, args []string) error {
	// Stop events carry no tool data; only cwd is used.
	in, _ := hook.ReadInput(cmd.InOrStdin(), nil)
	dir := workDir(in)

	cfg, _ := loadConfig()
	r := runner.Exec{}
	c := dod.NewChecker(cfg, vcs.NewGit(dir, r), r,
		cache.NewFileStore(quality.CachePath(cfg)),
		cache.NewFileStore(dod.StatePath(cfg)),
		dir)
	if strict || os.Getenv(dod.EnvStrict) == "1" {
		c.Strict = true
	}

	c.Run(cmd.Context()).Write(cmd.OutOrStdout())
	return nil
}

func runDoDGate(cmd *cobra.Command, args []string) error {
	in, ok := readHookInput(cmd)
	if !ok || in.ToolName != "Bash" {
		return nil
	}

	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		var f policy.Findings
		f.Warn("DoD gate skipped: " + cfgErr.Error())
		exitCode = hook.Emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), policy.Decide("QUALITY GATE WARNING", f), asJSON)
		return nil
	}

	dir := workDir(in)
	r := runner.Exec{}
	g := dod.NewGate(cfg, vcs.NewGit(dir, r), r, dir)
	d := g.Evaluate(cmd.Context(), in.Command())
	exitCode = hook.Emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), d, asJSON)
	return nil
}
