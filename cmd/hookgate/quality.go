package main

import (
	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/cache"
	"github.com/adrianpk/hookgate/internal/quality"
	"github.com/adrianpk/hookgate/internal/runner"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Check an edited file: type check, lint and security scan (PostToolUse)",
	Args:  cobra.NoArgs,
	RunE:  runQuality,
}

func init() {
	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	in, ok := readHookInput(cmd)
	if !ok {
		return nil
	}
	switch in.ToolName {
	case "Edit", "Write", "MultiEdit":
	default:
		return nil
	}

	cfg, _ := loadConfig()
	store := cache.NewFileStore(quality.CachePath(cfg))
	c := quality.NewChecker(cfg, runner.Exec{}, store, workDir(in))

	if rep, ok := c.Check(cmd.Context(), in.FilePath()); ok {
		rep.Write(cmd.OutOrStdout())
	}
	return nil
}
