package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/cli"
)

var (
	initLocal   bool
	setupBinary string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default guardrails file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunInit(cmd.OutOrStdout(), initLocal)
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the hookgate hooks in ~/.claude/settings.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cli.SettingsPath()
		if err != nil {
			return err
		}
		binary := setupBinary
		if binary == "" {
			binary = defaultBinary()
		}
		return cli.RunSetup(cmd.OutOrStdout(), path, binary)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initLocal, "local", false, "Write ./.claude/guardrails.yaml instead of the user-wide file")
	setupCmd.Flags().StringVar(&setupBinary, "binary", "", "Path of the hookgate binary used in the hook commands")
	rootCmd.AddCommand(initCmd, setupCmd)
}

func defaultBinary() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "go", "bin", "hookgate")
	}
	return "hookgate"
}
