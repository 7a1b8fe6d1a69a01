package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/approve"
	"github.com/adrianpk/hookgate/internal/log"
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Auto-approve read-only tools and safe commands (PermissionRequest)",
	Args:  cobra.NoArgs,
	RunE:  runApprove,
}

func init() {
	rootCmd.AddCommand(approveCmd)
}

// runApprove prints an allow decision or nothing, which leaves the
// question to the user.
func runApprove(cmd *cobra.Command, args []string) error {
	in, ok := readHookInput(cmd)
	if !ok {
		return nil
	}

	cfg, _ := loadConfig()
	reason, ok := approve.New(cfg).Approve(in.ToolName, in.ToolInput)
	log.Info("permission request", "tool", in.ToolName, "approved", ok, "reason", reason)
	if !ok {
		return nil
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(approve.Allow(reason))
}
