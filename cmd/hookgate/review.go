package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/review"
	"github.com/adrianpk/hookgate/internal/runner"
	"github.com/adrianpk/hookgate/internal/vcs"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a pull request right after gh pr create (PostToolUse)",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	in, ok := readHookInput(cmd)
	if !ok || in.ToolName != "Bash" {
		return nil
	}

	cfg, _ := loadConfig()
	r := review.NewReviewer(cfg, vcs.NewGitHub(workDir(in), runner.Exec{}))

	res, ok := r.Review(cmd.Context(), in.Command(), in.Output())
	if !ok {
		return nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if res.Blocked() || len(res.AdditionalContext.Suggestions) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nPR review: %d errors, %d suggestions for #%d\n",
			len(res.AdditionalContext.Errors), len(res.AdditionalContext.Suggestions), res.AdditionalContext.PRNumber)
	}
	return nil
}
