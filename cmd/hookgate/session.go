package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/hook"
	"github.com/adrianpk/hookgate/internal/log"
	"github.com/adrianpk/hookgate/internal/runner"
	"github.com/adrianpk/hookgate/internal/session"
	"github.com/adrianpk/hookgate/internal/vcs"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Advisory issue locks (SessionStart, SessionEnd)",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Show the session banner and lock the branch issue",
	Args:  cobra.NoArgs,
	RunE:  runSessionStart,
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "Release the issue lock held by this session",
	Args:  cobra.NoArgs,
	RunE:  runSessionEnd,
}

func init() {
	sessionCmd.AddCommand(sessionStartCmd, sessionEndCmd)
	rootCmd.AddCommand(sessionCmd)
}

type sessionContext struct {
	cfg     *config.Config
	dir     string
	branch  string
	issue   string
	manager *session.Manager
}

// newSessionContext resolves the branch issue. The lock owner is the
// parent process, the agent session running the hooks.
func newSessionContext(cmd *cobra.Command) sessionContext {
	in, _ := hook.ReadInput(cmd.InOrStdin(), nil)
	dir := workDir(in)
	cfg, _ := loadConfig()

	branch, err := vcs.NewGit(dir, runner.Exec{}).CurrentBranch(cmd.Context())
	if err != nil {
		log.Debug("session: branch unknown", "error", err)
	}

	return sessionContext{
		cfg:     cfg,
		dir:     dir,
		branch:  branch,
		issue:   session.IssueNumber(cfg, branch),
		manager: session.NewManager(session.LockDir(cfg), os.Getppid()),
	}
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	sc := newSessionContext(cmd)
	st, err := sc.manager.Start(sc.issue, sc.branch, sc.dir)
	if err != nil {
		log.Warn("session lock not written", "issue", sc.issue, "error", err)
	}
	session.WriteBanner(cmd.ErrOrStderr(), sc.dir, sc.branch, st)
	return nil
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	sc := newSessionContext(cmd)
	released, err := sc.manager.End(sc.issue)
	if err != nil {
		log.Warn("session lock not released", "issue", sc.issue, "error", err)
	}
	if released {
		fmt.Fprintf(cmd.ErrOrStderr(), "Session lock released for issue #%s\n", sc.issue)
	}
	return nil
}
