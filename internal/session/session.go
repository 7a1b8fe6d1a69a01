// Package session keeps advisory per-issue locks so two agent sessions do
// not work the same issue unnoticed. Locks never block anything.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adrianpk/hookgate/internal/config"
	"github.com/adrianpk/hookgate/internal/fsutil"
)

// Lock is the content of an issue lock file.
type Lock struct {
	PID       int       `json:"pid"`
	Branch    string    `json:"branch"`
	StartedAt time.Time `json:"started_at"`
	Cwd       string    `json:"cwd"`
}

// LockDir returns the lock directory for cfg.
func LockDir(cfg *config.Config) string {
	if d := cfg.Session.LockDir; d != "" {
		return config.ExpandPath(d)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hookgate-sessions")
	}
	return filepath.Join(home, ".claude", "sessions")
}

// IssueNumber extracts the issue number from a branch name, "" if none.
func IssueNumber(cfg *config.Config, branch string) string {
	re := cfg.Session.IssueRegexp()
	if re == nil {
		return ""
	}
	m := re.FindStringSubmatch(branch)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// BranchType classifies a branch for the session banner.
func BranchType(branch string) string {
	switch {
	case strings.HasPrefix(branch, "requirements/"):
		return "requirements"
	case strings.HasPrefix(branch, "feature/"):
		return "feature"
	case strings.HasPrefix(branch, "bugfix/"), strings.HasPrefix(branch, "hotfix/"):
		return "bugfix"
	case branch == "main", branch == "develop":
		return "main"
	}
	return "other"
}

// Manager creates and releases locks for one session. PID identifies the
// session, normally the agent process that runs the hooks.
type Manager struct {
	Dir string
	PID int

	alive func(pid int) bool
	now   func() time.Time
}

// NewManager creates a manager owning locks as pid.
func NewManager(dir string, pid int) *Manager {
	return &Manager{Dir: dir, PID: pid, alive: processAlive, now: time.Now}
}

// Start is the outcome of starting a session.
type Start struct {
	Issue    string
	Locked   bool
	Existing *Lock
}

// Start takes the lock for issue. A lock held by another live session is
// reported and left in place. Locks whose owner is gone, or that cannot be
// read, are replaced.
func (m *Manager) Start(issue, branch, cwd string) (Start, error) {
	st := Start{Issue: issue}
	if issue == "" {
		return st, nil
	}

	existing, _ := m.read(issue)
	if existing != nil && existing.PID != m.PID && m.isAlive(existing.PID) {
		st.Existing = existing
		return st, nil
	}

	lock := Lock{PID: m.PID, Branch: branch, StartedAt: m.clock(), Cwd: cwd}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return st, fmt.Errorf("encode lock: %w", err)
	}
	if err := fsutil.WriteFileAtomic(m.path(issue), data, 0o644); err != nil {
		return st, err
	}
	st.Locked = true
	return st, nil
}

// End releases the issue lock if this session owns it.
func (m *Manager) End(issue string) (bool, error) {
	if issue == "" {
		return false, nil
	}
	lock, err := m.read(issue)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if lock.PID != m.PID {
		return false, nil
	}
	if err := os.Remove(m.path(issue)); err != nil && !os.IsNotExist(err) {
		return false, err
	}
	return true, nil
}

// Read returns the current lock for issue.
func (m *Manager) Read(issue string) (*Lock, error) {
	return m.read(issue)
}

func (m *Manager) read(issue string) (*Lock, error) {
	data, err := os.ReadFile(m.path(issue))
	if err != nil {
		return nil, err
	}
	var l Lock
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode lock %s: %w", m.path(issue), err)
	}
	return &l, nil
}

func (m *Manager) path(issue string) string {
	return filepath.Join(m.Dir, "issue-"+issue+".lock")
}

func (m *Manager) isAlive(pid int) bool {
	if m.alive == nil {
		return processAlive(pid)
	}
	return m.alive(pid)
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// processAlive sends signal 0 to pid.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// WriteBanner prints the session start summary.
func WriteBanner(w io.Writer, cwd, branch string, st Start) {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(w, "\n"+line)
	fmt.Fprintln(w, "Session started")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Directory: %s\n", cwd)
	fmt.Fprintf(w, "Branch: %s\n", branch)

	switch {
	case st.Issue == "":
		fmt.Fprintln(w, "No issue number in branch name")
	case st.Existing != nil:
		fmt.Fprintf(w, "Issue: #%s (%s)\n", st.Issue, BranchType(branch))
		fmt.Fprintln(w, line)
		fmt.Fprintln(w, "WARNING: another session is working on this issue")
		fmt.Fprintf(w, "  pid: %d\n", st.Existing.PID)
		fmt.Fprintf(w, "  started: %s\n", st.Existing.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "  directory: %s\n", st.Existing.Cwd)
		fmt.Fprintln(w, "  use a worktree for parallel work: git gtr new <branch>")
	default:
		fmt.Fprintf(w, "Issue: #%s (%s)\n", st.Issue, BranchType(branch))
		if st.Locked {
			fmt.Fprintf(w, "Session locked for issue #%s\n", st.Issue)
		}
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintln(w, "Workflow: /issue to create issues, /req for requirements PRs, /dev for implementation PRs")
	fmt.Fprintln(w, line)
}
