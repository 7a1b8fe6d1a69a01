// Package runner executes external commands with a bounded lifetime.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout applies when a command does not set its own.
const DefaultTimeout = 10 * time.Second

// waitDelay bounds how long Run waits for output pipes after the process
// is killed. Grandchildren that inherited the pipes would otherwise keep
// Run blocked until they exit.
const waitDelay = 500 * time.Millisecond

var (
	// ErrTimeout is reported when a command outlives its timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrNotFound is reported when the executable cannot be found.
	ErrNotFound = errors.New("command not found")
)

// Command describes one process invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Stdin   []byte
	Timeout time.Duration
}

// String renders the command line for messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of running a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// OK reports a clean zero exit.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// TimedOut reports whether the command was killed by its deadline.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, ErrTimeout)
}

// Output returns trimmed stdout, or stderr when stdout is empty.
func (r Result) Output() string {
	if out := strings.TrimSpace(r.Stdout); out != "" {
		return out
	}
	return strings.TrimSpace(r.Stderr)
}

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, cmd Command) Result

// Run calls f.
func (f Func) Run(ctx context.Context, cmd Command) Result {
	return f(ctx, cmd)
}

// Exec runs commands as child processes.
type Exec struct{}

// Run starts the process and waits for it or its deadline.
func (Exec) Run(ctx context.Context, c Command) Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	killGroupOnCancel(cmd)
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		res.Err = ErrTimeout
		return res
	}

	if err != nil {
		if isCommandNotFound(err) {
			res.ExitCode = 127
			res.Err = ErrNotFound
			return res
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res
		}
		res.ExitCode = -1
		res.Err = err
	}

	return res
}

func isCommandNotFound(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 127
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return os.IsNotExist(pathErr)
	}
	return false
}
