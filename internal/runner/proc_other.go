//go:build !unix

package runner

import "os/exec"

// killGroupOnCancel keeps the default cancel, which kills the direct child.
// waitDelay still bounds the wait for inherited pipes.
func killGroupOnCancel(cmd *exec.Cmd) {}
