//go:build !windows

package execute

import (
	"os"
	"os/exec"
	"syscall"
)

// unixSender signals the whole process group via the negative-pid
// convention, matching the teacher's Close()/superviseProcess() shutdown
// sequence (SIGTERM/SIGKILL to -pid) generalized to the three-stage
// cascade's soft-interrupt/terminate/kill.
type unixSender struct {
	pid int
}

func newSignalSender(cmd *exec.Cmd) signalSender {
	return &unixSender{pid: cmd.Process.Pid}
}

func (s *unixSender) softInterrupt() error { return syscall.Kill(-s.pid, syscall.SIGINT) }
func (s *unixSender) terminate() error     { return syscall.Kill(-s.pid, syscall.SIGTERM) }
func (s *unixSender) kill() error          { return syscall.Kill(-s.pid, syscall.SIGKILL) }

// isExecutableMode reports whether any execute bit is set, matching what
// the shell's PATH search honors.
func isExecutableMode(info os.FileInfo) bool {
	return info.Mode()&0111 != 0
}

// exitCodeFromState resolves the spec §6 exit-code convention: the
// process's own exit status, or the negated signal number if a signal
// ended it (runCascade's final kill() always lands here as -9).
func exitCodeFromState(state *os.ProcessState) int {
	if state == nil {
		return UnsetExitCode
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return state.ExitCode()
}
