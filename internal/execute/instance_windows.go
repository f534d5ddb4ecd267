//go:build windows

package execute

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup asks Windows to create the child in a new process
// group so CTRL_BREAK-style signals (best effort, see softInterrupt below)
// target the group rather than just this process. There is no POSIX
// process-group equivalent beyond this flag.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// windowsSender has no group-signal primitive available through the
// standard library, matching the teacher's stance in its own Windows build
// files (pipe/command_windows.go) that process groups "are not supported
// on Windows" and fall back to Process.Kill. softInterrupt sends
// os.Interrupt through Process.Signal, which the standard library does not
// deliver on Windows (it returns an error); terminate and kill are both a
// direct Process.Kill. The cascade's timing contract still holds — only
// the signal semantics are coarser on this platform.
type windowsSender struct {
	cmd *exec.Cmd
}

func newSignalSender(cmd *exec.Cmd) signalSender {
	return &windowsSender{cmd: cmd}
}

func (s *windowsSender) softInterrupt() error { return s.cmd.Process.Signal(os.Interrupt) }
func (s *windowsSender) terminate() error     { return s.cmd.Process.Kill() }
func (s *windowsSender) kill() error          { return s.cmd.Process.Kill() }

// isExecutableMode on Windows relies on PATHEXT-style extension matching
// being handled elsewhere (exec.LookPath's own fallback); any regular
// file found on PATH is accepted here.
func isExecutableMode(info os.FileInfo) bool { return true }

func exitCodeFromState(state *os.ProcessState) int {
	if state == nil {
		return UnsetExitCode
	}
	return state.ExitCode()
}
