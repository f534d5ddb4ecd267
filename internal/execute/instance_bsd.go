//go:build !windows && !linux

package execute

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup places cmd in its own process group so the
// cascade can signal it and every descendant at once (spec §4.2.1).
// Pdeathsig is Linux-specific and has no equivalent here.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
