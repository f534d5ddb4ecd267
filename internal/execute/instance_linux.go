//go:build linux

package execute

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup places cmd in its own process group so the
// cascade can signal it and every descendant at once (spec §4.2.1), and
// asks the kernel to SIGKILL the child if this process dies uncleanly —
// the same belt-and-suspenders the teacher's process.go applies.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
