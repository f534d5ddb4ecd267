package execute

import "time"

// Backend constructs and owns one running command. The production
// implementation (localBackend) spawns a real OS subprocess; tests
// substitute internal/execute/exectest's fake so scheduler and
// orchestrator suites never touch the OS (spec's design note on keeping
// ExecuteInstance behind a swappable capability, mirrored on the
// teacher's split between managedProcess state and its supervisor).
type Backend interface {
	Spawn(req Request, show, colorErr bool) (Handle, error)
}

// Handle is everything Executor.Call needs from a running command,
// independent of whether it is a real OS process or a test double.
type Handle interface {
	Pid() int
	Wait(timeout time.Duration) bool
	WriteStdin(p []byte) (int, error)
	CloseStdin() error
	ExitCode() int
	Interrupt() (stage string, sent bool)
	CloseDrains() (stdout, stderr string)
	ResolvedCmd() []string
}

type localBackend struct{}

// NewLocalBackend is the production Backend: real subprocesses via
// os/exec, process-group isolation, and the platform-specific signal
// sender.
func NewLocalBackend() Backend { return localBackend{} }

func (localBackend) Spawn(req Request, show, colorErr bool) (Handle, error) {
	return spawn(req, show, show, colorErr)
}
