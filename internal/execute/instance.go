package execute

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
)

// instance owns one spawned child process: its handle, its two drains, and
// whatever the interrupt cascade needs to reach it (spec §4.2's
// ExecuteInstance). Unlike the teacher's process, there is no readiness
// barrier and no restart logic — a command runs once and is reaped once.
//
// Adapted from the teacher's process (internal/infrastructure/processmgr/
// process.go): pipe setup, process-group placement, and a single Wait()
// reap survive in spirit; the restart-on-crash supervision built around a
// long-lived service's readiness barrier does not apply to a one-shot
// command and was not carried over.
type instance struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	out         *streamDrain
	err         *streamDrain
	sender      signalSender
	resolvedCmd []string

	doneCh chan struct{}
	state  *os.ProcessState
}

// spawn starts req's resolved command. showOut/showErr enable live
// forwarding of that stream to stdout/stderr; colorErr wraps forwarded
// stderr lines in ANSI red. Returns the OS error verbatim on spawn
// failure so the caller (Executor) can classify it per spec §7.
func spawn(req Request, showOut, showErr, colorErr bool) (*instance, error) {
	argv := resolveExecutable(req.Argv, req.EnvVars)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.Cwd
	cmd.Env = flattenEnv(req.EnvVars)
	configureProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}

	var stdin io.WriteCloser
	switch req.StdinSource {
	case envdesc.StdinUser:
		cmd.Stdin = os.Stdin
	case envdesc.StdinAPI:
		stdin, err = cmd.StdinPipe()
		if err != nil {
			_ = stdout.Close()
			_ = stderr.Close()
			return nil, err
		}
	case envdesc.StdinOff:
		// cmd.Stdin left nil: Go reads from the null device, which
		// behaves like an already-closed stdin for the child.
	}

	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stderr.Close()
		if stdin != nil {
			_ = stdin.Close()
		}
		return nil, err
	}

	var outForward, errForward io.Writer
	if showOut {
		outForward = os.Stdout
	}
	if showErr {
		errForward = os.Stderr
	}

	inst := &instance{
		cmd:         cmd,
		stdin:       stdin,
		out:         newStreamDrain(stdout, outForward, false),
		err:         newStreamDrain(stderr, errForward, colorErr),
		sender:      newSignalSender(cmd),
		resolvedCmd: argv,
		doneCh:      make(chan struct{}),
	}
	go inst.reap()
	return inst, nil
}

func (i *instance) reap() {
	i.state, _ = i.cmd.Process.Wait()
	close(i.doneCh)
}

// Pid returns the child's process id.
func (i *instance) Pid() int { return i.cmd.Process.Pid }

// ResolvedCmd returns the argv actually executed, with argv[0] substituted
// by its PATH-resolved absolute path when one was found (spec §3's
// `resolved_cmd`).
func (i *instance) ResolvedCmd() []string { return i.resolvedCmd }

// Done returns a channel closed once the child has been reaped.
func (i *instance) Done() <-chan struct{} { return i.doneCh }

// Wait blocks up to timeout for the child to exit; a zero or negative
// timeout blocks indefinitely. Returns true if the child had exited by
// the time Wait returned.
func (i *instance) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-i.doneCh
		return true
	}
	select {
	case <-i.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

// WriteStdin writes to the child's stdin pipe; only meaningful when the
// request specified StdinAPI.
func (i *instance) WriteStdin(p []byte) (int, error) {
	if i.stdin == nil {
		return 0, stdinError{}
	}
	return i.stdin.Write(p)
}

// CloseStdin closes the child's stdin pipe, signalling EOF.
func (i *instance) CloseStdin() error {
	if i.stdin == nil {
		return nil
	}
	return i.stdin.Close()
}

// ExitCode resolves the child's exit code once it has been reaped: the
// normal exit status, or the negated signal number if it died from a
// signal (spec §6's -9 "killed by signal after cascade" sentinel is the
// SIGKILL case of this general rule).
func (i *instance) ExitCode() int {
	<-i.doneCh
	return exitCodeFromState(i.state)
}

// Interrupt drives the three-stage cascade (spec §4.2.1) against this
// instance and returns once the child has been reaped. The stage name is
// returned as a string so the Handle interface stays implementable by
// test doubles outside this package.
func (i *instance) Interrupt() (string, bool) {
	stage, sent := runCascade(i.sender, i.doneCh)
	return stage.String(), sent
}

// CloseDrains closes both stream drains, joining their reader goroutines,
// and returns the captured stdout/stderr text.
func (i *instance) CloseDrains() (stdout, stderr string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); i.out.Close() }()
	go func() { defer wg.Done(); i.err.Close() }()
	wg.Wait()
	return i.out.String(), i.err.String()
}

type stdinError struct{}

func (stdinError) Error() string { return "stdin is not writable: StdinSource is not API" }

// resolveExecutable substitutes argv[0] with its absolute path found by
// searching PATH from envVars, mirroring spec §3's ExecuteRequest
// resolution rule. If argv[0] already contains a path separator, or no
// match is found on PATH, argv is returned unchanged and exec.LookPath's
// own (OS-environment) resolution applies as a fallback at Start time.
func resolveExecutable(argv []string, envVars map[string]string) []string {
	if len(argv) == 0 || strings.ContainsRune(argv[0], os.PathSeparator) {
		return argv
	}
	for _, dir := range filepath.SplitList(envVars["PATH"]) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, argv[0])
		if isExecutableFile(candidate) {
			out := make([]string, len(argv))
			out[0] = candidate
			copy(out[1:], argv[1:])
			return out
		}
	}
	return argv
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return isExecutableMode(info)
}

func flattenEnv(envVars map[string]string) []string {
	out := make([]string, 0, len(envVars))
	for k, v := range envVars {
		out = append(out, k+"="+v)
	}
	return out
}
