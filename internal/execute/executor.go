// Package execute implements ExecuteInstance and Executor (spec §4.2): the
// single choke point through which every command the core runs is spawned,
// observed, and — when interrupted — escalated through the three-stage
// cascade.
package execute

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/errtax"
)

// Executor is the only public entry point for running one command (spec
// §4.2). It is safe for concurrent use: each Call spawns and owns its own
// instance, and the Orchestrator's slotPool is what actually bounds
// concurrency.
//
// Grounded on the teacher's process supervisor (internal/infrastructure/
// processmgr/process.go): Executor.Call plays the role of newProcess +
// Start + supervise collapsed into one synchronous call, since a one-shot
// command has no readiness barrier to wait on separately.
type Executor struct {
	log     *zap.Logger
	backend Backend
}

// NewExecutor constructs an Executor backed by real OS subprocesses. A nil
// logger is replaced with a no-op logger, matching the teacher's defensive
// nil checks in newProcess.
func NewExecutor(log *zap.Logger) *Executor {
	return NewExecutorWithBackend(log, NewLocalBackend())
}

// NewExecutorWithBackend constructs an Executor against an arbitrary
// Backend — tests substitute internal/execute/exectest's fake here so
// scheduler/orchestrator suites never spawn real processes.
func NewExecutorWithBackend(log *zap.Logger, backend Backend) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{log: log, backend: backend}
}

// Status is the scoped-region capability handed to the caller during step 4
// of Call (spec §4.2): wait, write/close stdin, and inspect the exit code
// while the command is still running.
type Status struct {
	inst Handle
}

// Wait blocks up to timeout for the command to exit (zero/negative blocks
// indefinitely) and reports whether it had exited.
func (s Status) Wait(timeout time.Duration) bool { return s.inst.Wait(timeout) }

// WriteStdin writes to the child's stdin; only valid when the request's
// StdinSource is API.
func (s Status) WriteStdin(p []byte) (int, error) { return s.inst.WriteStdin(p) }

// CloseStdin closes the child's stdin, signalling EOF.
func (s Status) CloseStdin() error { return s.inst.CloseStdin() }

// ExitCode blocks until the child is reaped and returns its resolved exit
// code (spec §3, §6's signal-exit convention).
func (s Status) ExitCode() int { return s.inst.ExitCode() }

// Pid returns the child's process id, for logging.
func (s Status) Pid() int { return s.inst.Pid() }

// Region is the caller's body for step 4 of Call: given a live Status, do
// whatever interaction the command requires (nothing, for the common
// run-to-completion case) and return. Region does not need to wait for
// exit itself — Call waits after Region returns.
type Region func(ctx context.Context, status Status) error

// Call runs req to completion, forwarding the requested streams and
// invoking region while the command is in flight (spec §4.2 steps 1-6).
//
// If ctx is cancelled while region is running, Call masks further
// cancellation-driven action until the cascade finishes, drives
// ExecuteInstance.interrupt() (spec §4.2.1), and returns a partial Outcome
// wrapped in *errtax.InterruptedError once the child is reaped.
func (e *Executor) Call(ctx context.Context, req Request, show, colorErr bool, region Region) (Outcome, error) {
	start := time.Now()

	inst, err := e.backend.Spawn(req, show, colorErr)
	if err != nil {
		return e.spawnFailureOutcome(req, start, err), &errtax.SpawnError{Argv: req.Argv, Err: err}
	}
	e.log.Info("spawned command",
		zap.Strings("argv", req.Argv),
		zap.Int("pid", inst.Pid()),
		zap.String("run_id", req.RunID))

	regionErr := e.runRegion(ctx, inst, region)

	inst.Wait(0)
	stdout, stderr := inst.CloseDrains()
	end := time.Now()

	out := Outcome{
		ExitCode:       inst.ExitCode(),
		Stdout:         stdout,
		Stderr:         stderr,
		StartMonotonic: start,
		EndMonotonic:   end,
		ResolvedCmd:    inst.ResolvedCmd(),
		Request:        req,
	}

	if regionErr != nil {
		e.log.Warn("command interrupted", zap.String("run_id", req.RunID), zap.Int("exit_code", out.ExitCode))
		return out, &errtax.InterruptedError{Partial: out}
	}

	e.log.Info("command finished",
		zap.String("run_id", req.RunID),
		zap.Int("exit_code", out.ExitCode),
		zap.Duration("elapsed", out.Elapsed()))
	return out, nil
}

// runRegion invokes region and races it against ctx's cancellation. On
// cancellation it drives the interrupt cascade and reports an error so
// Call knows to wrap the Outcome as interrupted; region's own error (if
// any, and ctx was not the cause) is returned as-is.
func (e *Executor) runRegion(ctx context.Context, inst Handle, region Region) error {
	if region == nil {
		// Default region: the common "just run it to completion" case
		// used by run_one's command sequence (spec §4.5) — block until
		// the child exits on its own.
		region = func(_ context.Context, status Status) error {
			status.Wait(0)
			return nil
		}
	}

	done := make(chan error, 1)
	go func() { done <- region(ctx, Status{inst: inst}) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		e.log.Warn("interrupt received, starting cascade", zap.Int("pid", inst.Pid()))
		stage, sent := inst.Interrupt()
		if sent {
			e.log.Warn("cascade complete", zap.String("final_stage", stage))
		}
		<-done // region must still return before we touch the instance further
		return ctx.Err()
	}
}

// spawnFailureOutcome builds the immediate Outcome spec §4.2 mandates for
// a failed spawn: exit_code is the OS error code when one can be
// extracted, buffers are empty, and the resolved command is the original
// argv (resolution never happened).
func (e *Executor) spawnFailureOutcome(req Request, start time.Time, err error) Outcome {
	code := -1 // spec §4.2: exit_code equals the OS error code when one is available
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		code = int(errno)
	case errors.Is(err, exec.ErrNotFound):
		code = -1
	}
	now := time.Now()
	if start.IsZero() {
		start = now
	}
	return Outcome{
		ExitCode:       code,
		StartMonotonic: start,
		EndMonotonic:   now,
		ResolvedCmd:    req.Argv,
		Request:        req,
	}
}
