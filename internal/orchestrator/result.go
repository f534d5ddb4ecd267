package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/errtax"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute"
)

// Sentinel RunResult.Code values for envs that never got a real exit code
// (spec §5, §6).
const (
	CodeInterruptedBeforeDispatch = -2
	CodeCancelledInFlight         = -3
)

// RunResult is one environment's aggregate outcome (spec §3).
type RunResult struct {
	Name     string
	Skipped  bool
	Code     int
	Outcomes []execute.Outcome
	Duration time.Duration
}

// SetupResult is what an EnvRunner's Setup step reports back to run_one.
type SetupResult struct {
	Skip bool   // true: env declines to run at all, code = 0
	Code int    // non-zero: setup failed, no commands run
	Err  error  // non-nil alongside a non-zero Code for logging context
}

// EnvRunner is the external collaborator spec §1/§4.5 hands run_one:
// packaging/install details the core does not specify. The CLI's default
// implementation (below) performs no real setup.
type EnvRunner interface {
	Setup(ctx context.Context, env *envdesc.EnvDescriptor) (SetupResult, error)
	Teardown(ctx context.Context, env *envdesc.EnvDescriptor)
}

// NoopRunner is the "no real setup, just run commands" EnvRunner the CLI
// uses when no richer collaborator is supplied, since configuration and
// packaging are explicitly out of scope (spec §1).
type NoopRunner struct{}

func (NoopRunner) Setup(context.Context, *envdesc.EnvDescriptor) (SetupResult, error) {
	return SetupResult{}, nil
}

func (NoopRunner) Teardown(context.Context, *envdesc.EnvDescriptor) {}

// runOne executes spec §4.5's per-environment algorithm: setup, then (if
// noTest is false) each CommandSpec in order via the Executor, stopping at
// the first non-ignored failure.
func runOne(ctx context.Context, env *envdesc.EnvDescriptor, runner EnvRunner, executor *execute.Executor, show, colorErr, noTest bool) RunResult {
	start := time.Now()
	result := RunResult{Name: env.Name}

	setup, err := runner.Setup(ctx, env)
	if err != nil {
		result.Code = -1
		result.Duration = time.Since(start)
		return result
	}
	if setup.Skip {
		result.Skipped = true
		result.Code = 0
		result.Duration = time.Since(start)
		return result
	}
	if setup.Code != 0 {
		result.Code = setup.Code
		result.Duration = time.Since(start)
		return result
	}

	if !noTest {
		for i, cmd := range env.Commands {
			req := execute.Request{
				Argv:        cmd.Argv,
				Cwd:         env.WorkingDir,
				EnvVars:     env.EnvVars,
				StdinSource: cmd.StdinSource,
				RunID:       commandRunID(i),
			}
			out, err := executor.Call(ctx, req, show, colorErr, nil)
			result.Outcomes = append(result.Outcomes, out)

			var interrupted *errtax.InterruptedError
			if errors.As(err, &interrupted) {
				result.Code = out.ExitCode
				result.Duration = time.Since(start)
				return result
			}

			if out.ExitCode != 0 && !cmd.IgnoreExitCode {
				result.Code = out.ExitCode
				result.Duration = time.Since(start)
				return result
			}
		}
	}

	result.Code = 0
	result.Duration = time.Since(start)
	return result
}

func commandRunID(index int) string {
	return "commands[" + strconv.Itoa(index) + "]"
}
