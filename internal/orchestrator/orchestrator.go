// Package orchestrator implements the run scheduler's driver loop (spec
// §4.3): it owns the worker pool, the interrupt event, result collection,
// and teardown ordering, pulling ready batches from a DependencyScheduler
// and invoking run_one (spec §4.5) for each.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/scheduler"
)

// SkipPolicy governs how a failed Setup step is classified (spec §6's
// `-s/--skip-missing-interpreters`).
type SkipPolicy int

const (
	SkipConfig SkipPolicy = iota // honor each env's own preference (external collaborator decides)
	SkipAlways
	SkipNever
)

// RunConfig is the fully-resolved set of CLI-level knobs the Orchestrator
// needs (SPEC_FULL.md's ambient expansion of spec §6's CLI surface). The
// CLI layer (Component J) is solely responsible for producing one of
// these; the Orchestrator never parses flags itself.
type RunConfig struct {
	MaxWorkers              int
	Live                    bool
	ShowProgress            bool
	ResultJSONPath          string
	SkipMissingInterpreters SkipPolicy
	NoTest                  bool
	PkgOnly                 bool
	InstallPkgPath          string
	Verbosity               int
}

// progressSink is the Spinner's contract as seen by the Orchestrator —
// kept as a narrow interface here so this package does not import
// internal/spinner, matching the teacher's habit of depending on small
// local interfaces rather than concrete collaborator types.
type progressSink interface {
	Add(name string)
	Finalize(name string, status string, elapsed time.Duration)
}

type noopSink struct{}

func (noopSink) Add(string)                             {}
func (noopSink) Finalize(string, string, time.Duration) {}

// Orchestrator drives a full run to completion (spec §4.3).
type Orchestrator struct {
	envs     map[string]*envdesc.EnvDescriptor
	runner   EnvRunner
	executor *execute.Executor
	log      *zap.Logger
	spinner  progressSink
	out      io.Writer
}

// New builds an Orchestrator. A nil runner defaults to NoopRunner; a nil
// spinner becomes a no-op sink; a nil logger becomes zap.NewNop(). The
// §4.6 live-output flush target is always os.Stdout.
func New(envs map[string]*envdesc.EnvDescriptor, runner EnvRunner, executor *execute.Executor, log *zap.Logger, sp progressSink) *Orchestrator {
	if runner == nil {
		runner = NoopRunner{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if sp == nil {
		sp = noopSink{}
	}
	return &Orchestrator{envs: envs, runner: runner, executor: executor, log: log, spinner: sp, out: os.Stdout}
}

// workerOutcome is what a dispatched worker reports back to the driver
// loop: which env it ran and its RunResult, or nil if it was cancelled
// in-flight before producing one.
type workerOutcome struct {
	name   string
	result *RunResult
}

// Execute runs toRun to completion per spec §4.3's state machine and
// returns the process exit code (spec §6): 0 if every non-skipped env
// passed, 1 if any failed (single-env runs propagate that env's exact
// code). An interrupted run follows the same rule: its envs carry
// negative codes, so a multi-env run returns 1 and a single-env run
// returns that env's negative code.
func (o *Orchestrator) Execute(ctx context.Context, toRun []string, cfg RunConfig) ([]RunResult, int, error) {
	sched, err := scheduler.New(o.envs, toRun)
	if err != nil {
		return nil, 1, err
	}

	completed := make(map[string]struct{}, len(toRun))
	var results []RunResult
	inFlight := make(map[string]struct{})
	var interrupted atomic.Bool

	pool := newSlotPool(cfg.MaxWorkers)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Watches runCtx rather than ctx directly so this goroutine always
	// wakes and exits once Execute returns (cancelRun fires on every
	// return path), even when the caller's ctx is never cancelled.
	go func() {
		<-runCtx.Done()
		interrupted.Store(true)
		pool.closeAll()
	}()

	outcomeCh := make(chan workerOutcome)
	group, groupCtx := errgroup.WithContext(runCtx)

	for !sched.Done() || len(inFlight) > 0 {
		if ctx.Err() != nil {
			interrupted.Store(true)
		}

		for _, name := range sched.ReadyBatch(completed) {
			env := o.envs[name]
			if interrupted.Load() {
				o.log.Warn("env skipped, run interrupted before dispatch", zap.String("env", name))
				results = append(results, RunResult{Name: name, Code: CodeInterruptedBeforeDispatch})
				completed[name] = struct{}{}
				continue
			}

			o.spinner.Add(name)
			inFlight[name] = struct{}{}
			group.Go(func() error {
				o.dispatch(groupCtx, env, cfg, pool, outcomeCh)
				return nil
			})
		}

		if len(inFlight) == 0 {
			continue
		}

		outcome := <-outcomeCh
		delete(inFlight, outcome.name)
		completed[outcome.name] = struct{}{}

		result := outcome.result
		if result == nil {
			result = &RunResult{Name: outcome.name, Code: CodeCancelledInFlight}
		}
		results = append(results, *result)

		status := "OK"
		if result.Skipped {
			status = "SKIP"
		} else if result.Code != 0 {
			status = "FAIL"
		}

		env := o.envs[outcome.name]
		shownLive := env != nil && (cfg.Live || env.ParallelShowOutput)
		if !shownLive && status == "FAIL" {
			o.flushCaptured(*result)
		}

		o.spinner.Finalize(outcome.name, status, result.Duration)
		o.log.Info("env completed", zap.String("env", outcome.name), zap.Int("code", result.Code))
	}

	_ = group.Wait()

	// Teardown hooks for every env, including config-only envs that
	// never ran (spec §4.3: invoked before the summary is produced).
	// Every env runs through here exactly once, whether it completed,
	// was skipped before dispatch, or never ran at all.
	for _, env := range o.envs {
		o.runner.Teardown(ctx, env)
	}

	return results, rollupExitCode(results, len(toRun)), nil
}

// flushCaptured writes a quiet-mode env's captured stdout/stderr buffers
// to the terminal on completion (spec §4.6: "if the env failed ... the
// captured buffers are flushed to the terminal"), in command order.
func (o *Orchestrator) flushCaptured(result RunResult) {
	for _, out := range result.Outcomes {
		if out.Stdout != "" {
			fmt.Fprint(o.out, out.Stdout)
		}
		if out.Stderr != "" {
			fmt.Fprint(o.out, out.Stderr)
		}
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, env *envdesc.EnvDescriptor, cfg RunConfig, pool *slotPool, outcomeCh chan<- workerOutcome) {
	if !pool.acquire(env.Name) {
		// Pool closed (interrupt) before a slot freed up: treat as
		// cancelled-in-flight, the worker never actually ran (spec §6's
		// -3 sentinel covers both "running" and "about to run" here).
		outcomeCh <- workerOutcome{name: env.Name, result: nil}
		return
	}
	defer pool.release(env.Name)

	show := cfg.Live || env.ParallelShowOutput
	result := runOne(ctx, env, o.runner, o.executor, show, show, cfg.NoTest)
	outcomeCh <- workerOutcome{name: env.Name, result: &result}
}

// rollupExitCode implements spec §6's exit-code rollup: 0 if everything
// passed, the exact native code for a single-env run, else 1 for any
// non-skipped failure.
func rollupExitCode(results []RunResult, requested int) int {
	if requested == 1 && len(results) == 1 {
		return results[0].Code
	}
	for _, r := range results {
		if !r.Skipped && r.Code != 0 {
			return 1
		}
	}
	return 0
}
