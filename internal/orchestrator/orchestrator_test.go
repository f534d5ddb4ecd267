package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute/exectest"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/orchestrator"
)

func TestOrchestrator_SequentialFailThenPass(t *testing.T) {
	defer goleak.VerifyNone(t)

	failBackend := exectest.NewBackend(exectest.Script{ExitCode: 1, Stderr: "nope\n"})
	passBackend := exectest.NewBackend(exectest.Script{ExitCode: 0})

	envA := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}
	envB := &envdesc.EnvDescriptor{Name: "b", Commands: []envdesc.CommandSpec{{Argv: []string{"y"}}}, EnvVars: map[string]string{}}

	envs := map[string]*envdesc.EnvDescriptor{"a": envA, "b": envB}

	// Run each env with its own orchestrator/executor pairing since the
	// test double is keyed per-backend; a single run only needs one
	// Executor here because each env's commands are scripted the same.
	exA := execute.NewExecutorWithBackend(nil, failBackend)
	oA := orchestrator.New(envs, nil, exA, zap.NewNop(), nil)
	resultsA, codeA, err := oA.Execute(context.Background(), []string{"a"}, orchestrator.RunConfig{MaxWorkers: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, codeA)
	require.Len(t, resultsA, 1)
	assert.Equal(t, 1, resultsA[0].Code)

	exB := execute.NewExecutorWithBackend(nil, passBackend)
	oB := orchestrator.New(envs, nil, exB, zap.NewNop(), nil)
	resultsB, codeB, err := oB.Execute(context.Background(), []string{"b"}, orchestrator.RunConfig{MaxWorkers: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, codeB)
	require.Len(t, resultsB, 1)
	assert.Equal(t, 0, resultsB[0].Code)
}

func TestOrchestrator_IgnoredFailureContinues(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(
		exectest.Script{ExitCode: 1},
		exectest.Script{ExitCode: 0},
	)
	env := &envdesc.EnvDescriptor{
		Name: "a",
		Commands: []envdesc.CommandSpec{
			{Argv: []string{"step1"}, IgnoreExitCode: true},
			{Argv: []string{"step2"}},
		},
		EnvVars: map[string]string{},
	}
	envs := map[string]*envdesc.EnvDescriptor{"a": env}

	ex := execute.NewExecutorWithBackend(nil, backend)
	o := orchestrator.New(envs, nil, ex, zap.NewNop(), nil)

	results, code, err := o.Execute(context.Background(), []string{"a"}, orchestrator.RunConfig{MaxWorkers: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Code)
	assert.Len(t, results[0].Outcomes, 2)
}

func TestOrchestrator_DependencyOrdering(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(exectest.Script{ExitCode: 0})
	a := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}
	b := &envdesc.EnvDescriptor{Name: "b", DependsOn: map[string]struct{}{"a": {}}, Commands: []envdesc.CommandSpec{{Argv: []string{"y"}}}, EnvVars: map[string]string{}}
	envs := map[string]*envdesc.EnvDescriptor{"a": a, "b": b}

	ex := execute.NewExecutorWithBackend(nil, backend)
	o := orchestrator.New(envs, nil, ex, zap.NewNop(), nil)

	results, code, err := o.Execute(context.Background(), []string{"a", "b"}, orchestrator.RunConfig{MaxWorkers: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Name, "a must complete before b is even dispatched")
	assert.Equal(t, "b", results[1].Name)
}

func TestOrchestrator_InterruptDuringRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	// -9 mirrors the real cascade: a child that never responds to soft
	// interrupt/terminate is eventually SIGKILLed.
	backend := exectest.NewBackend(exectest.Script{Block: true, ExitCode: -9})
	a := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}
	b := &envdesc.EnvDescriptor{Name: "b", Commands: []envdesc.CommandSpec{{Argv: []string{"y"}}}, EnvVars: map[string]string{}}
	envs := map[string]*envdesc.EnvDescriptor{"a": a, "b": b}

	ex := execute.NewExecutorWithBackend(nil, backend)
	o := orchestrator.New(envs, nil, ex, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	results, code, err := o.Execute(ctx, []string{"a", "b"}, orchestrator.RunConfig{MaxWorkers: 2})
	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, -9, r.Code)
	}
}

func TestOrchestrator_CycleDetection(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := &envdesc.EnvDescriptor{Name: "a", DependsOn: map[string]struct{}{"b": {}}}
	b := &envdesc.EnvDescriptor{Name: "b", DependsOn: map[string]struct{}{"a": {}}}
	envs := map[string]*envdesc.EnvDescriptor{"a": a, "b": b}

	ex := execute.NewExecutorWithBackend(nil, exectest.NewBackend())
	o := orchestrator.New(envs, nil, ex, zap.NewNop(), nil)

	_, code, err := o.Execute(context.Background(), []string{"a", "b"}, orchestrator.RunConfig{MaxWorkers: 1})
	require.Error(t, err)
	assert.Equal(t, 1, code)
}
