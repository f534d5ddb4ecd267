package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute/exectest"
)

type scriptedRunner struct {
	setup     SetupResult
	setupErr  error
	teardowns []string
}

func (r *scriptedRunner) Setup(context.Context, *envdesc.EnvDescriptor) (SetupResult, error) {
	return r.setup, r.setupErr
}

func (r *scriptedRunner) Teardown(_ context.Context, env *envdesc.EnvDescriptor) {
	r.teardowns = append(r.teardowns, env.Name)
}

func TestRunOne_SetupErrorSkipsCommands(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(exectest.Script{ExitCode: 0})
	ex := execute.NewExecutorWithBackend(nil, backend)
	runner := &scriptedRunner{setupErr: errors.New("boom")}
	env := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}

	result := runOne(context.Background(), env, runner, ex, false, false, false)

	assert.Equal(t, -1, result.Code)
	assert.False(t, result.Skipped)
	assert.Empty(t, result.Outcomes)
	assert.Empty(t, backend.Spawned(), "a failed setup must never spawn a command")
}

func TestRunOne_SetupSkipReportsSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(exectest.Script{ExitCode: 0})
	ex := execute.NewExecutorWithBackend(nil, backend)
	runner := &scriptedRunner{setup: SetupResult{Skip: true}}
	env := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}

	result := runOne(context.Background(), env, runner, ex, false, false, false)

	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Code)
	assert.Empty(t, backend.Spawned())
}

func TestRunOne_StopsAtFirstUnignoredFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(
		exectest.Script{ExitCode: 1},
		exectest.Script{ExitCode: 0},
	)
	ex := execute.NewExecutorWithBackend(nil, backend)
	runner := &scriptedRunner{}
	env := &envdesc.EnvDescriptor{
		Name: "a",
		Commands: []envdesc.CommandSpec{
			{Argv: []string{"step1"}},
			{Argv: []string{"step2"}},
		},
		EnvVars: map[string]string{},
	}

	result := runOne(context.Background(), env, runner, ex, false, false, false)

	assert.Equal(t, 1, result.Code)
	require.Len(t, result.Outcomes, 1, "step2 must never run once step1 fails without ignore_exit_code")
	assert.Len(t, backend.Spawned(), 1)
}

func TestRunOne_NoTestSkipsCommandsEntirely(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(exectest.Script{ExitCode: 1})
	ex := execute.NewExecutorWithBackend(nil, backend)
	runner := &scriptedRunner{}
	env := &envdesc.EnvDescriptor{Name: "a", Commands: []envdesc.CommandSpec{{Argv: []string{"x"}}}, EnvVars: map[string]string{}}

	result := runOne(context.Background(), env, runner, ex, false, false, true)

	assert.Equal(t, 0, result.Code)
	assert.Empty(t, backend.Spawned())
}

func TestRunOne_IgnoredFailureLetsRunContinue(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := exectest.NewBackend(
		exectest.Script{ExitCode: 1},
		exectest.Script{ExitCode: 0},
	)
	ex := execute.NewExecutorWithBackend(nil, backend)
	runner := &scriptedRunner{}
	env := &envdesc.EnvDescriptor{
		Name: "a",
		Commands: []envdesc.CommandSpec{
			{Argv: []string{"step1"}, IgnoreExitCode: true},
			{Argv: []string{"step2"}},
		},
		EnvVars: map[string]string{},
	}

	result := runOne(context.Background(), env, runner, ex, false, false, false)

	assert.Equal(t, 0, result.Code)
	assert.Len(t, result.Outcomes, 2)
}
