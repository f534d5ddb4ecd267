package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/errtax"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/scheduler"
)

func env(name string, deps ...string) *envdesc.EnvDescriptor {
	depset := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		depset[d] = struct{}{}
	}
	return &envdesc.EnvDescriptor{Name: name, DependsOn: depset}
}

func TestDependencyScheduler_DeterministicOrder(t *testing.T) {
	envs := map[string]*envdesc.EnvDescriptor{
		"a": env("a"),
		"b": env("b", "a"),
		"c": env("c", "a"),
		"d": env("d", "b", "c"),
	}

	s, err := scheduler.New(envs, []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	completed := map[string]struct{}{}
	batch1 := s.ReadyBatch(completed)
	assert.Equal(t, []string{"a"}, batch1)

	completed["a"] = struct{}{}
	batch2 := s.ReadyBatch(completed)
	assert.ElementsMatch(t, []string{"b", "c"}, batch2)
	assert.Equal(t, []string{"b", "c"}, batch2, "ties broken by input order")

	completed["b"] = struct{}{}
	completed["c"] = struct{}{}
	batch3 := s.ReadyBatch(completed)
	assert.Equal(t, []string{"d"}, batch3)

	assert.True(t, s.Done())
}

func TestDependencyScheduler_FullScanEachCall(t *testing.T) {
	// Two independent chains; scanning must not stop at the first
	// not-yet-ready entry (the real tox algorithm scans every pass).
	envs := map[string]*envdesc.EnvDescriptor{
		"slow-root": env("slow-root"),
		"slow-leaf": env("slow-leaf", "slow-root"),
		"fast":      env("fast"),
	}

	s, err := scheduler.New(envs, []string{"slow-root", "slow-leaf", "fast"})
	require.NoError(t, err)

	completed := map[string]struct{}{}
	batch := s.ReadyBatch(completed)
	assert.ElementsMatch(t, []string{"slow-root", "fast"}, batch)
}

func TestDependencyScheduler_CycleDetected(t *testing.T) {
	envs := map[string]*envdesc.EnvDescriptor{
		"a": env("a", "b"),
		"b": env("b", "a"),
	}

	_, err := scheduler.New(envs, []string{"a", "b"})
	require.Error(t, err)
	var cycleErr *errtax.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestDependencyScheduler_UnknownEnv(t *testing.T) {
	envs := map[string]*envdesc.EnvDescriptor{"a": env("a")}

	_, err := scheduler.New(envs, []string{"missing"})
	require.Error(t, err)
	var cfgErr *errtax.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestDependencyScheduler_OutOfTargetDependencyDropped(t *testing.T) {
	// "b" depends on "a", but only "b" is requested — the edge is
	// dropped exactly like an out-of-universe dependency (spec §3).
	envs := map[string]*envdesc.EnvDescriptor{
		"a": env("a"),
		"b": env("b", "a"),
	}

	s, err := scheduler.New(envs, []string{"b"})
	require.NoError(t, err)

	batch := s.ReadyBatch(map[string]struct{}{})
	assert.Equal(t, []string{"b"}, batch)
}

func TestDependencyScheduler_RemainingAndMarkEmitted(t *testing.T) {
	envs := map[string]*envdesc.EnvDescriptor{
		"a": env("a"),
		"b": env("b", "a"),
	}
	s, err := scheduler.New(envs, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, s.Remaining())
	s.MarkEmitted("a")
	assert.Equal(t, []string{"b"}, s.Remaining())
	assert.False(t, s.Done())
}
