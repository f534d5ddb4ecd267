// Package errtax implements the error taxonomy from spec §7: configuration
// errors, cycles, spawn failures, and the distinguished "interrupted" error
// that carries a partial Outcome back out of a running command.
package errtax

import "fmt"

// ConfigError is a malformed env list, unknown env reference, non-existent
// install package, or any other configuration problem discovered before
// any worker starts. Surfaced immediately with a nonzero exit.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// CycleError names one member of a dependency cycle detected while
// building the topological order. A cycle is always a ConfigError too;
// callers match on CycleError first when they need the offending name.
type CycleError struct {
	Member string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("configuration error: dependency cycle involving %q", e.Member)
}

func (e *CycleError) Unwrap() error { return &ConfigError{Reason: e.Error()} }

// SpawnError wraps an OS-level failure constructing the child process
// (executable not found, permission denied). It is recorded as a command
// failure whose exit code is the OS error code, per spec §4.2/§7.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn failed for %v: %v", e.Argv, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// InterruptedError is raised by Executor.Call when an asynchronous
// interrupt arrives while the scoped execution region is active. It
// carries the partial Outcome recorded up to the point of interruption.
type InterruptedError struct {
	Partial any // *execute.Outcome; typed any to avoid an import cycle
}

func (e *InterruptedError) Error() string { return "interrupted" }

// InternalError marks an unexpected failure in the driver or a worker —
// bucket distinct from the recoverable, command-scoped errors above.
// Propagation policy (spec §7): these escape to the Orchestrator, which
// guarantees teardown before surfacing them.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return "internal error: " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }
