// Package envdesc holds the immutable environment/command descriptors the
// scheduler is driven by (spec §3). Configuration parsing and the notion
// of what an environment's commands actually install are external
// collaborators; this package only models the data scheduling needs.
package envdesc

import "strconv"

// StdinSource selects how a command's stdin is wired.
type StdinSource int

const (
	// StdinOff closes stdin immediately; the child sees EOF right away.
	StdinOff StdinSource = iota
	// StdinUser inherits the controlling terminal's stdin.
	StdinUser
	// StdinAPI opens a writable pipe the caller can feed programmatically.
	StdinAPI
)

func (s StdinSource) String() string {
	switch s {
	case StdinOff:
		return "off"
	case StdinUser:
		return "user"
	case StdinAPI:
		return "api"
	default:
		return "unknown"
	}
}

// CommandSpec is one invocation of an external program as part of an
// environment's sequence. Immutable once scheduling begins.
type CommandSpec struct {
	Argv           []string
	IgnoreExitCode bool
	StdinSource    StdinSource
}

// EnvDescriptor is an environment to run: a named, isolated workspace that
// declares its dependencies and the commands to run inside it. Immutable
// once scheduling begins.
type EnvDescriptor struct {
	Name               string
	DependsOn          map[string]struct{}
	Commands           []CommandSpec
	Active             bool
	ParallelShowOutput bool
	WorkingDir         string
	EnvVars            map[string]string
}

// Validate checks the invariants spec §3 places on a single descriptor in
// isolation (name non-empty, commands non-empty per command). Cross-env
// invariants (depends_on subset of the universe, acyclicity) are checked
// by the scheduler against the whole set.
func (e *EnvDescriptor) Validate() error {
	if e.Name == "" {
		return errEmptyName
	}
	for i, c := range e.Commands {
		if len(c.Argv) == 0 {
			return &emptyArgvError{Env: e.Name, Index: i}
		}
	}
	return nil
}

var errEmptyName = emptyNameError{}

type emptyNameError struct{}

func (emptyNameError) Error() string { return "env descriptor has an empty name" }

type emptyArgvError struct {
	Env   string
	Index int
}

func (e *emptyArgvError) Error() string {
	return "env " + e.Env + ": command at index " + strconv.Itoa(e.Index) + " has an empty argv"
}
