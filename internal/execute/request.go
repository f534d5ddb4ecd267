package execute

import (
	"time"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
)

// UnsetExitCode marks an Outcome whose exit code does not apply yet (spec
// §3: "exit_code (integer or UNSET)").
const UnsetExitCode = -1 << 31

// Request is produced by the Orchestrator per command (spec §3). The
// executable is resolved by consulting PATH from EnvVars and substituting
// the absolute path when found; otherwise Argv is passed through
// unchanged.
type Request struct {
	Argv            []string
	Cwd             string
	EnvVars         map[string]string
	StdinSource     envdesc.StdinSource
	AllowStdinWrite bool

	// RunID identifies this step in the result journal (e.g. "install",
	// "commands[0]"). Carried through to Outcome so the journal writer
	// never has to recompute command position.
	RunID string
}

// Outcome is one command's result (spec §3).
type Outcome struct {
	ExitCode       int
	Stdout         string
	Stderr         string
	StartMonotonic time.Time
	EndMonotonic   time.Time
	ResolvedCmd    []string
	Request        Request
}

// Elapsed is EndMonotonic - StartMonotonic.
func (o Outcome) Elapsed() time.Duration { return o.EndMonotonic.Sub(o.StartMonotonic) }

// Success reports the boolean truthiness spec §3 defines: exit_code == 0.
func (o Outcome) Success() bool { return o.ExitCode == 0 }
