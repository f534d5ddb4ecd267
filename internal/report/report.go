// Package report implements the Reporter and Journal components (spec
// §2 Component H; SPEC_FULL.md Component K): the final human-readable
// summary printed at process exit, and the optional structured
// --result-json run journal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/orchestrator"
	"github.com/RonnyPfannschmidt-migration-tests/tox/pkg/shellquote"
)

// Summary writes the final per-environment status table, total wall
// duration, and exit-code rollup to out (spec §2 Component H).
func Summary(out io.Writer, results []orchestrator.RunResult, totalElapsed time.Duration, exitCode int) {
	for _, r := range results {
		fmt.Fprintf(out, "  %s: %s\n", r.Name, statusLine(r))
	}
	fmt.Fprintf(out, "\nrun took %s, exit code %d\n", totalElapsed.Round(10*time.Millisecond), exitCode)
}

func statusLine(r orchestrator.RunResult) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Code == orchestrator.CodeInterruptedBeforeDispatch:
		return "interrupted before dispatch"
	case r.Code == orchestrator.CodeCancelledInFlight:
		return "cancelled in-flight"
	case r.Code == 0:
		return fmt.Sprintf("passed (%s)", r.Duration.Round(10*time.Millisecond))
	default:
		return fmt.Sprintf("failed with code %d (%s)%s", r.Code, r.Duration.Round(10*time.Millisecond), failingCommandSuffix(r))
	}
}

// failingCommandSuffix names the command that produced the failing exit
// code, rendered shell-safe for copy-paste reproduction.
func failingCommandSuffix(r orchestrator.RunResult) string {
	for _, o := range r.Outcomes {
		if !o.Success() {
			return fmt.Sprintf(": %s", shellquote.Join(o.ResolvedCmd))
		}
	}
	return ""
}
