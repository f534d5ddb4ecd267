package report

import (
	"encoding/json"
	"os"
	"runtime"

	"github.com/google/uuid"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/orchestrator"
)

// ToxVersion is the module-level version string stamped into every
// journal (spec §6's "toxversion" field).
const ToxVersion = "4.0.0-go"

// StepRecord is one executed step's journal entry (SPEC_FULL.md's data
// model addition). RetCode is nil when a step records no applicable
// return code (e.g. a command that never ran because setup failed).
type StepRecord struct {
	RetCode *int   `json:"retcode"`
	RunID   string `json:"run_id"`
}

// InstallPkgInfo describes a prebuilt artifact supplied via
// --installpkg, when one was used.
type InstallPkgInfo struct {
	Basename string `json:"basename"`
	Type     string `json:"type"`
	SHA256   string `json:"sha256"`
}

// JournalEntry is one environment's journal payload (spec §6).
type JournalEntry struct {
	Setup             []StepRecord    `json:"setup"`
	Test              []StepRecord    `json:"test"`
	InstalledPackages []string        `json:"installed_packages"`
	InstallPkg        *InstallPkgInfo `json:"installpkg,omitempty"`
}

// Journal is the top-level --result-json document (spec §6).
type Journal struct {
	TestEnvs      map[string]JournalEntry `json:"testenvs"`
	Platform      string                  `json:"platform"`
	ToxVersion    string                  `json:"toxversion"`
	ReportVersion string                  `json:"reportversion"`
	Host          HostInfo                `json:"host"`
}

// HostInfo is the process-level block identifying this run.
type HostInfo struct {
	RunID string `json:"run_id"`
}

// BuildJournal assembles a Journal from a completed run's results. Only
// RunResult.Outcomes are available at this layer, so every outcome is
// filed under "test" — a collaborator supplying real setup/install step
// records would populate JournalEntry.Setup/InstalledPackages/InstallPkg
// directly (spec §1: packaging details are an external concern).
func BuildJournal(results []orchestrator.RunResult) Journal {
	envs := make(map[string]JournalEntry, len(results))
	for _, r := range results {
		entry := JournalEntry{Test: make([]StepRecord, 0, len(r.Outcomes))}
		for _, out := range r.Outcomes {
			code := out.ExitCode
			entry.Test = append(entry.Test, StepRecord{RetCode: &code, RunID: out.Request.RunID})
		}
		envs[r.Name] = entry
	}
	return Journal{
		TestEnvs:      envs,
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
		ToxVersion:    ToxVersion,
		ReportVersion: "1",
		Host:          HostInfo{RunID: uuid.NewString()},
	}
}

// WriteResultJSON writes j to path as indented JSON (spec §6's
// --result-json format).
func WriteResultJSON(path string, j Journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
