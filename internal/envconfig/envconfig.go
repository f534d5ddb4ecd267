// Package envconfig is a minimal JSON loader for EnvDescriptors, used only
// by the CLI entrypoint. Configuration parsing and the notion of what an
// environment contains are explicitly out of scope for the core (spec
// §1) — this package exists solely so cmd/toxrun has something concrete
// to hand the Orchestrator; a real tox.ini/pyproject.toml parser is a
// separate external collaborator.
package envconfig

import (
	"encoding/json"
	"os"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
)

// fileCommand and fileEnv mirror envdesc's shapes with JSON tags; they
// exist instead of tagging envdesc directly to keep that package free of
// serialization concerns.
type fileCommand struct {
	Argv           []string `json:"argv"`
	IgnoreExitCode bool     `json:"ignore_exit_code"`
	Stdin          string   `json:"stdin"` // "off" | "user" | "api"
}

type fileEnv struct {
	Name               string            `json:"name"`
	DependsOn          []string          `json:"depends_on"`
	Commands           []fileCommand     `json:"commands"`
	Active             bool              `json:"active"`
	ParallelShowOutput bool              `json:"parallel_show_output"`
	WorkingDir         string            `json:"working_dir"`
	EnvVars            map[string]string `json:"env_vars"`
}

// Load reads path as a JSON array of environment descriptors and returns
// them keyed by name.
func Load(path string) (map[string]*envdesc.EnvDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fileEnvs []fileEnv
	if err := json.Unmarshal(data, &fileEnvs); err != nil {
		return nil, err
	}

	envs := make(map[string]*envdesc.EnvDescriptor, len(fileEnvs))
	for _, fe := range fileEnvs {
		deps := make(map[string]struct{}, len(fe.DependsOn))
		for _, d := range fe.DependsOn {
			deps[d] = struct{}{}
		}
		commands := make([]envdesc.CommandSpec, len(fe.Commands))
		for i, fc := range fe.Commands {
			commands[i] = envdesc.CommandSpec{
				Argv:           fc.Argv,
				IgnoreExitCode: fc.IgnoreExitCode,
				StdinSource:    parseStdin(fc.Stdin),
			}
		}
		envVars := fe.EnvVars
		if envVars == nil {
			envVars = map[string]string{}
		}
		if _, ok := envVars["PATH"]; !ok {
			envVars["PATH"] = os.Getenv("PATH")
		}
		env := &envdesc.EnvDescriptor{
			Name:               fe.Name,
			DependsOn:          deps,
			Commands:           commands,
			Active:             fe.Active,
			ParallelShowOutput: fe.ParallelShowOutput,
			WorkingDir:         fe.WorkingDir,
			EnvVars:            envVars,
		}
		if err := env.Validate(); err != nil {
			return nil, err
		}
		envs[fe.Name] = env
	}
	return envs, nil
}

func parseStdin(s string) envdesc.StdinSource {
	switch s {
	case "user":
		return envdesc.StdinUser
	case "api":
		return envdesc.StdinAPI
	default:
		return envdesc.StdinOff
	}
}
