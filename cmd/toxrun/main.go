// Command toxrun is the CLI surface described in spec §6: it parses
// flags, loads environment descriptors, and hands the resolved
// RunConfig to Orchestrator.Execute. Configuration parsing is an
// external collaborator per spec §1 — this binary uses the minimal
// JSON loader in internal/envconfig for that purpose.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envconfig"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/envdesc"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/execute"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/logging"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/orchestrator"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/report"
	"github.com/RonnyPfannschmidt-migration-tests/tox/internal/spinner"
	"github.com/RonnyPfannschmidt-migration-tests/tox/pkg/debugfmt"
)

var (
	flagConfig       string
	flagEnvList      string
	flagParallel     string
	flagParallelLive bool
	flagSkipMissing  string
	flagNoTest       bool
	flagPkgOnly      bool
	flagInstallPkg   string
	flagResultJSON   string
	flagVerbose      int
	flagQuiet        int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportFatal(err)
		os.Exit(1)
	}
}

// reportFatal prints a top-level failure. At -vv or higher it dumps the
// full unwrap chain (spec §7's internal-error bucket) so a developer gets
// the whole picture without reaching for a debugger; otherwise just the
// one-line message cobra would have printed anyway.
func reportFatal(err error) {
	if flagVerbose-flagQuiet >= 2 {
		fmt.Fprint(os.Stderr, debugfmt.ErrChainDebug(err))
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

var rootCmd = &cobra.Command{
	Use:          "toxrun",
	Short:        "Run named environments honoring dependencies, bounded parallelism, and interrupt cascade",
	RunE:         run,
	SilenceUsage: true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagConfig, "config", "envs.json", "path to the JSON environment descriptor file")
	flags.StringVarP(&flagEnvList, "env", "e", "", "comma-separated environment selector (default: all active envs)")
	flags.StringVarP(&flagParallel, "parallel", "p", "", "enable parallel mode with worker cap (N or \"all\")")
	flags.BoolVar(&flagParallelLive, "parallel-live", false, "force live output in parallel mode")
	flags.StringVarP(&flagSkipMissing, "skip-missing-interpreters", "s", "config", "config|true|false")
	flags.BoolVarP(&flagNoTest, "notest", "n", false, "setup only, skip command execution")
	flags.BoolVarP(&flagPkgOnly, "pkg-only", "b", false, "packaging phase only")
	flags.StringVar(&flagInstallPkg, "installpkg", "", "path to a prebuilt artifact (must exist)")
	flags.StringVar(&flagResultJSON, "result-json", "", "write a structured journal of the run to PATH")
	flags.CountVarP(&flagVerbose, "verbose", "v", "increase verbosity")
	flags.CountVarP(&flagQuiet, "quiet", "q", "decrease verbosity")
}

func run(cmd *cobra.Command, args []string) error {
	envs, err := envconfig.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading environment descriptors: %w", err)
	}

	toRun, err := selectEnvs(envs, flagEnvList)
	if err != nil {
		return err
	}

	maxWorkers, live := parseParallel(flagParallel)
	if flagParallelLive {
		live = true
	}

	if flagInstallPkg != "" {
		if _, err := os.Stat(flagInstallPkg); err != nil {
			return fmt.Errorf("--installpkg %q: %w", flagInstallPkg, err)
		}
	}

	verbosity := flagVerbose - flagQuiet
	if verbosity < 0 {
		verbosity = 0
	}

	log := logging.New(verbosity)
	defer log.Sync()

	sp := spinner.New(os.Stdout, verbosity >= 1)
	sp.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex := execute.NewExecutor(log)
	cfg := orchestrator.RunConfig{
		MaxWorkers:              maxWorkers,
		Live:                    live,
		ShowProgress:            verbosity >= 1,
		ResultJSONPath:          flagResultJSON,
		SkipMissingInterpreters: parseSkipPolicy(flagSkipMissing),
		NoTest:                  flagNoTest,
		PkgOnly:                 flagPkgOnly,
		InstallPkgPath:          flagInstallPkg,
		Verbosity:               verbosity,
	}

	orch := orchestrator.New(envs, orchestrator.NoopRunner{}, ex, log, sp)

	start := time.Now()
	results, code, err := orch.Execute(ctx, toRun, cfg)
	sp.Stop()
	if err != nil {
		return err
	}

	report.Summary(os.Stdout, results, time.Since(start), code)

	if flagResultJSON != "" {
		journal := report.BuildJournal(results)
		if err := report.WriteResultJSON(flagResultJSON, journal); err != nil {
			return fmt.Errorf("writing --result-json: %w", err)
		}
	}

	os.Exit(code)
	return nil
}

// selectEnvs resolves -e/--env into the ordered list of env names to run.
// An empty selector means every active env, sorted by name; the order of
// the config file is not kept.
func selectEnvs(envs map[string]*envdesc.EnvDescriptor, list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		names := make([]string, 0, len(envs))
		for name, env := range envs {
			if env.Active {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		return names, nil
	}

	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, ok := envs[name]; !ok {
			return nil, fmt.Errorf("unknown environment %q", name)
		}
		names = append(names, name)
	}
	return names, nil
}

// parseParallel interprets -p/--parallel's value: "all" means unbounded
// (slotPool treats <=0 as unbounded), a number caps the worker count, and
// an empty value disables parallel mode entirely (sequential, maxWorkers=1).
func parseParallel(v string) (maxWorkers int, live bool) {
	switch {
	case v == "":
		return 1, true
	case v == "all":
		return 0, false
	default:
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, false
	}
}

func parseSkipPolicy(v string) orchestrator.SkipPolicy {
	switch strings.ToLower(v) {
	case "true":
		return orchestrator.SkipAlways
	case "false":
		return orchestrator.SkipNever
	default:
		return orchestrator.SkipConfig
	}
}
