// Package logging builds the zap.Logger the whole core shares, in the
// same style as the teacher's cmd/zmux-server/main.go: a development
// config with colorized levels, no caller/stacktrace noise, and verbosity
// mapped onto zap's level rather than a bespoke scheme.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger whose level follows spec §6's verbosity
// counters: effective = max(verbose-quiet, 0). 0 is Info, 1+ is Debug;
// there is no "quieter than Info" tier since finalize/failure lines
// always print regardless of verbosity (spec §4.7).
func New(effectiveVerbosity int) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	level := zapcore.InfoLevel
	if effectiveVerbosity > 0 {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	log := zap.Must(cfg.Build())
	return log.Named("tox")
}
