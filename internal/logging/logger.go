// Package logging builds the logr loggers used across contactdyn. Solvers
// take a logr.Logger and stay silent with logr.Discard(); the CLI and tests
// hand them a zap-backed logger.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Verbosity levels passed to logger.V.
const (
	DEFAULT = 2
	VERBOSE = 3
	DEBUG   = 4
	TRACE   = 5
)

// New returns a console logger that emits V(n) records for n <= verbosity.
func New(verbosity int) (logr.Logger, error) {
	cfg := uberzap.NewDevelopmentConfig()
	cfg.Level = uberzap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewTestLogger creates a Zap logger at TRACE that writes through t, so
// output only shows for failing tests.
func NewTestLogger(t zaptest.TestingT) logr.Logger {
	return zapr.NewLogger(zaptest.NewLogger(t,
		zaptest.Level(zapcore.Level(-TRACE)),
		zaptest.WrapOptions(uberzap.AddCaller()),
	))
}

// Discard returns a logger that drops every record.
func Discard() logr.Logger {
	return logr.Discard()
}
