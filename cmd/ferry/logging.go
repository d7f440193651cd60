// Logger construction for the ferry CLI.
package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. --verbose forces debug level and a
// development-friendly console encoding; otherwise the configured level
// applies with production JSON output.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
