package cliconfig

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/paintwatch/pkg/log"
)

var logger = log.NewConsoleLogger(os.Stderr, zerolog.InfoLevel)

// Logger returns the CLI logger.
func Logger() zerolog.Logger {
	return logger
}

// SetLogLevel adjusts the CLI logger. Unknown levels are rejected.
func SetLogLevel(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return invalid("log-level: %v", err)
	}
	logger = logger.Level(l)
	return nil
}
