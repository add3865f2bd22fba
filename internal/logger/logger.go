package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Setup initializes the global zerolog logger based on environment configuration.
//   - level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - format: "json" for machine-readable output, "pretty" for human-readable
//     output, "auto" to pick pretty only when stdout is a terminal
//
// Returns the configured logger instance.
func Setup(level, format string) zerolog.Logger {
	if format == "auto" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "pretty"
		} else {
			format = "json"
		}
	}

	var writer io.Writer
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	log := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()

	return log
}
