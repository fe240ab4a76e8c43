package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger once at startup. Pretty output is for
// interactive runs; the default JSON form is for anything shipping logs
// onward.
func Init(level string, pretty bool) {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(os.Stderr).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "adexport").
		Logger()

	if pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	log.Logger = logger
}
