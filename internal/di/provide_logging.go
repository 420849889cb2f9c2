package di

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime
// environment. A terminal gets the console format with pretty printing;
// anything else (pipes, service managers) gets JSON. AZUREAD_LOG_FORMAT=json
// forces JSON regardless.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("AZUREAD_LOG_FORMAT") == "json" || !isatty.IsTerminal(os.Stdout.Fd()) {
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
