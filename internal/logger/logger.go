package logger

import (
	"io"
	"log/slog"
	"os"
)

// InitLogger initializes and configures the application logger based on environment
// and sets it as the default. Output goes to stdout.
func InitLogger(environment string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, environment, jsonOutput)

	// Set as default logger so it can be used throughout the application
	slog.SetDefault(logger)

	return logger
}

// New builds a logger writing to w without touching the default logger.
// The CLI uses it to keep diagnostics on stderr.
func New(w io.Writer, environment string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	// In development, use more verbose logging
	if environment == "development" {
		opts.Level = slog.LevelDebug
		opts.AddSource = true // Include source file and line number
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// JSONPreferred resolves LOG_JSON: explicit "true"/"false" wins, otherwise
// JSON everywhere except development.
func JSONPreferred(environment, logJSONEnv string) bool {
	if logJSONEnv != "" {
		return logJSONEnv == "true"
	}
	return environment != "development"
}
