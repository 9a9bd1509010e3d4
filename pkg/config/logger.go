// Package config holds process level configuration helpers shared by the
// service commands.
package config

import (
	"log/slog"
	"os"
)

// DefaultLogger returns the JSON logger every component of the service
// logs through. Verbose enables debug level records.
func DefaultLogger(verbose bool) *slog.Logger {
	handlerOptions := slog.HandlerOptions{}
	if verbose {
		handlerOptions.Level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &handlerOptions)
	return slog.New(handler)
}
