package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide slog.Logger. Production runs emit JSON;
// anything else gets the text handler for readable local output. Every line
// carries the service name and environment so log aggregation can tell the
// API and the worker apart.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler).With(slog.String("service", "fuelbook"))
	if cfg != nil {
		logger = logger.With(slog.String("env", cfg.AppEnv))
	}
	return logger
}
