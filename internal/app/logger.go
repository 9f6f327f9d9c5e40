package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

// NewLogger returns the service logger. Development builds get concise
// text output; other environments log JSON.
func NewLogger(cfg *config.Config, w io.Writer) *httplog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	return httplog.NewLogger("shortlink", httplog.Options{
		JSON:            cfg.Env != config.EnvDev,
		LogLevel:        level,
		Concise:         cfg.Env == config.EnvDev,
		RequestHeaders:  cfg.Env == config.EnvDev,
		QuietDownRoutes: []string{"/health"},
		QuietDownPeriod: 10 * time.Second,
		Writer:          w,
	})
}
