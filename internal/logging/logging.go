package logging

import (
	"io"
	"time"

	"giftgroup-onboarding/internal/config"

	"github.com/rs/zerolog"
)

// New builds the root logger. Components add their own "component" field.
func New(w io.Writer, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
