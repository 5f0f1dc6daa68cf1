package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const EnvLocal = "local"

// NewLogger writes human readable output for local runs and JSON elsewhere
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	w := out
	if env == EnvLocal {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("env", env).Logger()
}
