package common

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger on stderr. Unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
