package common

import (
	"runtime/debug"

	"github.com/rs/zerolog"
)

func HandlePanic(err error) {
	if err == nil {
		return
	}
	panic(err)
}

func HandleErrLog(err error, logger zerolog.Logger) {
	if err == nil {
		return
	}
	logger.Error().Err(err).Str("stack", string(debug.Stack())).Msg("Encountered error")
}
