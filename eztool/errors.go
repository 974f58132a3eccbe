package eztool

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid or missing input file path")
	ErrInputNotFound    = errors.New("input file not found")
	ErrInputNotReadable = errors.New("input file not readable")
	ErrToolNotFound     = errors.New("tool executable or dependency not found")
	ErrNoInputFiles     = errors.New("no input files provided")
	ErrNoOutputProduced = errors.New("no output files were generated")
	ErrUnknownFormat    = errors.New("unsupported output format")
)

// IsFatal reports whether err must abort the whole batch instead of skipping one file.
// Input validation failures are fatal together with a missing tool and cancellation.
func IsFatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrToolNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInputNotFound) ||
		errors.Is(err, ErrInputNotReadable)
}

// ToolExecutionError is a non-zero exit while the tool output is taken from stdout.
type ToolExecutionError struct {
	Tool     string
	Input    string
	Command  []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("Error running %s on %s.\nCommand: '%s'.\nReturn code: %d\nStdout: %s\nStderr: %s",
		e.Tool, e.Input, strings.Join(e.Command, " "), e.ExitCode, e.Stdout, e.Stderr)
}
