package eztool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps draining output after the tool was killed,
// e.g. when a grandchild still holds the pipes.
const waitDelay = 2 * time.Second

type ProcessResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Executor runs a fully assembled command line. A non-zero exit code is reported
// in the result, not as an error.
type Executor interface {
	Run(ctx context.Context, argv []string) (*ProcessResult, error)
}

// CommandExecutor runs tools as local subprocesses with both streams buffered in memory.
type CommandExecutor struct {
	Env []string // nil inherits the worker environment
	Dir string
}

func (e *CommandExecutor) Run(ctx context.Context, argv []string) (*ProcessResult, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	subProc := exec.CommandContext(ctx, argv[0], argv[1:]...)
	subProc.Stdin = nil
	subProc.Env = e.Env
	subProc.Dir = e.Dir
	stdout := new(bytes.Buffer)
	subProc.Stdout = stdout
	stderr := new(bytes.Buffer)
	subProc.Stderr = stderr
	subProc.WaitDelay = waitDelay

	if err := subProc.Start(); err != nil {
		if isMissingExecutable(err, argv[0]) {
			return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, argv[0], err)
		}
		return nil, err
	}

	result := &ProcessResult{}
	err := subProc.Wait()
	// a killed tool is not a tool failure
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return nil, err
		}
		result.ExitCode = exitError.ExitCode()
	}
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	return result, nil
}

// isMissingExecutable is true only when the executable itself is missing, not e.g. Dir.
func isMissingExecutable(err error, executable string) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) && pathErr.Path == executable && errors.Is(pathErr.Err, fs.ErrNotExist)
}
