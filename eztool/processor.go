package eztool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"eztools/common"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const logPreviewSize = 1000

type OutcomeKind uint8

const (
	OutcomeOK OutcomeKind = iota
	// OutcomeSoftFailure means the artifact holds diagnostic text instead of tool output.
	OutcomeSoftFailure
)

func (k OutcomeKind) String() string {
	if k == OutcomeSoftFailure {
		return "soft-failure"
	}
	return "ok"
}

type Outcome struct {
	Kind       OutcomeKind
	File       *OutputFile
	Diagnostic string
}

// Processor runs one tool against one input file at a time.
type Processor struct {
	Spec       *ToolSpec
	Executor   Executor
	Sink       OutputSink
	OutputPath string
	TempRoot   string // "" uses the OS temp dir
	Logger     zerolog.Logger
	// Readable checks read access to an input; nil uses access(2).
	Readable func(path string) error
}

func accessReadable(path string) error {
	return unix.Access(path, unix.R_OK)
}

func validateInput(input InputFile, tool string, readable func(string) error) error {
	if input.Path == "" {
		return fmt.Errorf("%w: %s for %s", ErrInvalidInput, input.DisplayName, tool)
	}
	if _, err := os.Stat(input.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s could not find %s", ErrInputNotFound, tool, input.Path)
		}
		return err
	}
	if readable == nil {
		readable = accessReadable
	}
	if err := readable(input.Path); err != nil {
		return fmt.Errorf("%w: %s cannot read %s: %v", ErrInputNotReadable, tool, input.Path, err)
	}
	return nil
}

// checkInstallation catches missing path-like parts of the base command, e.g. the
// tool DLL handed to dotnet, which the runtime would only report on stdout.
func (p *Processor) checkInstallation() error {
	for _, part := range p.Spec.Executable[1:] {
		if !strings.ContainsRune(part, filepath.Separator) {
			continue
		}
		if _, err := os.Stat(part); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s; ensure .NET is installed and DLL paths are correct", ErrToolNotFound, part)
		}
	}
	return nil
}

func preview(data []byte) string {
	if len(data) > logPreviewSize {
		return string(data[:logPreviewSize]) + "..."
	}
	return string(data)
}

func (p *Processor) Process(ctx context.Context, input InputFile, cfg RunConfig) (Outcome, error) {
	displayName := input.DisplayName
	if displayName == "" {
		displayName = "unknown_file"
	}
	logger := p.Logger.With().Str("tool", p.Spec.DisplayName).Str("input", input.Path).Logger()

	if err := validateInput(input, p.Spec.DisplayName, p.Readable); err != nil {
		return Outcome{}, err
	}
	if err := p.checkInstallation(); err != nil {
		return Outcome{}, err
	}

	outputFile, err := p.Sink.CreateOutputFile(
		p.OutputPath,
		p.Spec.DisplayName+"_output_for_"+displayName,
		cfg.Extension,
		cfg.DataType,
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("create output file: %w", err)
	}
	// the artifact is removed again unless the invocation gets as far as writing it
	var discardOutput common.Cleanup
	defer discardOutput.Do()
	discardOutput.AddAction(func() {
		if err := os.Remove(outputFile.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Debug().Err(err).Str("file", outputFile.Path).Msg("Failed to remove unused output file")
		}
	})

	var cleanup common.Cleanup
	defer cleanup.Do()

	location, err := ResolveOutputLocation(p.TempRoot, cfg.Format, p.Spec, cfg.UserArgs, input.Path, logger)
	if err != nil {
		return Outcome{}, fmt.Errorf("prepare output location: %w", err)
	}
	if location != nil {
		workspace := location.Workspace
		cleanup.AddAction(func() {
			logger.Debug().Str("workspace", workspace).Msg("Cleaning up temporary directory")
			if err := os.RemoveAll(workspace); err != nil {
				logger.Debug().Err(err).Str("workspace", workspace).Msg("Failed to remove temporary directory")
			}
		})
	}

	command := make([]string, 0, len(p.Spec.Executable)+2+len(cfg.UserArgs)+2)
	command = append(command, p.Spec.Executable...)
	command = append(command, p.Spec.FileArgFlag, input.Path)
	command = append(command, cfg.UserArgs...)
	if location != nil {
		command = append(command, location.Args...)
	}
	logger.Info().Str("command", strings.Join(command, " ")).Msg("Executing command")

	result, err := p.Executor.Run(ctx, command)
	if err != nil {
		return Outcome{}, err
	}
	if len(result.Stdout) != 0 {
		logger.Debug().Str("stdout", preview(result.Stdout)).Msg("Tool stdout")
	}
	if len(result.Stderr) != 0 {
		logger.Debug().Str("stderr", preview(result.Stderr)).Msg("Tool stderr")
	}

	var outcome Outcome
	var content []byte
	if location != nil {
		content, outcome, err = p.harvest(location, command, result, logger)
		if err != nil {
			return Outcome{}, err
		}
	} else if result.ExitCode != 0 {
		execErr := &ToolExecutionError{
			Tool:     p.Spec.DisplayName,
			Input:    input.Path,
			Command:  command,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
		logger.Error().Int("exit_code", result.ExitCode).Msg(execErr.Error())
		content = []byte(execErr.Error())
		outcome = Outcome{Kind: OutcomeSoftFailure, Diagnostic: execErr.Error()}
	} else {
		content = result.Stdout
	}

	if err := os.WriteFile(outputFile.Path, content, 0o644); err != nil {
		return Outcome{}, fmt.Errorf("write output file: %w", err)
	}
	discardOutput.Discard()
	outcome.File = outputFile
	return outcome, nil
}

// harvest picks the generated file out of the workspace. A missing file is a soft
// failure, not an error.
func (p *Processor) harvest(
	location *OutputLocation,
	command []string,
	result *ProcessResult,
	logger zerolog.Logger,
) ([]byte, Outcome, error) {
	if result.ExitCode != 0 {
		logger.Warn().Int("exit_code", result.ExitCode).
			Msgf("%s exited with code %d when attempting to generate '%s' file.",
				p.Spec.DisplayName, result.ExitCode, location.Format)
	}

	matches, err := location.Matches()
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("search generated output: %w", err)
	}

	if len(matches) == 0 {
		diagnostic := fmt.Sprintf("Error: %s did not produce the expected '%s' file (pattern: '%s') in %s.\n"+
			"Command: '%s'.\nReturn code: %d\nStdout: %s\nStderr: %s",
			p.Spec.DisplayName, location.Format, location.Pattern, location.Workspace,
			strings.Join(command, " "), result.ExitCode, result.Stdout, result.Stderr)
		logger.Error().Msg(diagnostic)
		content := result.Stderr
		if len(content) == 0 {
			content = []byte(diagnostic)
		}
		return content, Outcome{Kind: OutcomeSoftFailure, Diagnostic: diagnostic}, nil
	}

	chosen := matches[0]
	if len(matches) > 1 {
		chosen, err = newest(matches)
		if err != nil {
			return nil, Outcome{}, err
		}
		logger.Warn().Int("matches", len(matches)).Str("chosen", chosen).
			Msgf("Multiple files matched pattern '%s'. Using the newest: %s", location.Pattern, chosen)
	}

	content, err := os.ReadFile(chosen)
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("read generated output: %w", err)
	}
	return content, Outcome{Kind: OutcomeOK}, nil
}

// newest returns the most recently modified path; equal times keep path order.
func newest(paths []string) (string, error) {
	type candidate struct {
		path  string
		mtime time.Time
	}
	candidates := make([]candidate, len(paths))
	for i, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		candidates[i] = candidate{path, info.ModTime()}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].mtime.Equal(candidates[j].mtime) {
			return candidates[i].path < candidates[j].path
		}
		return candidates[i].mtime.After(candidates[j].mtime)
	})
	return candidates[0].path, nil
}
