package eztool

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

type Request struct {
	PipeResult string
	InputFiles []InputFile
	OutputPath string
	WorkflowId string
	TaskConfig map[string]string
}

// Runner runs one tool over every input file of a request, one file at a time.
type Runner struct {
	Spec     *ToolSpec
	Executor Executor
	Sink     OutputSink
	TempRoot string
	Logger   zerolog.Logger
	Readable func(path string) error // nil uses access(2)
}

func NewRunner(spec *ToolSpec, logger zerolog.Logger) *Runner {
	return &Runner{
		Spec:     spec,
		Executor: &CommandExecutor{},
		Sink:     LocalOutputSink{},
		Logger:   logger,
	}
}

func (r *Runner) Run(ctx context.Context, req Request) (*TaskResult, error) {
	inputFiles, err := GetInputFiles(req.PipeResult, req.InputFiles)
	if err != nil {
		return nil, err
	}
	if len(inputFiles) == 0 {
		return nil, fmt.Errorf("%w to %s", ErrNoInputFiles, r.Spec.DisplayName)
	}

	cfg := NewRunConfig(r.Spec, req.TaskConfig)
	command := ReportingCommand(r.Spec, cfg)
	logger := r.Logger.With().Str("workflow", req.WorkflowId).Str("format", cfg.Format).Logger()

	processor := &Processor{
		Spec:       r.Spec,
		Executor:   r.Executor,
		Sink:       r.Sink,
		OutputPath: req.OutputPath,
		TempRoot:   r.TempRoot,
		Logger:     logger,
		Readable:   r.Readable,
	}

	outputFiles := make([]OutputFile, 0, len(inputFiles))
	for _, input := range inputFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := processor.Process(ctx, input, cfg)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			logger.Error().Err(err).Str("input", input.Path).Msg("Unexpected error processing file")
			continue
		}
		if outcome.Kind == OutcomeSoftFailure {
			logger.Warn().Str("input", input.Path).Msg("Tool output replaced by diagnostic")
		}
		outputFiles = append(outputFiles, *outcome.File)
	}

	if len(outputFiles) == 0 {
		return nil, fmt.Errorf("%w by %s", ErrNoOutputProduced, r.Spec.DisplayName)
	}

	return &TaskResult{
		OutputFiles: outputFiles,
		WorkflowId:  req.WorkflowId,
		Command:     command,
		Meta:        map[string]any{},
	}, nil
}
