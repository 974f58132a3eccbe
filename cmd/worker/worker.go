package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	fetchTimeout    = time.Minute
	maxErrorsInARow = 10
)

type worker struct {
	sub        common.PullSubscriber[cmd.TaskMsg]
	osb        nats.ObjectStore
	kvb        common.KeyValueBucket[cmd.RunResult]
	registry   map[string]*eztool.Task
	executor   eztool.Executor
	tempRoot   string
	ackWait    time.Duration
	logger     zerolog.Logger
	serializer common.Serializer[eztool.TaskResult]
}

func (w *worker) loop(ctx context.Context) {
	errorCount := 0
	for ctx.Err() == nil {
		err := w.step(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			errorCount = 0
			continue
		}
		if errors.Is(err, context.DeadlineExceeded) {
			w.logger.Debug().Msg("No tasks")
			errorCount = 0
			continue
		}
		common.HandleErrLog(err, w.logger)
		errorCount++
		if errorCount == maxErrorsInARow {
			w.logger.Fatal().Msgf("%d errors in a row, there must be something wrong", maxErrorsInARow)
		}
	}
}

// step fetches and handles at most one task.
func (w *worker) step(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	msgs, err := w.sub.Fetch(1, fetchCtx)
	for _, msg := range msgs {
		if handleErr := w.handleMessage(ctx, msg); handleErr != nil {
			err = errors.Join(err, handleErr)
		}
	}
	return err
}

func (w *worker) handleMessage(ctx context.Context, msg common.Message[cmd.TaskMsg]) error {
	content := msg.Content()
	logger := w.logger.With().Str("task", content.KVId).Str("tool", content.Tool).Logger()
	logger.Info().Str("workflow", content.WorkflowId).Msg("Received task")

	stopKeepAlive := w.keepAlive(ctx, msg, logger)
	defer stopKeepAlive()

	err := changeStatusToProcessing(w.kvb, content)
	common.HandleErrLog(err, logger)
	notify(ctx, content.NotificationUrl, content.KVId, cmd.Processing, logger)

	result, runErr := w.process(ctx, content, logger)
	if ctx.Err() != nil {
		// interrupted, not failed: leave it to another worker
		logger.Warn().Err(runErr).Msg("Task interrupted, returning it to the queue")
		return msg.NAck()
	}
	if runErr != nil {
		logger.Error().Err(runErr).Msg("Task failed")
	}

	status, err := finishTask(w.osb, w.kvb, content, result, runErr, w.serializer)
	if err != nil {
		return errors.Join(err, msg.NAck())
	}
	notify(ctx, content.NotificationUrl, content.KVId, status, logger)
	return msg.Ack()
}

// process runs the tool inside a private directory that is removed afterwards.
func (w *worker) process(ctx context.Context, content *cmd.TaskMsg, logger zerolog.Logger) (*eztool.TaskResult, error) {
	task, ok := w.registry[content.Tool]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", content.Tool)
	}

	var cleanup common.Cleanup
	defer cleanup.Do()

	taskDir, err := os.MkdirTemp(w.tempRoot, "eztools_task_")
	if err != nil {
		return nil, err
	}
	cleanup.AddAction(func() {
		if err := os.RemoveAll(taskDir); err != nil {
			logger.Warn().Err(err).Str("dir", taskDir).Msg("Failed to remove task directory")
		}
	})

	inputFiles, err := eztool.GetInputFiles(content.PipeResult, content.InputFiles)
	if err != nil {
		return nil, err
	}
	inputFiles, err = fetchFiles(w.osb, inputFiles, filepath.Join(taskDir, "input"))
	if err != nil {
		return nil, fmt.Errorf("download input files: %w", err)
	}

	runner := &eztool.Runner{
		Spec:     task.Spec,
		Executor: w.executor,
		Sink:     eztool.LocalOutputSink{},
		TempRoot: taskDir,
		Logger:   logger,
	}
	result, err := runner.Run(ctx, content.Request(inputFiles, filepath.Join(taskDir, "output")))
	if err != nil {
		return nil, err
	}

	if err = uploadOutputFiles(w.osb, result.OutputFiles); err != nil {
		return nil, fmt.Errorf("upload output files: %w", err)
	}
	return result, nil
}

// keepAlive tells JetStream the task is still in progress until the returned func is called.
func (w *worker) keepAlive(ctx context.Context, msg common.Message[cmd.TaskMsg], logger zerolog.Logger) func() {
	if w.ackWait <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.ackWait / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				common.HandleErrLog(msg.AckInProgress(), logger)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
