package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"
	nats2 "eztools/nats"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

const maxParallelUploads = 4

// fetchFiles downloads inputs stored in the object store below dir, keeping their
// display names since tools such as RBCmd recognise files by name. Inputs without
// an object id are expected to be present locally already.
func fetchFiles(osb nats.ObjectStore, inputFiles []eztool.InputFile, dir string) ([]eztool.InputFile, error) {
	ret := make([]eztool.InputFile, len(inputFiles))
	for i, input := range inputFiles {
		ret[i] = input
		if input.ObjectStoreId == "" {
			continue
		}
		fileDir := filepath.Join(dir, strconv.Itoa(i))
		if err := os.MkdirAll(fileDir, 0o755); err != nil {
			return nil, err
		}
		name := filepath.Base(input.DisplayName)
		if name == "." || name == string(filepath.Separator) {
			name = input.ObjectStoreId
		}
		path := filepath.Join(fileDir, name)
		if err := nats2.RobustGetObjectFile(osb, input.ObjectStoreId, path); err != nil {
			return nil, err
		}
		ret[i].Path = path
	}
	return ret, nil
}

func uploadOutputFiles(osb nats.ObjectStore, outputFiles []eztool.OutputFile) error {
	p := pool.New().WithErrors().WithMaxGoroutines(maxParallelUploads)
	for i := range outputFiles {
		of := &outputFiles[i]
		p.Go(func() error {
			info, err := nats2.RobustPutObjectFile(osb, of.Path, of.UUID)
			if err != nil {
				return err
			}
			of.ObjectStoreId = info.Name
			return nil
		})
	}
	return p.Wait()
}

func updateStatus(kvb common.KeyValueBucket[cmd.RunResult], key string, stop func(*cmd.RunResult) bool, alter func(*cmd.RunResult)) error {
	_, _, err := kvb.CAS(
		key,
		func(cur *cmd.RunResult) (bool, error) {
			return stop(cur), nil
		},
		func(cur *cmd.RunResult) error {
			alter(cur)
			return nil
		},
	)
	if errors.Is(err, nats.ErrKeyNotFound) {
		var value cmd.RunResult
		alter(&value)
		_, err = kvb.Create(key, &value)
	}
	return err
}

func changeStatusToProcessing(kvb common.KeyValueBucket[cmd.RunResult], msg *cmd.TaskMsg) error {
	return updateStatus(
		kvb,
		msg.KVId,
		func(cur *cmd.RunResult) bool {
			return cur.Status != cmd.Enqueued
		},
		func(cur *cmd.RunResult) {
			cur.Status = cmd.Processing
			cur.Tool = msg.Tool
			cur.WorkflowId = msg.WorkflowId
		},
	)
}

// finishTask stores the task result and records the final status.
func finishTask(
	osb nats.ObjectStore,
	kvb common.KeyValueBucket[cmd.RunResult],
	msg *cmd.TaskMsg,
	result *eztool.TaskResult,
	runErr error,
	serializer common.Serializer[eztool.TaskResult],
) (cmd.RunStatus, error) {
	final := cmd.RunResult{
		Status:     cmd.Finished,
		Tool:       msg.Tool,
		WorkflowId: msg.WorkflowId,
	}
	if runErr != nil {
		final.Status = cmd.Failed
		final.Error = runErr.Error()
	} else {
		object, err := nats2.TypedRobustPutObjectRandomName(osb, result, serializer)
		if err != nil {
			return cmd.Processing, err
		}
		final.ToolResultId = object.Name
	}
	err := updateStatus(
		kvb,
		msg.KVId,
		func(cur *cmd.RunResult) bool {
			return cur.Status.Done()
		},
		func(cur *cmd.RunResult) {
			*cur = final
		},
	)
	return final.Status, err
}

var notificationClient = &http.Client{Timeout: 10 * time.Second}

// notify posts the status change to the task's notification url, if any. Failures are only logged.
func notify(ctx context.Context, notificationUrl string, id string, status cmd.RunStatus, logger zerolog.Logger) {
	if notificationUrl == "" {
		return
	}
	body, err := json.Marshal(map[string]string{"id": id, "status": status.ToString()})
	if err != nil {
		common.HandleErrLog(err, logger)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notificationUrl, bytes.NewReader(body))
	if err != nil {
		common.HandleErrLog(err, logger)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := notificationClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("url", notificationUrl).Msg("Notification failed")
		return
	}
	_ = resp.Body.Close()
}
