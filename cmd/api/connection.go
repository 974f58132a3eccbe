package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type connection struct {
	publisher      common.Publisher[cmd.TaskMsg]
	resultKvb      common.KeyValueBucket[cmd.RunResult]
	osb            nats.ObjectStore
	registry       map[string]*eztool.Task
	consumerConfig cmd.ConsumerConfig
	logger         zerolog.Logger
}

func (c *connection) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(c.logRequests)
	r.HandleFunc("/tasks", c.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{tool}", c.RequireKnownTool(c.handleSubmit)).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{tool}/run", c.RequireKnownTool(c.handleRun)).Methods(http.MethodPost)
	r.HandleFunc("/status/{id}", c.handleGetStatus).Methods(http.MethodGet)
	r.HandleFunc("/artifacts/{id}", c.handleDownloadArtifact).Methods(http.MethodGet)
	return r
}

func (c *connection) returnErrorStr(
	resp http.ResponseWriter,
	status int,
	errMsg string,
) {
	if status == http.StatusInternalServerError {
		c.logger.Error().Msg(errMsg)
	}
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	_, err := resp.Write(CreateErrResponse(errMsg))
	common.HandleErrLog(err, c.logger)
}

func (c *connection) writeJson(resp http.ResponseWriter, status int, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.returnErrorStr(resp, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Header().Set("Content-Type", "application/json")
	resp.WriteHeader(status)
	_, err = resp.Write(data)
	common.HandleErrLog(err, c.logger)
}

// enqueue records the task as enqueued and publishes it to the tool's subject.
func (c *connection) enqueue(tool string, msg *cmd.TaskMsg) (string, error) {
	id := common.GetRandomId()
	msg.Tool = tool
	msg.KVId = id
	_, err := c.resultKvb.Create(id, &cmd.RunResult{
		Status:     cmd.Enqueued,
		Tool:       tool,
		WorkflowId: msg.WorkflowId,
	})
	if err != nil {
		return "", err
	}
	err = c.publisher.PublishSync(c.consumerConfig.TasksSubject(tool), msg)
	if err != nil {
		_, _, casErr := c.resultKvb.CAS(
			id,
			func(cur *cmd.RunResult) (bool, error) { return cur.Status != cmd.Enqueued, nil },
			func(cur *cmd.RunResult) error {
				cur.Status = cmd.Failed
				cur.Error = fmt.Sprintf("failed to enqueue: %v", err)
				return nil
			},
		)
		common.HandleErrLog(casErr, c.logger)
		return "", err
	}
	return id, nil
}
