package main

import (
	"encoding/json"
	"net/http"

	"eztools/cmd"
	"eztools/eztool"

	"github.com/gorilla/mux"
)

// runRequest starts a task on files already in the object store, typically the
// pipe-result of a previous task.
type runRequest struct {
	PipeResult      string             `json:"pipe-result,omitempty"`
	InputFiles      []eztool.InputFile `json:"input-files,omitempty"`
	WorkflowId      string             `json:"workflow-id,omitempty"`
	TaskConfig      map[string]string  `json:"task-config,omitempty"`
	NotificationUrl string             `json:"notification-url,omitempty"`
}

func (r *runRequest) check(spec *eztool.ToolSpec) (string, bool) {
	inputFiles, err := eztool.GetInputFiles(r.PipeResult, r.InputFiles)
	if err != nil {
		return "invalid pipe-result: " + err.Error(), false
	}
	if len(inputFiles) == 0 {
		return eztool.ErrNoInputFiles.Error(), false
	}
	for _, inputFile := range inputFiles {
		if inputFile.ObjectStoreId == "" {
			return "every input file needs an object_store_id", false
		}
	}
	if err = eztool.CheckTaskConfig(spec, r.TaskConfig); err != nil {
		return err.Error(), false
	}
	return "", true
}

func (c *connection) handleRun(resp http.ResponseWriter, req *http.Request) {
	tool := mux.Vars(req)["tool"]
	var body runRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		c.returnErrorStr(resp, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if msg, ok := body.check(c.registry[tool].Spec); !ok {
		c.returnErrorStr(resp, http.StatusBadRequest, msg)
		return
	}

	id, err := c.enqueue(tool, &cmd.TaskMsg{
		PipeResult:      body.PipeResult,
		InputFiles:      body.InputFiles,
		WorkflowId:      body.WorkflowId,
		TaskConfig:      body.TaskConfig,
		NotificationUrl: body.NotificationUrl,
	})
	if err != nil {
		c.returnErrorStr(resp, http.StatusInternalServerError, err.Error())
		return
	}
	type Response struct {
		RunId string `json:"id"`
	}
	c.writeJson(resp, http.StatusAccepted, &Response{RunId: id})
}
