package main

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"
	nats2 "eztools/nats"

	"github.com/gorilla/mux"
)

const (
	maxMemory     = 32 << 20
	maxUploadSize = 4 << 30

	fileField            = "file"
	workflowIdField      = "workflow_id"
	notificationUrlField = "notification_url"
)

func (c *connection) storeUpload(fh *multipart.FileHeader) (eztool.InputFile, error) {
	file, err := fh.Open()
	if err != nil {
		return eztool.InputFile{}, err
	}
	defer file.Close()
	oi, err := nats2.RobustPutObjectRandomName(c.osb, file)
	if err != nil {
		return eztool.InputFile{}, err
	}
	return eztool.InputFile{
		DisplayName:   filepath.Base(fh.Filename),
		ObjectStoreId: oi.Name,
	}, nil
}

// taskConfigFromForm turns every non-file form field, except the reserved ones, into task config.
func taskConfigFromForm(form *multipart.Form) map[string]string {
	taskConfig := make(map[string]string)
	for key, values := range form.Value {
		if key == workflowIdField || key == notificationUrlField || len(values) == 0 {
			continue
		}
		taskConfig[key] = values[0]
	}
	return taskConfig
}

type submitResponse struct {
	Id         string             `json:"id"`
	InputFiles []eztool.InputFile `json:"input-files"`
}

func (c *connection) handleSubmit(resp http.ResponseWriter, req *http.Request) {
	tool := mux.Vars(req)["tool"]
	req.Body = http.MaxBytesReader(resp, req.Body, maxUploadSize)
	if err := req.ParseMultipartForm(maxMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.returnErrorStr(resp, status, err.Error())
		return
	}
	defer func() {
		common.HandleErrLog(req.MultipartForm.RemoveAll(), c.logger)
	}()

	headers := req.MultipartForm.File[fileField]
	if len(headers) == 0 {
		c.returnErrorStr(resp, http.StatusBadRequest, "at least one file is required")
		return
	}
	taskConfig := taskConfigFromForm(req.MultipartForm)
	if err := eztool.CheckTaskConfig(c.registry[tool].Spec, taskConfig); err != nil {
		c.returnErrorStr(resp, http.StatusBadRequest, err.Error())
		return
	}

	inputFiles := make([]eztool.InputFile, 0, len(headers))
	for _, fh := range headers {
		inputFile, err := c.storeUpload(fh)
		if err != nil {
			c.returnErrorStr(resp, http.StatusInternalServerError, "Failed to store "+fh.Filename+": "+err.Error())
			return
		}
		inputFiles = append(inputFiles, inputFile)
	}

	id, err := c.enqueue(tool, &cmd.TaskMsg{
		InputFiles:      inputFiles,
		WorkflowId:      req.FormValue(workflowIdField),
		TaskConfig:      taskConfig,
		NotificationUrl: req.FormValue(notificationUrlField),
	})
	if err != nil {
		c.returnErrorStr(resp, http.StatusInternalServerError, "Failed to submit: "+err.Error())
		return
	}
	c.writeJson(resp, http.StatusAccepted, &submitResponse{Id: id, InputFiles: inputFiles})
}
