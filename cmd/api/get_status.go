package main

import (
	"errors"
	"net/http"

	"eztools/cmd"
	"eztools/common"
	"eztools/eztool"
	nats2 "eztools/nats"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
)

func (c *connection) getStatus(id string) (*cmd.StatusReport, error) {
	entry, err := c.resultKvb.Get(id)
	if err != nil {
		return nil, err
	}
	run := entry.Value()
	report := &cmd.StatusReport{
		Status: run.Status.ToString(),
		Error:  run.Error,
	}
	if run.Status != cmd.Finished {
		return report, nil
	}
	result, err := nats2.TypedRobustGetObject[eztool.TaskResult](c.osb, run.ToolResultId, &common.JsonSerializer[eztool.TaskResult]{})
	if err != nil {
		return nil, err
	}
	report.Result = result
	report.PipeResult, err = result.Encode()
	return report, err
}

func (c *connection) handleGetStatus(resp http.ResponseWriter, req *http.Request) {
	report, err := c.getStatus(mux.Vars(req)["id"])
	switch {
	case errors.Is(err, nats.ErrKeyNotFound), errors.Is(err, nats.ErrInvalidKey):
		c.returnErrorStr(resp, http.StatusNotFound, "task id not found")
	case err != nil:
		c.returnErrorStr(resp, http.StatusInternalServerError, "error: "+err.Error())
	default:
		c.writeJson(resp, http.StatusOK, report)
	}
}
