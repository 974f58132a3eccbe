package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"eztools/common"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
)

var errArtifactNotFound = errors.New("artifact not found")

func (c *connection) downloadArtifact(id string, file io.Writer, onSuccess func(size uint64)) error {
	or, err := c.osb.Get(id)
	if errors.Is(err, nats.ErrObjectNotFound) {
		return errArtifactNotFound
	}
	if err != nil {
		return err
	}
	defer or.Close()
	oi, err := or.Info()
	if err != nil {
		return err
	}
	onSuccess(oi.Size)
	_, err = io.Copy(file, or)
	return err
}

func (c *connection) handleDownloadArtifact(resp http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	written := false
	err := c.downloadArtifact(id, resp, func(size uint64) {
		written = true
		resp.Header().Set("Content-Type", "application/octet-stream")
		resp.Header().Set("Content-Length", strconv.FormatUint(size, 10))
		resp.WriteHeader(http.StatusOK)
	})
	switch {
	case err == nil:
	case written:
		// the body is already partially sent
		common.HandleErrLog(err, c.logger)
	case errors.Is(err, errArtifactNotFound):
		c.returnErrorStr(resp, http.StatusNotFound, err.Error())
	default:
		c.returnErrorStr(resp, http.StatusInternalServerError, err.Error())
	}
}
