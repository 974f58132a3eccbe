package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (c *connection) RequireKnownTool(handler func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(resp http.ResponseWriter, req *http.Request) {
		tool := mux.Vars(req)["tool"]
		if _, ok := c.registry[tool]; !ok {
			c.returnErrorStr(resp, http.StatusNotFound, fmt.Sprintf("unknown tool %q", tool))
			return
		}
		handler(resp, req)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (c *connection) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: resp, status: http.StatusOK}
		next.ServeHTTP(recorder, req)
		c.logger.Debug().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", recorder.status).
			Dur("took", time.Since(start)).
			Msg("Handled request")
	})
}
