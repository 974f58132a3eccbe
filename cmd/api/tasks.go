package main

import (
	"net/http"

	"eztools/eztool"
)

func (c *connection) handleListTasks(resp http.ResponseWriter, _ *http.Request) {
	tasks := eztool.SortedTasks(c.registry)
	metadata := make([]eztool.TaskMetadata, 0, len(tasks))
	for _, task := range tasks {
		metadata = append(metadata, task.Metadata)
	}
	c.writeJson(resp, http.StatusOK, metadata)
}
