package cmd

import "eztools/eztool"

type RunStatus uint8

const (
	Enqueued RunStatus = iota
	Processing
	Finished
	Failed
)

func (s RunStatus) ToString() string {
	switch s {
	case Enqueued:
		return "enqueued"
	case Processing:
		return "processing"
	case Finished:
		return "finished"
	case Failed:
		return "failed"
	}
	return ""
}

func (s RunStatus) Done() bool {
	return s == Finished || s == Failed
}

// RunResult is the key-value entry tracking one task.
type RunResult struct {
	Status       RunStatus `json:"status"`
	Tool         string    `json:"tool,omitempty"`
	WorkflowId   string    `json:"workflow-id,omitempty"`
	ToolResultId string    `json:"result-id,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// StatusReport is what the API returns for a task.
type StatusReport struct {
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Result     *eztool.TaskResult `json:"result,omitempty"`
	PipeResult string             `json:"pipe-result,omitempty"`
}
