package cmd

import (
	"os"
	"strings"

	"eztools/eztool"
)

// inheritedEnvPrefixes are the only parts of the worker environment a tool sees.
// dotnet needs its home and runtime settings on top of PATH.
var inheritedEnvPrefixes = [...]string{"PATH=", "HOME=", "DOTNET_", "TMPDIR=", "LANG=", "LC_ALL="}

// TaskMsg asks a worker to run Tool. Input files come from PipeResult when set,
// otherwise from InputFiles; both reference objects in the object store.
type TaskMsg struct {
	Tool            string             `json:"tool"`
	PipeResult      string             `json:"pipe-result,omitempty"`
	InputFiles      []eztool.InputFile `json:"input-files,omitempty"`
	WorkflowId      string             `json:"workflow-id"`
	TaskConfig      map[string]string  `json:"task-config,omitempty"`
	NotificationUrl string             `json:"notification-url,omitempty"`
	KVId            string             `json:"key-value-id"`
}

func (t *TaskMsg) Request(inputFiles []eztool.InputFile, outputPath string) eztool.Request {
	return eztool.Request{
		InputFiles: inputFiles,
		OutputPath: outputPath,
		WorkflowId: t.WorkflowId,
		TaskConfig: t.TaskConfig,
	}
}

// ToolEnvironment is never nil: a nil Env would hand the whole worker environment to the tool.
func ToolEnvironment(environ []string) []string {
	inherited := []string{}
	for _, e := range environ {
		for _, pref := range inheritedEnvPrefixes {
			if strings.HasPrefix(e, pref) {
				inherited = append(inherited, e)
				break
			}
		}
	}
	return inherited
}

func CreateEnv() []string {
	return ToolEnvironment(os.Environ())
}
