package cmd

import (
	"testing"

	"eztools/eztool"

	"github.com/stretchr/testify/assert"
)

func TestToolEnvironment(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin",
		"HOME=/home/worker",
		"DOTNET_ROOT=/usr/share/dotnet",
		"NATS_PASSWORD=secret",
		"LANG=C.UTF-8",
		"PATHOLOGICAL=1",
	}
	assert.Equal(t,
		[]string{"PATH=/usr/bin", "HOME=/home/worker", "DOTNET_ROOT=/usr/share/dotnet", "LANG=C.UTF-8"},
		ToolEnvironment(environ),
	)
	assert.Empty(t, ToolEnvironment(nil))
}

func TestToolEnvironment_NoMatchesHidesWorkerEnvironment(t *testing.T) {
	env := ToolEnvironment([]string{"SECRET_TOKEN=x", "NATS_PASSWORD=y"})
	assert.NotNil(t, env)
	assert.Empty(t, env)
}

func TestTaskMsg_Request(t *testing.T) {
	msg := &TaskMsg{
		Tool:       "lecmd",
		PipeResult: "ignored",
		WorkflowId: "wf",
		TaskConfig: map[string]string{"output_format": "json"},
	}
	inputs := []eztool.InputFile{{Path: "/tmp/a.lnk", DisplayName: "a.lnk"}}
	assert.Equal(t, eztool.Request{
		InputFiles: inputs,
		OutputPath: "/tmp/out",
		WorkflowId: "wf",
		TaskConfig: map[string]string{"output_format": "json"},
	}, msg.Request(inputs, "/tmp/out"))
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, "enqueued", Enqueued.ToString())
	assert.Equal(t, "processing", Processing.ToString())
	assert.Equal(t, "finished", Finished.ToString())
	assert.Equal(t, "failed", Failed.ToString())
	assert.Equal(t, "", RunStatus(42).ToString())

	assert.False(t, Processing.Done())
	assert.True(t, Finished.Done())
	assert.True(t, Failed.Done())
}
