package eztool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, spec *ToolSpec) *Runner {
	t.Helper()
	logger, _ := bufferLogger()
	runner := NewRunner(spec, logger)
	runner.TempRoot = t.TempDir()
	return runner
}

func TestRunner_LECmdCsvScenario(t *testing.T) {
	spec := fakeToolSpec(t, LECmd("", ""), "printf 'header\\nrow1' > \"$out/20240101000000_LECmd_Output.csv\"\n")
	runner := newTestRunner(t, spec)
	input := writeInput(t, t.TempDir(), "Recent.lnk")

	result, err := runner.Run(context.Background(), Request{
		InputFiles: []InputFile{input},
		OutputPath: t.TempDir(),
		WorkflowId: "wf-1",
		TaskConfig: map[string]string{"output_format": "csv"},
	})
	require.NoError(t, err)

	require.Len(t, result.OutputFiles, 1)
	data, err := os.ReadFile(result.OutputFiles[0].Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("header\nrow1"), data)
	assert.Equal(t, "wf-1", result.WorkflowId)
	assert.Equal(t, "LECmd.exe -f <input_file_path> --csv <worker_temp_dir_or_file>", result.Command)
	assert.Empty(t, result.Meta)
	assert.Empty(t, dirEntries(t, runner.TempRoot))
}

func TestRunner_StdoutFailureStillYieldsArtifact(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), `case "$input" in
  *broken*) echo 'bad header' >&2; exit 1 ;;
  *) printf 'ok' ;;
esac
`)
	runner := newTestRunner(t, spec)
	dir := t.TempDir()
	broken := writeInput(t, dir, "broken.bin")
	valid := writeInput(t, dir, "valid.bin")

	result, err := runner.Run(context.Background(), Request{
		InputFiles: []InputFile{broken},
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, result.OutputFiles, 1)
	data, err := os.ReadFile(result.OutputFiles[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Stderr: bad header")

	result, err = runner.Run(context.Background(), Request{
		InputFiles: []InputFile{broken, valid},
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, result.OutputFiles, 2)
	data, err = os.ReadFile(result.OutputFiles[1].Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}

func TestRunner_MissingInputAbortsBatch(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), "printf ok\n")
	runner := newTestRunner(t, spec)
	dir := t.TempDir()
	valid := writeInput(t, dir, "valid.bin")
	missing := InputFile{Path: filepath.Join(dir, "missing.bin"), DisplayName: "missing.bin"}

	for name, inputs := range map[string][]InputFile{
		"single":        {missing},
		"missing-last":  {valid, missing},
		"missing-first": {missing, valid},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := runner.Run(context.Background(), Request{InputFiles: inputs, OutputPath: t.TempDir()})
			assert.ErrorIs(t, err, ErrInputNotFound)
			assert.Nil(t, result)
		})
	}
}

func TestRunner_UnreadableInputAbortsBatch(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), "printf ok\n")
	runner := newTestRunner(t, spec)
	runner.Readable = func(path string) error {
		if strings.Contains(path, "locked") {
			return os.ErrPermission
		}
		return nil
	}
	dir := t.TempDir()
	valid := writeInput(t, dir, "valid.bin")
	locked := writeInput(t, dir, "locked.bin")

	for name, inputs := range map[string][]InputFile{
		"single":       {locked},
		"locked-last":  {valid, locked},
		"locked-first": {locked, valid},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := runner.Run(context.Background(), Request{InputFiles: inputs, OutputPath: t.TempDir()})
			assert.ErrorIs(t, err, ErrInputNotReadable)
			assert.Nil(t, result)
		})
	}
}

func TestRunner_CancelStopsBatch(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), "sleep 5\nprintf late\n")
	runner := newTestRunner(t, spec)
	dir := t.TempDir()
	output := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	start := time.Now()
	result, err := runner.Run(ctx, Request{
		InputFiles: []InputFile{writeInput(t, dir, "a.bin"), writeInput(t, dir, "b.bin")},
		OutputPath: output,
	})
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Nil(t, result)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Empty(t, dirEntries(t, output), "no artifact for a killed run")
	assert.Empty(t, dirEntries(t, runner.TempRoot))

	_, err = runner.Run(ctx, Request{InputFiles: []InputFile{writeInput(t, dir, "c.bin")}, OutputPath: output})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ToolNotFoundAbortsBatch(t *testing.T) {
	spec := RBCmd("/bin/sh", filepath.Join(t.TempDir(), "RBCmd.dll"))
	runner := newTestRunner(t, spec)
	dir := t.TempDir()

	_, err := runner.Run(context.Background(), Request{
		InputFiles: []InputFile{writeInput(t, dir, "a.bin"), writeInput(t, dir, "b.bin")},
		OutputPath: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRunner_UnexpectedErrorSkipsFile(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), "printf ok\n")
	runner := newTestRunner(t, spec)
	runner.Sink = failingSink{failFor: "cursed"}
	dir := t.TempDir()

	result, err := runner.Run(context.Background(), Request{
		InputFiles: []InputFile{writeInput(t, dir, "cursed.bin"), writeInput(t, dir, "fine.bin")},
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, result.OutputFiles, 1)
	assert.True(t, strings.Contains(result.OutputFiles[0].DisplayName, "fine.bin"))

	_, err = runner.Run(context.Background(), Request{
		InputFiles: []InputFile{writeInput(t, dir, "cursed2.bin")},
		OutputPath: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrNoOutputProduced)
}

func TestRunner_NoInputFiles(t *testing.T) {
	runner := newTestRunner(t, RBCmd("", ""))
	_, err := runner.Run(context.Background(), Request{OutputPath: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestRunner_PipeResultTakesPrecedence(t *testing.T) {
	spec := fakeToolSpec(t, RBCmd("", ""), "printf \"%s\" \"$(basename \"$input\")\"\n")
	runner := newTestRunner(t, spec)
	dir := t.TempDir()
	piped := writeInput(t, dir, "piped.bin")
	explicit := writeInput(t, dir, "explicit.bin")

	previous := &TaskResult{OutputFiles: []OutputFile{{Path: piped.Path, DisplayName: piped.DisplayName}}}
	encoded, err := previous.Encode()
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), Request{
		PipeResult: encoded,
		InputFiles: []InputFile{explicit},
		OutputPath: t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, result.OutputFiles, 1)
	data, err := os.ReadFile(result.OutputFiles[0].Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("piped.bin"), data)
}

func TestRunner_UserArgumentsPassedThrough(t *testing.T) {
	spec := fakeToolSpec(t, LECmd("", ""), "true\n")
	executor := &fakeExecutor{run: func(argv []string) (*ProcessResult, error) {
		return &ProcessResult{Stdout: []byte("x")}, nil
	}}
	runner := newTestRunner(t, spec)
	runner.Executor = executor
	input := writeInput(t, t.TempDir(), "a.lnk")

	result, err := runner.Run(context.Background(), Request{
		InputFiles: []InputFile{input},
		OutputPath: t.TempDir(),
		TaskConfig: map[string]string{"lecmd_arguments": " -q   --all ", "output_file_extension": "log"},
	})
	require.NoError(t, err)

	require.Len(t, executor.calls, 1)
	expected := append(append([]string{}, spec.Executable...), "-f", input.Path, "-q", "--all")
	assert.Equal(t, expected, executor.calls[0])
	assert.Equal(t, "log", result.OutputFiles[0].Extension)
	assert.Equal(t, "LECmd.exe -f <input_file_path>  -q   --all ", result.Command)
}
