package eztool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls [][]string
	run   func(argv []string) (*ProcessResult, error)
}

func (f *fakeExecutor) Run(_ context.Context, argv []string) (*ProcessResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), argv...))
	f.mu.Unlock()
	return f.run(argv)
}

func argAfter(argv []string, flag string) string {
	for i := 0; i+1 < len(argv); i++ {
		if argv[i] == flag {
			return argv[i+1]
		}
	}
	return ""
}

type failingSink struct {
	failFor string
	inner   LocalOutputSink
}

func (s failingSink) CreateOutputFile(outputPath, displayName, extension, dataType string) (*OutputFile, error) {
	if s.failFor != "" && bytes.Contains([]byte(displayName), []byte(s.failFor)) {
		return nil, os.ErrClosed
	}
	return s.inner.CreateOutputFile(outputPath, displayName, extension, dataType)
}

func bufferLogger() (zerolog.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return zerolog.New(buf).Level(zerolog.DebugLevel), buf
}

// writeInput creates an evidence file in dir and returns its reference.
func writeInput(t *testing.T, dir, name string) InputFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("evidence"), 0o644))
	return InputFile{Path: path, DisplayName: name}
}

// fakeToolSpec wraps spec so that it runs a tiny shell script instead of dotnet.
// The script sees $input and $out (the value following any output flag).
func fakeToolSpec(t *testing.T, spec *ToolSpec, body string) *ToolSpec {
	t.Helper()
	script := filepath.Join(t.TempDir(), "tool.sh")
	prologue := `input=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -f) input="$2"; shift ;;
    --csv|--json|--csvf) out="$2"; shift ;;
  esac
  shift
done
`
	require.NoError(t, os.WriteFile(script, []byte(prologue+body), 0o755))
	cp := *spec
	cp.Executable = []string{"/bin/sh", script}
	return &cp
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}
