package eztool

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskResult_EncodeDecode(t *testing.T) {
	result := &TaskResult{
		OutputFiles: []OutputFile{{UUID: "u1", DisplayName: "a.csv", Extension: "csv", DataType: "text_file", Path: "/o/u1.csv", ObjectStoreId: "obj"}},
		WorkflowId:  "wf",
		Command:     "RBCmd.exe -f <input_file_path>",
		Meta:        map[string]any{},
	}
	encoded, err := result.Encode()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"output_files"`)

	decoded, err := DecodeTaskResult(encoded)
	require.NoError(t, err)
	assert.Equal(t, result, decoded)
}

func TestDecodeTaskResult_Garbage(t *testing.T) {
	_, err := DecodeTaskResult("%%%")
	assert.Error(t, err)
	_, err = DecodeTaskResult(base64.StdEncoding.EncodeToString([]byte("not json")))
	assert.Error(t, err)
}

func TestGetInputFiles(t *testing.T) {
	explicit := []InputFile{{Path: "/e", DisplayName: "e"}}
	files, err := GetInputFiles("", explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, files)

	encoded, err := (&TaskResult{OutputFiles: []OutputFile{{Path: "/p", DisplayName: "p.txt", ObjectStoreId: "id"}}}).Encode()
	require.NoError(t, err)
	files, err = GetInputFiles(encoded, explicit)
	require.NoError(t, err)
	assert.Equal(t, []InputFile{{Path: "/p", DisplayName: "p.txt", ObjectStoreId: "id"}}, files)
}

func TestLocalOutputSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	of, err := LocalOutputSink{}.CreateOutputFile(dir, "LECmd.exe_output_for_a.lnk", "csv", "text_file")
	require.NoError(t, err)

	assert.Equal(t, "LECmd.exe_output_for_a.lnk.csv", of.DisplayName)
	assert.Equal(t, filepath.Join(dir, of.UUID+".csv"), of.Path)
	assert.FileExists(t, of.Path)

	other, err := LocalOutputSink{}.CreateOutputFile(dir, "x", "", "text_file")
	require.NoError(t, err)
	assert.NotEqual(t, of.UUID, other.UUID)
	assert.Equal(t, "x", other.DisplayName)
	_, err = os.Stat(filepath.Join(dir, other.UUID))
	assert.NoError(t, err)
}
