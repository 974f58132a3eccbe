package eztool

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type InputFile struct {
	Path          string `json:"path"`
	DisplayName   string `json:"display_name"`
	ObjectStoreId string `json:"object_store_id,omitempty"`
}

// OutputFile is one produced artifact. Path is local to the worker that produced it.
type OutputFile struct {
	UUID          string `json:"uuid"`
	DisplayName   string `json:"display_name"`
	Extension     string `json:"extension"`
	DataType      string `json:"data_type"`
	Path          string `json:"path"`
	ObjectStoreId string `json:"object_store_id,omitempty"`
}

type TaskResult struct {
	OutputFiles []OutputFile   `json:"output_files"`
	WorkflowId  string         `json:"workflow_id"`
	Command     string         `json:"command"`
	Meta        map[string]any `json:"meta"`
}

// Encode returns the result as base64 encoded JSON, the form a following task
// receives as its pipe result.
func (r *TaskResult) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func DecodeTaskResult(encoded string) (*TaskResult, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode pipe result: %w", err)
	}
	var ret TaskResult
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decode pipe result: %w", err)
	}
	return &ret, nil
}

// GetInputFiles prefers the output files of the previous task over the explicit list.
func GetInputFiles(pipeResult string, inputFiles []InputFile) ([]InputFile, error) {
	if pipeResult == "" {
		return inputFiles, nil
	}
	previous, err := DecodeTaskResult(pipeResult)
	if err != nil {
		return nil, err
	}
	ret := make([]InputFile, len(previous.OutputFiles))
	for i, of := range previous.OutputFiles {
		ret[i] = InputFile{
			Path:          of.Path,
			DisplayName:   of.DisplayName,
			ObjectStoreId: of.ObjectStoreId,
		}
	}
	return ret, nil
}

// OutputSink creates the file an artifact is written to.
type OutputSink interface {
	CreateOutputFile(outputPath, displayName, extension, dataType string) (*OutputFile, error)
}

// LocalOutputSink creates artifacts as <uuid>.<extension> files inside the output path.
type LocalOutputSink struct{}

func (LocalOutputSink) CreateOutputFile(outputPath, displayName, extension, dataType string) (*OutputFile, error) {
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	name := id
	if extension != "" {
		name += "." + extension
		displayName += "." + extension
	}
	path := filepath.Join(outputPath, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := file.Close(); err != nil {
		return nil, err
	}
	return &OutputFile{
		UUID:        id,
		DisplayName: displayName,
		Extension:   extension,
		DataType:    dataType,
		Path:        path,
	}, nil
}
