package eztool

import (
	"fmt"
	"strings"
)

const (
	configOutputFormat    = "output_format"
	configOutputDataType  = "output_data_type"
	configOutputExtension = "output_file_extension"

	DefaultDataType  = "text_file"
	DefaultExtension = "txt"
)

// RunConfig is derived once per task from the user supplied task config.
type RunConfig struct {
	Format    string
	RawArgs   string
	UserArgs  []string
	DataType  string
	Extension string
}

func getOr(config map[string]string, key, fallback string) string {
	if v, ok := config[key]; ok && v != "" {
		return v
	}
	return fallback
}

func NewRunConfig(spec *ToolSpec, config map[string]string) RunConfig {
	var rawArgs string
	if spec.ArgumentsKey != "" {
		rawArgs = config[spec.ArgumentsKey]
	}
	format := getOr(config, configOutputFormat, StdoutFormat)
	extension := format
	if format == StdoutFormat {
		extension = getOr(config, configOutputExtension, DefaultExtension)
	}
	var userArgs []string
	if fields := strings.Fields(rawArgs); len(fields) > 0 {
		userArgs = fields
	}
	return RunConfig{
		Format:    format,
		RawArgs:   rawArgs,
		UserArgs:  userArgs,
		DataType:  getOr(config, configOutputDataType, DefaultDataType),
		Extension: extension,
	}
}

// ReportingCommand describes the invocation with placeholders in place of the
// worker internal paths.
func ReportingCommand(spec *ToolSpec, cfg RunConfig) string {
	var sb strings.Builder
	sb.WriteString(spec.DisplayName + " " + spec.FileArgFlag + " <input_file_path>")
	if cfg.RawArgs != "" {
		sb.WriteString(" " + cfg.RawArgs)
	}
	if details, ok := spec.lookupFormat(cfg.Format); ok {
		sb.WriteString(" " + details.Flag + " <worker_temp_dir_or_file>")
	}
	return sb.String()
}

// CheckTaskConfig rejects an output format the tool does not offer before any work is queued.
func CheckTaskConfig(spec *ToolSpec, config map[string]string) error {
	format := getOr(config, configOutputFormat, StdoutFormat)
	if format == StdoutFormat {
		return nil
	}
	if _, ok := spec.lookupFormat(format); ok {
		return nil
	}
	return fmt.Errorf("%w %q, expected one of: %s", ErrUnknownFormat, format, strings.Join(spec.FormatNames(), ", "))
}
