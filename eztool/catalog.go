package eztool

import (
	"fmt"
	"path/filepath"
	"sort"
)

const (
	DefaultDotnetPath = "/usr/bin/dotnet"
	TaskNamePrefix    = "openrelik-worker-eztools.tasks."
)

// ConfigItem describes a user facing task option.
type ConfigItem struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Items       []string `json:"items,omitempty"`
	Default     string   `json:"default,omitempty"`
	Required    bool     `json:"required"`
}

type TaskMetadata struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Description string       `json:"description"`
	TaskConfig  []ConfigItem `json:"task_config"`
}

// Task binds a tool spec to the metadata shown to users.
type Task struct {
	Key      string
	Spec     *ToolSpec
	Metadata TaskMetadata
}

// DefaultDLLPath is where the tools are built from source inside the worker image.
func DefaultDLLPath(tool string) string {
	return filepath.Join("/opt", tool+"_built_from_source", tool+".dll")
}

func dotnetCommand(dotnet, dll string) []string {
	if dotnet == "" {
		dotnet = DefaultDotnetPath
	}
	return []string{dotnet, dll}
}

func LECmd(dotnet, dll string) *ToolSpec {
	return &ToolSpec{
		Executable:   dotnetCommand(dotnet, dll),
		DisplayName:  "LECmd.exe",
		FileArgFlag:  "-f",
		ArgumentsKey: "lecmd_arguments",
		Formats: map[string]OutputFormat{
			// LECmd names the file <timestamp>_LECmd_Output.csv inside the directory.
			"csv":  {Flag: "--csv", Pattern: "*_LECmd_Output.csv", Target: TargetDirectory},
			"json": {Flag: "--json", Pattern: "*_LECmd_Output.json", Target: TargetDirectory},
		},
	}
}

func RBCmd(dotnet, dll string) *ToolSpec {
	return &ToolSpec{
		Executable:  dotnetCommand(dotnet, dll),
		DisplayName: "RBCmd.exe",
		FileArgFlag: "-f",
		Formats: map[string]OutputFormat{
			"csv": {Flag: "--csv", Pattern: "*_RBCmd_Output.csv", Target: TargetDirectory},
		},
	}
}

func AppCompatCacheParser(dotnet, dll string) *ToolSpec {
	return &ToolSpec{
		Executable:   dotnetCommand(dotnet, dll),
		DisplayName:  "AppCompatCacheParser.exe",
		FileArgFlag:  "-f",
		ArgumentsKey: "appcompatcacheparser_arguments",
		Formats: map[string]OutputFormat{
			"csv": {Flag: "--csv", Pattern: "AppCompatCacheParser_Output_*.csv", Target: TargetDirectory},
			// The worker names this file itself: <input stem>_AppCompatCacheParser.exe.csvf
			"csvf": {Flag: "--csvf", Pattern: "*_AppCompatCacheParser.exe.csvf", Target: TargetDirectoryWithFilename},
		},
	}
}

func outputFormatItem(spec *ToolSpec, toolName string) ConfigItem {
	return ConfigItem{
		Name:  "output_format",
		Label: "Output Format",
		Description: fmt.Sprintf("Select the output format. 'stdout' captures console output. "+
			"Other options use %s's direct file generation (e.g., --csv).", toolName),
		Type:     "select",
		Items:    spec.FormatNames(),
		Default:  StdoutFormat,
		Required: true,
	}
}

// ToolPaths holds the installation paths of the wrapped tools. Empty fields fall back to defaults.
type ToolPaths struct {
	Dotnet               string
	LECmd                string
	RBCmd                string
	AppCompatCacheParser string
}

func orDefault(path, tool string) string {
	if path == "" {
		return DefaultDLLPath(tool)
	}
	return path
}

// NewRegistry builds every task the worker serves, keyed by its short name.
func NewRegistry(paths ToolPaths) (map[string]*Task, error) {
	lecmd := LECmd(paths.Dotnet, orDefault(paths.LECmd, "LECmd"))
	rbcmd := RBCmd(paths.Dotnet, orDefault(paths.RBCmd, "RBCmd"))
	acc := AppCompatCacheParser(paths.Dotnet, orDefault(paths.AppCompatCacheParser, "AppCompatCacheParser"))

	tasks := []*Task{
		{
			Key:  "lecmd",
			Spec: lecmd,
			Metadata: TaskMetadata{
				DisplayName: "EZTool: LECmd (LNK File Parser)",
				Description: "Runs LECmd.exe from Eric Zimmermann's EZTools to parse LNK files. " +
					"(only output format csv or json supported)",
				TaskConfig: []ConfigItem{outputFormatItem(lecmd, "LECmd")},
			},
		},
		{
			Key:  "rbcmd",
			Spec: rbcmd,
			Metadata: TaskMetadata{
				DisplayName: "EZTool: RBCmd (Recycle Bin Parser)",
				Description: "Runs RBCmd.exe from Eric Zimmermann's EZTools to parse Recycle Bin artifacts.",
				TaskConfig:  []ConfigItem{outputFormatItem(rbcmd, "RBCmd")},
			},
		},
		{
			Key:  "appcompatcacheparser",
			Spec: acc,
			Metadata: TaskMetadata{
				DisplayName: "EZTool: AppCompatCacheParser",
				Description: "Runs AppCompatCacheParser.exe from Eric Zimmermann's EZTools to parse " +
					"AppCompatCache data from SYSTEM hive files.",
				TaskConfig: []ConfigItem{outputFormatItem(acc, "AppCompatCacheParser")},
			},
		},
	}

	registry := make(map[string]*Task, len(tasks))
	for _, task := range tasks {
		if err := task.Spec.Validate(); err != nil {
			return nil, err
		}
		task.Metadata.Name = TaskNamePrefix + task.Key
		registry[task.Key] = task
	}
	return registry, nil
}

// SortedTasks returns the registry content ordered by key.
func SortedTasks(registry map[string]*Task) []*Task {
	keys := make([]string, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	ret := make([]*Task, len(keys))
	for i, key := range keys {
		ret[i] = registry[key]
	}
	return ret
}
