// Package eztool runs EZTools-style forensic command line tools against input files
// and collects their output either from stdout or from a file the tool generates.
package eztool

import (
	"errors"
	"fmt"
	"sort"
)

const StdoutFormat = "stdout"

// Target tells where a tool expects its output destination argument to point.
type Target uint8

const (
	// TargetFile is the default: the worker picks the file name and passes the full path.
	TargetFile Target = iota
	// TargetDirectory passes the workspace and lets the tool name the file(s).
	TargetDirectory
	// TargetDirectoryWithFilename behaves like TargetFile; tools document it as
	// "directory plus file name" so it is kept apart for the catalogs.
	TargetDirectoryWithFilename
)

func (t Target) String() string {
	switch t {
	case TargetFile:
		return "file"
	case TargetDirectory:
		return "directory"
	case TargetDirectoryWithFilename:
		return "directory_with_filename"
	}
	return fmt.Sprintf("target(%d)", uint8(t))
}

func (t Target) recursive() bool {
	return t == TargetDirectory
}

type OutputFormat struct {
	Flag    string `json:"flag"`
	Pattern string `json:"pattern"`
	Target  Target `json:"output_target_type"`
}

// ToolSpec describes how a single tool is invoked. It is built once at startup.
type ToolSpec struct {
	Executable   []string
	DisplayName  string
	FileArgFlag  string
	ArgumentsKey string // task config key with extra user arguments, empty if the tool takes none
	Formats      map[string]OutputFormat
}

var errInvalidSpec = errors.New("invalid tool spec")

func (s *ToolSpec) Validate() error {
	if len(s.Executable) == 0 {
		return fmt.Errorf("%w: %q has no executable", errInvalidSpec, s.DisplayName)
	}
	if s.DisplayName == "" {
		return fmt.Errorf("%w: display name is empty", errInvalidSpec)
	}
	if s.FileArgFlag == "" {
		return fmt.Errorf("%w: %s has no file argument flag", errInvalidSpec, s.DisplayName)
	}
	for name, format := range s.Formats {
		if name == StdoutFormat {
			return fmt.Errorf("%w: %s declares the implicit %q format", errInvalidSpec, s.DisplayName, StdoutFormat)
		}
		if format.Flag == "" || format.Pattern == "" {
			return fmt.Errorf("%w: %s format %q needs both flag and pattern", errInvalidSpec, s.DisplayName, name)
		}
		if format.Target > TargetDirectoryWithFilename {
			return fmt.Errorf("%w: %s format %q has unknown target %s", errInvalidSpec, s.DisplayName, name, format.Target)
		}
	}
	return nil
}

// FormatNames lists "stdout" followed by the catalog formats in sorted order.
func (s *ToolSpec) FormatNames() []string {
	names := make([]string, 0, len(s.Formats))
	for name := range s.Formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{StdoutFormat}, names...)
}

func (s *ToolSpec) lookupFormat(format string) (OutputFormat, bool) {
	if format == StdoutFormat {
		return OutputFormat{}, false
	}
	f, ok := s.Formats[format]
	return f, ok
}
