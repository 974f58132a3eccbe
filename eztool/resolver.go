package eztool

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// OutputLocation is where a tool in file generation mode writes its output.
type OutputLocation struct {
	Workspace string
	Args      []string
	Pattern   string
	Target    Target
	Format    string
}

// ResolveOutputLocation prepares the workspace and the destination arguments for format.
// A nil location means the output is taken from the process stdout.
func ResolveOutputLocation(
	tempRoot string,
	format string,
	spec *ToolSpec,
	userArgs []string,
	inputPath string,
	logger zerolog.Logger,
) (*OutputLocation, error) {
	details, ok := spec.lookupFormat(format)
	if !ok {
		return nil, nil
	}

	for _, arg := range userArgs {
		if arg == details.Flag {
			logger.Warn().
				Str("flag", details.Flag).
				Str("format", format).
				Msgf("User provided '%s' in arguments while also selecting '%s' format. "+
					"The worker will manage the '%s' argument.", details.Flag, format, details.Flag)
			break
		}
	}

	workspace, err := os.MkdirTemp(tempRoot, "eztool_"+format+"_")
	if err != nil {
		return nil, err
	}

	destination := workspace
	if !details.Target.recursive() {
		destination = filepath.Join(workspace, generatedFileName(inputPath, spec.DisplayName, format))
	}

	return &OutputLocation{
		Workspace: workspace,
		Args:      []string{details.Flag, destination},
		Pattern:   details.Pattern,
		Target:    details.Target,
		Format:    format,
	}, nil
}

func generatedFileName(inputPath, displayName, format string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_" + displayName + "." + format
}

// Matches lists regular files in the workspace matching the pattern. Only direct
// children are considered unless the target is a directory.
func (l *OutputLocation) Matches() ([]string, error) {
	if !l.Target.recursive() {
		candidates, err := filepath.Glob(filepath.Join(l.Workspace, l.Pattern))
		if err != nil {
			return nil, err
		}
		return regularFiles(candidates), nil
	}

	var candidates []string
	err := filepath.WalkDir(l.Workspace, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(l.Pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regularFiles(candidates), nil
}

func regularFiles(paths []string) []string {
	ret := paths[:0]
	for _, path := range paths {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			ret = append(ret, path)
		}
	}
	return ret
}
