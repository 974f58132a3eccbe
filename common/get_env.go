package common

import (
	"errors"
	"os"
	"strings"

	"github.com/hashicorp/go-envparse"
)

func parseLine(line string) (key, val string) {
	key, val, _ = strings.Cut(line, "=")
	return
}

func ParseEnvironment(data []string) map[string]string {
	items := make(map[string]string)
	for _, item := range data {
		key, val := parseLine(item)
		items[key] = val
	}
	return items
}

func loadDotEnv(dotEnvPath string) (map[string]string, error) {
	if dotEnvPath == "-" || dotEnvPath == "" {
		return make(map[string]string), nil
	}
	file, err := os.Open(dotEnvPath)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return envparse.Parse(file)
}

// GetEnv merges the .env file with the process environment, the latter taking precedence.
func GetEnv(dotEnvPath string) (map[string]string, error) {
	base, err := loadDotEnv(dotEnvPath)
	if err != nil {
		return nil, err
	}
	for k, v := range ParseEnvironment(os.Environ()) {
		base[k] = v
	}
	return base, nil
}
