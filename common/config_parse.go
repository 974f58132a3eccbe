package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// stringOrEnv is a config value; a leading '$' makes it a reference to an environment variable.
type stringOrEnv string

func (s stringOrEnv) toString(env map[string]string) string {
	if len(s) == 0 {
		return string(s)
	}
	if s[0] == '$' {
		return env[string(s)[1:]]
	}
	return string(s)
}

func alterStringFields(value reflect.Value, alterRule func(string) string) {
	switch value.Kind() {
	case reflect.Pointer:
		if !value.IsNil() {
			alterStringFields(value.Elem(), alterRule)
		}
	case reflect.String:
		if value.CanSet() {
			value.SetString(alterRule(value.String()))
		}
	case reflect.Struct:
		for i := 0; i < value.NumField(); i++ {
			alterStringFields(value.Field(i), alterRule)
		}
	case reflect.Slice:
		for i := 0; i < value.Len(); i++ {
			alterStringFields(value.Index(i), alterRule)
		}
	}
}

// yamlToJson lets YAML configs reuse the json tags of the config structs.
func yamlToJson(data []byte) ([]byte, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// ParseConfigFileWithRespectToEnv reads a JSON or YAML (by extension) config into config
// and substitutes "$NAME" string values from env.
func ParseConfigFileWithRespectToEnv(filename string, env map[string]string, config any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if data, err = yamlToJson(data); err != nil {
			return err
		}
	}
	if err = json.Unmarshal(data, config); err != nil {
		return err
	}
	alterStringFields(reflect.ValueOf(config), func(s string) string {
		return stringOrEnv(s).toString(env)
	})
	return nil
}
