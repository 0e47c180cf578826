package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	APP_NAME      = "boo"
	SETTINGS_FILE = "config.yml"
)

// Settings is stored as YAML in the config directory. Each field can be
// overridden by the environment variable named in its env tag.
type Settings struct {
	MaxCallDepth int    `yaml:"max_call_depth" env:"BOO_MAX_CALL_DEPTH"`
	DefaultFile  string `yaml:"default_file" env:"BOO_DEFAULT_FILE"`
	HistoryFile  string `yaml:"history_file" env:"BOO_HISTORY_FILE"`
	Opt          string `yaml:"opt" env:"BOO_OPT"`
	Clang        string `yaml:"clang" env:"BOO_CLANG"`
}

func DefaultSettings(configDir string) *Settings {
	return &Settings{
		MaxCallDepth: 1000,
		DefaultFile:  "test.boo",
		HistoryFile:  filepath.Join(configDir, "history"),
		Opt:          "opt",
		Clang:        "clang",
	}
}

func (s *Settings) ShowAll(out io.Writer) {
	v := reflect.ValueOf(s).Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		fieldValue := v.Field(i)

		envTag := field.Tag.Get("env")
		if envTag != "" {
			fmt.Fprintf(out, "%s='%v'\n", envTag, fieldValue.Interface())
		}
	}
}

// Setup resolves the config directory, creates config.yml with defaults if
// it is missing, loads it and applies environment overrides.
func Setup(environ map[string]string) (*Settings, string, error) {
	configDir, err := GetConfigDir(APP_NAME)
	if err != nil {
		return nil, "", err
	}

	path := filepath.Join(configDir, SETTINGS_FILE)
	settings, err := LoadSettings(path, DefaultSettings(configDir))
	if err != nil {
		return nil, "", err
	}

	err = MapEnvToStruct(environ, settings)
	if err != nil {
		return nil, "", err
	}
	return settings, configDir, nil
}

func GetConfigDir(appName string) (string, error) {
	var configDir string

	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		configDir = filepath.Join(configHome, appName)
	} else if homeDir, err := os.UserHomeDir(); err == nil {
		if os.Getenv("OS") == "Windows_NT" {
			configDir = filepath.Join(os.Getenv("APPDATA"), appName)
		} else {
			configDir = filepath.Join(homeDir, ".config", appName)
		}
	} else {
		return "", fmt.Errorf("could not determine home directory")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// LoadSettings decodes path on top of defaults. If path does not exist it
// is created holding defaults.
func LoadSettings(path string, defaults *Settings) (*Settings, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, WriteSettings(path, defaults)
		}
		return nil, err
	}
	defer file.Close()

	settings := *defaults
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&settings); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &settings, nil
}

func WriteSettings(path string, settings *Settings) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("config: marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// MapEnvToStruct copies values from data into the fields of result whose
// env tag matches a key. String and int fields are supported.
func MapEnvToStruct(data map[string]string, result any) error {
	v := reflect.ValueOf(result).Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		fieldValue := v.Field(i)

		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}
		value, ok := data[envTag]
		if !ok || !fieldValue.CanSet() {
			continue
		}

		switch fieldValue.Kind() {
		case reflect.String:
			fieldValue.SetString(value)
		case reflect.Int:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s: expected an integer, got %q", envTag, value)
			}
			fieldValue.SetInt(int64(n))
		}
	}

	return nil
}
