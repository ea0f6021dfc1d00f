// Package config loads ambient defaults for the CLI flags (scheduler and
// proxy-lb URLs, step delay, initial instance count) from an optional
// config file, dotenv files, and environment variables, in that order of
// increasing precedence (a dotenv file only sets variables the environment
// does not already define).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults holds the values a user would otherwise have to repeat on
// every invocation.
type Defaults struct {
	Marathon         string        `json:"marathon" yaml:"marathon" toml:"marathon"`
	MarathonLB       string        `json:"marathon_lb" yaml:"marathon_lb" toml:"marathon_lb"`
	StepDelay        time.Duration `json:"step_delay" yaml:"step_delay" toml:"step_delay"`
	InitialInstances int           `json:"initial_instances" yaml:"initial_instances" toml:"initial_instances"`
}

const envPrefix = "BLUEGREEN_DEPLOY_"

var configNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// Load reads defaults from the first config.{json,yaml,yml,toml} found in
// ConfigDir, then overlays BLUEGREEN_DEPLOY_* environment variables. A
// missing config file is not an error.
func Load() (Defaults, error) {
	k := koanf.New(".")
	format := "yaml"

	if path, f, ok := findConfigFile(); ok {
		format = f
		parser, err := configParser(f)
		if err != nil {
			return Defaults{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Defaults{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Defaults{}, fmt.Errorf("load environment overrides: %w", err)
	}

	var d Defaults
	decoderConfig := &mapstructure.DecoderConfig{
		TagName:    format,
		Result:     &d,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	}
	if err := k.UnmarshalWithConf("", &d, koanf.UnmarshalConf{Tag: format, DecoderConfig: decoderConfig}); err != nil {
		return Defaults{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return d, nil
}

// findConfigFile returns the first supported config file present in
// ConfigDir, with its format.
func findConfigFile() (path, format string, ok bool) {
	dir, err := ConfigDir()
	if err != nil {
		return "", "", false
	}
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			f, err := configFormat(candidate)
			if err != nil {
				continue
			}
			return candidate, f, true
		}
	}
	return "", "", false
}

func configFormat(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unsupported config format: %s", path)
	}
}

func configParser(format string) (koanf.Parser, error) {
	switch format {
	case "json":
		return json.Parser(), nil
	case "yaml":
		return yaml.Parser(), nil
	case "toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}

// envKey turns BLUEGREEN_DEPLOY_STEP_DELAY into step_delay.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}
