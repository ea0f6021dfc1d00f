package config

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ExampleDefaults is the sample configuration --longhelp renders so an
// operator can copy it straight into their config directory.
var ExampleDefaults = Defaults{
	Marathon:         "http://marathon1:8080",
	MarathonLB:       "http://marathon-lb.marathon.mesos:9090",
	StepDelay:        5 * time.Second,
	InitialInstances: 1,
}

// RenderExample marshals ExampleDefaults in the given config file format.
func RenderExample(format string) (string, error) {
	switch format {
	case "yaml":
		b, err := yaml.Marshal(renderable(ExampleDefaults))
		if err != nil {
			return "", fmt.Errorf("render yaml example: %w", err)
		}
		return string(b), nil
	case "toml":
		b, err := toml.Marshal(renderable(ExampleDefaults))
		if err != nil {
			return "", fmt.Errorf("render toml example: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported config format: %s", format)
	}
}

// renderable converts Defaults into plain marshal-friendly values: the
// step delay reads back through Load as a duration string, so it is
// rendered as one.
func renderable(d Defaults) map[string]any {
	return map[string]any{
		"marathon":          d.Marathon,
		"marathon_lb":       d.MarathonLB,
		"step_delay":        d.StepDelay.String(),
		"initial_instances": d.InitialInstances,
	}
}
