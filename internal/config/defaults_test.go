package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, name string, content []byte) {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	dir := filepath.Join(base, "bluegreen-deploy")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

func TestLoadReadsYAMLConfigFile(t *testing.T) {
	body, err := yaml.Marshal(map[string]any{
		"marathon":          "http://marathon1:8080",
		"step_delay":        "10s",
		"initial_instances": 2,
	})
	require.NoError(t, err)
	writeConfig(t, "config.yaml", body)

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://marathon1:8080", d.Marathon)
	require.Equal(t, 10*time.Second, d.StepDelay)
	require.Equal(t, 2, d.InitialInstances)
}

func TestLoadReadsJSONConfigFile(t *testing.T) {
	writeConfig(t, "config.json", []byte(`{"marathon_lb": "http://lb:9090"}`))

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://lb:9090", d.MarathonLB)
}

func TestLoadReadsTOMLConfigFile(t *testing.T) {
	writeConfig(t, "config.toml", []byte("marathon = \"http://marathon1:8080\"\nstep_delay = \"3s\"\n"))

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://marathon1:8080", d.Marathon)
	require.Equal(t, 3*time.Second, d.StepDelay)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	body, err := yaml.Marshal(map[string]any{"marathon": "http://from-file:8080"})
	require.NoError(t, err)
	writeConfig(t, "config.yaml", body)
	t.Setenv("BLUEGREEN_DEPLOY_MARATHON", "http://from-env:8080")

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://from-env:8080", d.Marathon)
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	d, err := Load()
	require.NoError(t, err)
	require.Zero(t, d.Marathon)
}

func TestRenderExampleRoundTrips(t *testing.T) {
	body, err := RenderExample("yaml")
	require.NoError(t, err)
	writeConfig(t, "config.yaml", []byte(body))

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, ExampleDefaults, d)

	_, err = RenderExample("toml")
	require.NoError(t, err)

	_, err = RenderExample("ini")
	require.Error(t, err)
}
