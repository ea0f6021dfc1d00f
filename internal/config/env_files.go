package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileName is the dotenv file this tool looks for in the current
// directory and in ConfigDir, so scheduler and proxy credentials can sit
// in a plain .env next to the deployment definition.
const EnvFileName = ".env"

// LoadEnvFiles loads whatever dotenv files it can find, in increasing
// order of precedence: the user's config directory, the current
// directory, and one per named target (.env.<target>, for callers that
// keep per-environment credential files). Missing files are not an
// error — this only ever supplements already-set environment variables.
func LoadEnvFiles(targets []string) {
	// godotenv.Load never overrides a variable that is already set, so the
	// files are loaded from highest to lowest precedence.
	for i := len(targets) - 1; i >= 0; i-- {
		_ = godotenv.Load(fmt.Sprintf(".env.%s", targets[i]))
	}
	_ = godotenv.Load(EnvFileName)
	if dir, err := ConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(dir, EnvFileName))
	}
}

// ConfigDir returns the per-user configuration directory this tool reads
// optional defaults and credentials from ($XDG_CONFIG_HOME or
// ~/.config, joined with the tool's own name).
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(base, "bluegreen-deploy"), nil
}
