package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/joho/godotenv"
)

// CredentialsFileName is an optional sops-encrypted dotenv file holding
// scheduler and proxy basic-auth credentials, so they never need to sit
// in plaintext next to a deployment definition.
const CredentialsFileName = "credentials.env"

// LoadCredentials resolves scheduler and proxy-lb basic-auth credentials.
// It first looks for a sops-encrypted CredentialsFileName in dir,
// decrypting it in memory; failing that, it falls back to the
// MARATHON_USER/MARATHON_PASS and MARATHONLB_USER/MARATHONLB_PASS
// environment variables (themselves possibly populated by LoadEnvFiles).
func LoadCredentials(dir string) (scheduler, proxy marathon.Credentials, err error) {
	vars, err := decryptedVars(filepath.Join(dir, CredentialsFileName))
	if err != nil {
		return marathon.Credentials{}, marathon.Credentials{}, err
	}

	lookup := func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	scheduler = marathon.Credentials{Username: lookup("MARATHON_USER"), Password: lookup("MARATHON_PASS")}
	proxy = marathon.Credentials{Username: lookup("MARATHONLB_USER"), Password: lookup("MARATHONLB_PASS")}
	return scheduler, proxy, nil
}

// decryptedVars decrypts path with sops and parses it as a dotenv file. A
// missing file is not an error — it just yields no overrides.
func decryptedVars(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	plaintext, err := decrypt.File(path, "dotenv")
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials file %s: %w", path, err)
	}

	vars, err := godotenv.Parse(bytes.NewReader(plaintext))
	if err != nil {
		return nil, fmt.Errorf("parse decrypted credentials file %s: %w", path, err)
	}
	return vars, nil
}
