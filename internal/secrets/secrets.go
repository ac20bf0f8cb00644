// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files and
// an optional dotenv file. In the directory, each file is one secret: the
// filename is the key and the trimmed contents are the value.
//
// Supported keys: ramm-api-token (env RAMM_API_TOKEN).
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/ukentomology/internal/logging"
)

// RAMMAPIToken is the key of the South West Collections Explorer API token.
const RAMMAPIToken = "ramm-api-token"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(ctx context.Context, dir string) (map[string]string, error) {
	log := logging.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file and adds them to
// secrets, keyed by their dashed lower-case form (RAMM_API_TOKEN becomes
// ramm-api-token). Keys already present in secrets win. A missing file is
// not an error.
func LoadEnvFile(path string, secrets map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	for k, v := range env {
		key := KeyFromEnv(k)
		v = strings.TrimSpace(v)
		if _, ok := secrets[key]; ok || v == "" {
			continue
		}
		secrets[key] = v
	}
	return nil
}

// KeyFromEnv converts an environment variable name to a secret key.
func KeyFromEnv(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

// EnvFromKey converts a secret key to its environment variable name.
func EnvFromKey(key string) string {
	return strings.ReplaceAll(strings.ToUpper(key), "-", "_")
}

// Lookup returns the value for key: an explicit override first, then the
// process environment, then loaded secrets.
func Lookup(secrets map[string]string, key, override string) string {
	if override != "" {
		return override
	}
	if v := strings.TrimSpace(os.Getenv(EnvFromKey(key))); v != "" {
		return v
	}
	return secrets[key]
}
