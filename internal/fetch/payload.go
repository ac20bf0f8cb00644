// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/ukentomology/pkg/types"
)

// PayloadFile returns the file name used for an institution's saved payload
// (e.g. "lmnh.json").
func PayloadFile(inst types.Institution) string {
	return strings.ToLower(string(inst)) + ".json"
}

// SavePayload writes payload as indented JSON to dir/<institution>.json,
// via a temp file renamed on success.
func SavePayload(dir string, inst types.Institution, payload any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating payload directory: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s payload: %w", inst, err)
	}
	path := filepath.Join(dir, PayloadFile(inst))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s payload: %w", inst, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("writing %s payload: %w", inst, err)
	}
	return path, nil
}

// LoadPayload reads a payload saved by SavePayload (or any JSON response
// body) from path.
func LoadPayload(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening payload: %w", err)
	}
	defer f.Close()
	v, err := DecodePayload(f)
	if err != nil {
		return nil, fmt.Errorf("parsing payload %s: %w", path, err)
	}
	return v, nil
}
