// Package config loads layout configuration files.
//
// A layout file is a JSON object whose keys are the json names of
// layout.Config fields. Keys that are absent keep their default value, so a
// file may override just one setting:
//
//	{"measures_per_row": 8, "overflow": "largest"}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/FocuswithJustin/cleanchart/core/cas"
	"github.com/FocuswithJustin/cleanchart/core/layout"
)

// MaxFileSize bounds a layout file.
const MaxFileSize = 64 * 1024

// LoadLayout reads path over layout.DefaultConfig. An empty path returns the
// defaults.
func LoadLayout(path string) (layout.Config, error) {
	if path == "" {
		return layout.DefaultConfig(), nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return layout.Config{}, fmt.Errorf("layout config: %w", err)
	}
	if info.Size() > MaxFileSize {
		return layout.Config{}, fmt.Errorf("layout config %s: %d bytes exceeds %d", path, info.Size(), MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return layout.Config{}, fmt.Errorf("layout config: %w", err)
	}
	cfg, err := ParseLayout(data)
	if err != nil {
		return layout.Config{}, fmt.Errorf("layout config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseLayout decodes data over the defaults and validates the result.
// Unknown keys are rejected.
func ParseLayout(data []byte) (layout.Config, error) {
	cfg := layout.DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return layout.Config{}, err
	}
	if dec.More() {
		return layout.Config{}, fmt.Errorf("trailing data after layout object")
	}
	if err := cfg.Validate(); err != nil {
		return layout.Config{}, err
	}
	return cfg, nil
}

// Digest returns the BLAKE3 digest of the canonical JSON form of cfg. Two
// configs that lay out identically share a digest.
func Digest(cfg layout.Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		// layout.Config holds only numbers and strings.
		panic(err)
	}
	return cas.Blake3Hash(data)
}
