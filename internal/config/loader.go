// Package config loads daemon configuration. Zero values mean "unspecified"
// and are replaced by defaults at construction time, not at load time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"pland/pkg/types"
)

// DeviceFixture describes one static accelerator for the "static" probe.
// Sizes are in MiB to keep hand-written configs readable.
type DeviceFixture struct {
	Index    int    `json:"index" yaml:"index" toml:"index"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	TotalMiB int64  `json:"total_mib" yaml:"total_mib" toml:"total_mib"`
	FreeMiB  int64  `json:"free_mib" yaml:"free_mib" toml:"free_mib"`
}

// Device converts a fixture to the wire type.
func (d DeviceFixture) Device() types.Device {
	return types.Device{
		Index:      d.Index,
		Name:       d.Name,
		TotalBytes: d.TotalMiB << 20,
		FreeBytes:  d.FreeMiB << 20,
	}
}

// Config holds runtime parameters for the daemon.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir    string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	PatternsPath string `json:"patterns_path" yaml:"patterns_path" toml:"patterns_path"`
	HistoryPath  string `json:"history_path" yaml:"history_path" toml:"history_path"`
	HistoryLimit int    `json:"history_limit" yaml:"history_limit" toml:"history_limit"`

	// Probe selects the accelerator family: "nvidia", "static" or "none".
	Probe        string          `json:"probe" yaml:"probe" toml:"probe"`
	NvidiaSMIBin string          `json:"nvidia_smi_bin" yaml:"nvidia_smi_bin" toml:"nvidia_smi_bin"`
	Devices      []DeviceFixture `json:"devices" yaml:"devices" toml:"devices"`

	// Per-model architecture hints keyed by model id (the gguf filename).
	Models map[string]types.ArchHints `json:"models" yaml:"models" toml:"models"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyKiB  int64    `json:"max_body_kib" yaml:"max_body_kib" toml:"max_body_kib"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
