// Package config loads the engine's JSON configuration file
// (~/.mama/config.json by default) and applies environment variable
// overrides, in the precedence-chain style of codenerd's
// internal/config (applyEnvOverrides), adapted from YAML to JSON because
// the spec pins JSON as this file's wire format.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

const (
	DefaultModelName    = "Xenova/multilingual-e5-small"
	DefaultEmbeddingDim = 384
)

// Config is the JSON-serializable shape of ~/.mama/config.json (spec §6).
type Config struct {
	ModelName    string `json:"modelName"`
	EmbeddingDim int    `json:"embeddingDim"`
	CacheDir     string `json:"cacheDir"`

	// DBPath is not part of the JSON file (the spec gives it its own
	// MAMA_DB_PATH env var, independent of config.json) but is folded
	// into the loaded Config for convenience once env overrides apply.
	DBPath string `json:"-"`

	// ForceTier3 disables embeddings entirely (MAMA_FORCE_TIER_3=true),
	// intended for tests.
	ForceTier3 bool `json:"-"`

	// EmbeddingEndpoint is the HTTP endpoint of the local embedding
	// server (not a spec.md config key; defaulted and overridable only
	// via the engine constructor, since the spec names no such key — see
	// DESIGN.md on the embedding pipeline's HTTP provider).
	EmbeddingEndpoint string `json:"-"`
}

// Default returns the hard-coded defaults spec §6 specifies.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ModelName:         DefaultModelName,
		EmbeddingDim:      DefaultEmbeddingDim,
		CacheDir:          filepath.Join(home, ".cache", "huggingface", "transformers"),
		DBPath:            filepath.Join(home, ".claude", "mama-memory.db"),
		EmbeddingEndpoint: "http://localhost:11434",
	}
}

// Path returns the configuration file path: ~/.mama/config.json.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".mama", "config.json"), nil
}

// Load reads ~/.mama/config.json, creating it with defaults if missing,
// then applies environment variable overrides. Invalid or missing fields
// fall back to defaults with a warning rather than failing (spec §6, §7:
// ConfigError never fatal).
func Load() (Config, error) {
	cfg := Default()

	path, err := Path()
	if err != nil {
		logging.Get(logging.CategoryEngine).Warnw("could not resolve config path, using defaults", "error", err)
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if writeErr := writeDefault(path, cfg); writeErr != nil {
			logging.Get(logging.CategoryEngine).Warnw("could not create default config", "path", path, "error", writeErr)
		}
	case err != nil:
		logging.Get(logging.CategoryEngine).Warnw("could not read config, using defaults", "path", path, "error", err)
	default:
		var onDisk Config
		if err := json.Unmarshal(data, &onDisk); err != nil {
			logging.Get(logging.CategoryEngine).Warnw("malformed config.json, falling back to defaults", "path", path, "error", err)
		} else {
			mergeOnto(&cfg, onDisk)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// mergeOnto overlays non-zero fields from onDisk onto cfg, defaulting any
// field that is missing or invalid rather than propagating a zero value.
func mergeOnto(cfg *Config, onDisk Config) {
	if onDisk.ModelName != "" {
		cfg.ModelName = onDisk.ModelName
	}
	if onDisk.EmbeddingDim > 0 {
		cfg.EmbeddingDim = onDisk.EmbeddingDim
	} else if onDisk.EmbeddingDim != 0 {
		logging.Get(logging.CategoryEngine).Warnw("invalid embeddingDim in config, using default", "value", onDisk.EmbeddingDim)
	}
	if onDisk.CacheDir != "" {
		cfg.CacheDir = onDisk.CacheDir
	}
}

func writeDefault(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	out := struct {
		ModelName    string `json:"modelName"`
		EmbeddingDim int    `json:"embeddingDim"`
		CacheDir     string `json:"cacheDir"`
	}{cfg.ModelName, cfg.EmbeddingDim, cfg.CacheDir}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides layers environment variables on top of whatever was
// loaded from disk, in the teacher's override-chain style
// (internal/config/env_override_test.go): later overrides win, each guarded
// by its own presence check.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MAMA_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("HF_HOME"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("TRANSFORMERS_CACHE"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("MAMA_FORCE_TIER_3"); v == "true" {
		c.ForceTier3 = true
	}
}
