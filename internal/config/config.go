// Package config loads the dmcgen runtime configuration. A Config is an
// immutable snapshot captured once per batch run; edits to the underlying
// files apply only to the next run.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "dmcgen.toml"
	OverlayConfigPattern = "dmcgen.%s.toml"

	EnvDmcgenEnv = "DMCGEN_ENV"
)

// Config is the root configuration for a dmcgen batch run.
type Config struct {
	Code     CodeConfig    `toml:"code"`
	Paths    PathsConfig   `toml:"paths"`
	Catalogs CatalogConfig `toml:"catalogs"`
	LLM      LLMConfig     `toml:"llm"`
	Batch    BatchConfig   `toml:"batch"`
}

// Env returns the DMCGEN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDmcgenEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no dmcgen.toml exists, defaults and
// environment variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile behaves like Load but reads the base config from path.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	c.Code.Merge(&overlay.Code)
	c.Paths.Merge(&overlay.Paths)
	c.Catalogs.Merge(&overlay.Catalogs)
	c.LLM.Merge(&overlay.LLM)
	c.Batch.Merge(&overlay.Batch)
}

func (c *Config) finalize() error {
	if err := c.Code.Finalize(); err != nil {
		return fmt.Errorf("code: %w", err)
	}
	if err := c.Paths.Finalize(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if err := c.Catalogs.Finalize(); err != nil {
		return fmt.Errorf("catalogs: %w", err)
	}
	if err := c.LLM.Finalize(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Batch.Finalize(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDmcgenEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
