package config

import (
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	EnvWorkers          = "DMCGEN_WORKERS"
	EnvDuplicateCeiling = "DMCGEN_DUPLICATE_CEILING"
)

// BatchConfig holds batch execution parameters. Workers of zero means
// one worker per CPU, capped by the number of documents.
type BatchConfig struct {
	Workers          int `toml:"workers"`
	DuplicateCeiling int `toml:"duplicate_ceiling"`
}

// Finalize applies defaults, environment overrides, and validation.
func (c *BatchConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *BatchConfig) Merge(overlay *BatchConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.DuplicateCeiling != 0 {
		c.DuplicateCeiling = overlay.DuplicateCeiling
	}
}

func (c *BatchConfig) loadDefaults() {
	if c.DuplicateCeiling == 0 {
		c.DuplicateCeiling = 999
	}
}

func (c *BatchConfig) loadEnv() {
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvDuplicateCeiling); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DuplicateCeiling = n
		}
	}
}

func (c *BatchConfig) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.DuplicateCeiling, validation.Min(1), validation.Max(999)),
	)
}
