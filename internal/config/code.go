package config

import (
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	EnvModelIdent   = "DMCGEN_MODEL_IDENT"
	EnvSystemDiff   = "DMCGEN_SYSTEM_DIFF"
	EnvAssembly     = "DMCGEN_ASSEMBLY"
	EnvItemLocation = "DMCGEN_ITEM_LOCATION"
)

var (
	modelIdentPattern   = regexp.MustCompile(`^[A-Z0-9]{1,14}$`)
	systemDiffPattern   = regexp.MustCompile(`^[A-Z]{1,4}$`)
	assemblyPattern     = regexp.MustCompile(`^[0-9A-Z]{4}$`)
	itemLocationPattern = regexp.MustCompile(`^[A-Z]$`)
)

// CodeConfig holds the operator-fixed code prefix fields. These are combined
// with classifier-selected fields to form the final code string and are never
// changed mid-batch.
type CodeConfig struct {
	ModelIdent   string `toml:"model_ident"`
	SystemDiff   string `toml:"system_diff"`
	Assembly     string `toml:"assembly"`
	ItemLocation string `toml:"item_location"`
}

// Finalize applies defaults, environment overrides, and validation.
func (c *CodeConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CodeConfig) Merge(overlay *CodeConfig) {
	if overlay.ModelIdent != "" {
		c.ModelIdent = overlay.ModelIdent
	}
	if overlay.SystemDiff != "" {
		c.SystemDiff = overlay.SystemDiff
	}
	if overlay.Assembly != "" {
		c.Assembly = overlay.Assembly
	}
	if overlay.ItemLocation != "" {
		c.ItemLocation = overlay.ItemLocation
	}
}

func (c *CodeConfig) loadDefaults() {
	if c.ModelIdent == "" {
		c.ModelIdent = "USERMODEL"
	}
	if c.SystemDiff == "" {
		c.SystemDiff = "A"
	}
	if c.Assembly == "" {
		c.Assembly = "0000"
	}
	if c.ItemLocation == "" {
		c.ItemLocation = "D"
	}
}

func (c *CodeConfig) loadEnv() {
	if v := os.Getenv(EnvModelIdent); v != "" {
		c.ModelIdent = v
	}
	if v := os.Getenv(EnvSystemDiff); v != "" {
		c.SystemDiff = v
	}
	if v := os.Getenv(EnvAssembly); v != "" {
		c.Assembly = v
	}
	if v := os.Getenv(EnvItemLocation); v != "" {
		c.ItemLocation = v
	}
}

func (c *CodeConfig) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ModelIdent, validation.Required, validation.Match(modelIdentPattern)),
		validation.Field(&c.SystemDiff, validation.Required, validation.Match(systemDiffPattern)),
		validation.Field(&c.Assembly, validation.Required, validation.Match(assemblyPattern)),
		validation.Field(&c.ItemLocation, validation.Required, validation.Match(itemLocationPattern)),
	)
}
