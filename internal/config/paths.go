package config

import (
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	EnvDocsDir    = "DMCGEN_DOCS_DIR"
	EnvCatalogDir = "DMCGEN_CATALOG_DIR"
	EnvLogsDir    = "DMCGEN_LOGS_DIR"
	EnvOutputDir  = "DMCGEN_OUTPUT_DIR"
)

// PathsConfig holds the directory layout for a batch run.
type PathsConfig struct {
	Docs      string `toml:"docs"`
	Catalogs  string `toml:"catalogs"`
	Logs      string `toml:"logs"`
	Output    string `toml:"output"`
	HistoryDB string `toml:"history_db"`
}

// Finalize applies defaults, environment overrides, and validation.
func (c *PathsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PathsConfig) Merge(overlay *PathsConfig) {
	if overlay.Docs != "" {
		c.Docs = overlay.Docs
	}
	if overlay.Catalogs != "" {
		c.Catalogs = overlay.Catalogs
	}
	if overlay.Logs != "" {
		c.Logs = overlay.Logs
	}
	if overlay.Output != "" {
		c.Output = overlay.Output
	}
	if overlay.HistoryDB != "" {
		c.HistoryDB = overlay.HistoryDB
	}
}

func (c *PathsConfig) loadDefaults() {
	if c.Docs == "" {
		c.Docs = "documents_to_process"
	}
	if c.Catalogs == "" {
		c.Catalogs = "lake"
	}
	if c.Logs == "" {
		c.Logs = "logs"
	}
	if c.Output == "" {
		c.Output = "output"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = filepath.Join(c.Logs, "history.db")
	}
}

func (c *PathsConfig) loadEnv() {
	if v := os.Getenv(EnvDocsDir); v != "" {
		c.Docs = v
	}
	if v := os.Getenv(EnvCatalogDir); v != "" {
		c.Catalogs = v
	}
	if v := os.Getenv(EnvLogsDir); v != "" {
		c.Logs = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output = v
	}
}

func (c *PathsConfig) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Docs, validation.Required),
		validation.Field(&c.Catalogs, validation.Required),
		validation.Field(&c.Logs, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.HistoryDB, validation.Required),
	)
}
