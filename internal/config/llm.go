package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	EnvLLMEndpoint = "DMCGEN_LLM_ENDPOINT"
	EnvLLMModel    = "DMCGEN_LLM_MODEL"
	EnvLLMTimeout  = "DMCGEN_LLM_TIMEOUT"
)

// LLMConfig holds the classification service connection parameters.
type LLMConfig struct {
	Endpoint    string  `toml:"endpoint"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature"`
	NumPredict  int     `toml:"num_predict"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *LLMConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment overrides, and validation.
func (c *LLMConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LLMConfig) Merge(overlay *LLMConfig) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.NumPredict != 0 {
		c.NumPredict = overlay.NumPredict
	}
}

func (c *LLMConfig) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "llama3.1:8b"
	}
	if c.Timeout == "" {
		c.Timeout = "180s"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.NumPredict == 0 {
		c.NumPredict = 300
	}
}

func (c *LLMConfig) loadEnv() {
	if v := os.Getenv(EnvLLMEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvLLMTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *LLMConfig) validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Required),
	); err != nil {
		return err
	}

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
