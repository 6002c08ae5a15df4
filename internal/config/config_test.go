package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dmcgen/internal/config"
)

const baseConfig = `
[code]
model_ident = "BIKE7"
system_diff = "AA"

[paths]
docs = "inbox"
catalogs = "catalogs"

[catalogs]
sources = ["sns_ch24.json"]

[llm]
endpoint = "http://ollama:11434"
timeout = "90s"

[batch]
workers = 4
`

const overlayConfig = `
[llm]
model = "mistral:7b"

[paths]
output = "staging"
`

func writeConfig(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()

	// No config file at all: defaults provide everything.
	cfg, err := config.LoadFile(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Code.ModelIdent != "USERMODEL" {
		t.Errorf("model ident: got %q", cfg.Code.ModelIdent)
	}
	if cfg.Code.SystemDiff != "A" || cfg.Code.Assembly != "0000" || cfg.Code.ItemLocation != "D" {
		t.Errorf("code defaults: got %+v", cfg.Code)
	}
	if cfg.Paths.Docs != "documents_to_process" {
		t.Errorf("docs dir: got %q", cfg.Paths.Docs)
	}
	if cfg.Paths.HistoryDB != filepath.Join("logs", "history.db") {
		t.Errorf("history db: got %q", cfg.Paths.HistoryDB)
	}
	if cfg.LLM.Endpoint != "http://localhost:11434" || cfg.LLM.Model != "llama3.1:8b" {
		t.Errorf("llm defaults: got %+v", cfg.LLM)
	}
	if cfg.LLM.TimeoutDuration() != 180*time.Second {
		t.Errorf("timeout: got %v", cfg.LLM.TimeoutDuration())
	}
	if cfg.Batch.DuplicateCeiling != 999 {
		t.Errorf("duplicate ceiling: got %d", cfg.Batch.DuplicateCeiling)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "dmcgen.toml", baseConfig)

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Code.ModelIdent != "BIKE7" || cfg.Code.SystemDiff != "AA" {
		t.Errorf("code: got %+v", cfg.Code)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Code.Assembly != "0000" {
		t.Errorf("assembly: got %q", cfg.Code.Assembly)
	}
	if cfg.Paths.Docs != "inbox" {
		t.Errorf("docs dir: got %q", cfg.Paths.Docs)
	}
	if len(cfg.Catalogs.Sources) != 1 || cfg.Catalogs.Sources[0] != "sns_ch24.json" {
		t.Errorf("sources: got %v", cfg.Catalogs.Sources)
	}
	if cfg.LLM.TimeoutDuration() != 90*time.Second {
		t.Errorf("timeout: got %v", cfg.LLM.TimeoutDuration())
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers: got %d", cfg.Batch.Workers)
	}
}

func TestLoadEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "dmcgen.toml", baseConfig)
	writeConfig(t, dir, "dmcgen.staging.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvDmcgenEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.LLM.Model != "mistral:7b" {
		t.Errorf("overlay model: got %q", cfg.LLM.Model)
	}
	if cfg.Paths.Output != "staging" {
		t.Errorf("overlay output: got %q", cfg.Paths.Output)
	}
	// Base values not named in the overlay survive.
	if cfg.LLM.Endpoint != "http://ollama:11434" {
		t.Errorf("base endpoint: got %q", cfg.LLM.Endpoint)
	}
	if cfg.Code.ModelIdent != "BIKE7" {
		t.Errorf("base model ident: got %q", cfg.Code.ModelIdent)
	}
}

func TestEnvVariablesWinOverFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "dmcgen.toml", baseConfig)

	t.Setenv(config.EnvModelIdent, "FLEET9")
	t.Setenv(config.EnvLLMTimeout, "30s")
	t.Setenv(config.EnvDocsDir, "/srv/inbox")
	t.Setenv(config.EnvWorkers, "8")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Code.ModelIdent != "FLEET9" {
		t.Errorf("model ident: got %q", cfg.Code.ModelIdent)
	}
	if cfg.LLM.TimeoutDuration() != 30*time.Second {
		t.Errorf("timeout: got %v", cfg.LLM.TimeoutDuration())
	}
	if cfg.Paths.Docs != "/srv/inbox" {
		t.Errorf("docs dir: got %q", cfg.Paths.Docs)
	}
	if cfg.Batch.Workers != 8 {
		t.Errorf("workers: got %d", cfg.Batch.Workers)
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"lowercase model ident", "[code]\nmodel_ident = \"bike7\"\n"},
		{"overlong model ident", "[code]\nmodel_ident = \"ABCDEFGHIJKLMNO\"\n"},
		{"bad system diff", "[code]\nsystem_diff = \"A1\"\n"},
		{"short assembly", "[code]\nassembly = \"01\"\n"},
		{"bad llm endpoint", "[llm]\nendpoint = \"not a url\"\n"},
		{"bad timeout", "[llm]\ntimeout = \"ninety\"\n"},
		{"ceiling above max", "[batch]\nduplicate_ceiling = 1500\n"},
		{"not toml", "{\"json\": true}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, "dmcgen.toml", tt.content)
			if _, err := config.LoadFile(path); err == nil {
				t.Error("expected load to fail")
			}
		})
	}
}
