package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Specs.Dir != "specs" || cfg.Specs.ToolsDir != "tools" {
		t.Errorf("dirs = %q, %q", cfg.Specs.Dir, cfg.Specs.ToolsDir)
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Debounce())
	}
	if cfg.SandboxTimeout() != 5*time.Second {
		t.Errorf("SandboxTimeout = %v", cfg.SandboxTimeout())
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolforge.yaml")
	content := `specs:
  dir: /var/specs
generation:
  debounce_ms: 250
store:
  enabled: true
  path: /var/db/tools.db
llm:
  model: gemini-2.5-pro
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Specs.Dir != "/var/specs" {
		t.Errorf("Specs.Dir = %q", cfg.Specs.Dir)
	}
	// Unset keys keep their defaults.
	if cfg.Specs.ToolsDir != "tools" {
		t.Errorf("Specs.ToolsDir = %q", cfg.Specs.ToolsDir)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Debounce())
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/var/db/tools.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("TOOLFORGE_API_KEY", "from-env")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "from-env" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("TOOLFORGE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-env")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "gemini-env" {
		t.Errorf("APIKey = %q", cfg.LLM.APIKey)
	}
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("generation:\n  debounce_ms: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("negative debounce should be rejected")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ]["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should be rejected")
	}
}
