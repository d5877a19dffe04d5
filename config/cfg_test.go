package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Store.Timeout != 30*time.Second {
		t.Errorf("Store.Timeout = %v, want 30s", cfg.Store.Timeout)
	}
	if cfg.Gallery.Concurrency != 8 {
		t.Errorf("Gallery.Concurrency = %d, want 8", cfg.Gallery.Concurrency)
	}
	if cfg.Gallery.FailurePolicy != FailurePolicyAbort {
		t.Errorf("Gallery.FailurePolicy = %q, want %q", cfg.Gallery.FailurePolicy, FailurePolicyAbort)
	}
	if cfg.Gallery.Root != "Longmorn_Setting/Characters" || cfg.Gallery.Template != "Longmorn_Setting/Characters/PC_Template" {
		t.Errorf("Gallery paths = %q, %q", cfg.Gallery.Root, cfg.Gallery.Template)
	}
	if cfg.Gallery.DescriptionTemplate != "Player Character: {{ .Name }}" {
		t.Errorf("Gallery.DescriptionTemplate = %q, must be kept unexpanded", cfg.Gallery.DescriptionTemplate)
	}
	if cfg.Render.FallbackName != "Character" {
		t.Errorf("Render.FallbackName = %q, want %q", cfg.Render.FallbackName, "Character")
	}
	if len(cfg.Render.TipPrefixes) == 0 {
		t.Error("Render.TipPrefixes is empty")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
store:
  url: "https://wiki.example.org"
  token: "abc123"
  timeout: 5s
gallery:
  root: "World/Heroes"
  template: "World/Heroes/Template"
  locale: "de"
  concurrency: 4
  failure_policy: isolate
  description_template: "Held: {{ .Name }}"
  tags: ["pc", "heroes"]
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(dir, "logs", "wagi.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(dir, "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Store.URL != "https://wiki.example.org" {
		t.Errorf("Store.URL = %q", cfg.Store.URL)
	}
	if cfg.Store.Token.Reveal() != "abc123" {
		t.Errorf("Store.Token = %q, want %q", cfg.Store.Token.Reveal(), "abc123")
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("Store.Timeout = %v, want 5s", cfg.Store.Timeout)
	}
	if cfg.Gallery.Concurrency != 4 || cfg.Gallery.FailurePolicy != FailurePolicyIsolate {
		t.Errorf("Gallery = %+v", cfg.Gallery)
	}
	if cfg.Gallery.DescriptionTemplate != "Held: {{ .Name }}" {
		t.Errorf("Gallery.DescriptionTemplate = %q", cfg.Gallery.DescriptionTemplate)
	}
	if strings.Join(cfg.Gallery.Tags, ",") != "pc,heroes" {
		t.Errorf("Gallery.Tags = %v", cfg.Gallery.Tags)
	}
	// defaults survive partial override
	if cfg.Gallery.Editor != "ckeditor" || cfg.Gallery.ListLimit != 2000 {
		t.Errorf("Gallery defaults lost: editor %q, list limit %d", cfg.Gallery.Editor, cfg.Gallery.ListLimit)
	}
	if _, err := os.Stat(filepath.Join(dir, "logs")); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "version: 1\ngallery:\n  colour: blue\n"},
		{"wrong version", "version: 2\n"},
		{"bad url", "version: 1\nstore:\n  url: \"not a url\"\n"},
		{"zero concurrency", "version: 1\ngallery:\n  concurrency: 0\n"},
		{"too much concurrency", "version: 1\ngallery:\n  concurrency: 500\n"},
		{"unknown policy", "version: 1\ngallery:\n  failure_policy: retry\n"},
		{"template is root", "version: 1\ngallery:\n  root: \"A/B\"\n  template: \"A/B\"\n"},
		{"bad locale", "version: 1\ngallery:\n  locale: \"not_a_locale!\"\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"malformed yaml", "version: [1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfiguration() expected error")
			}
		})
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfiguration() expected error for missing file")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `description_template: "Player Character: {{ .Name }}"`) {
		t.Errorf("Prepare() expanded description template:\n%s", text)
	}
	if !strings.Contains(text, "failure_policy: abort") {
		t.Errorf("Prepare() output missing defaults:\n%s", text)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Store.Token = "very-secret-token"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	text := string(data)
	if strings.Contains(text, "very-secret-token") {
		t.Error("Dump() revealed store token")
	}
	if !strings.Contains(text, SecretStringValue) {
		t.Errorf("Dump() output missing masked token:\n%s", text)
	}

	// dump is loadable configuration
	if _, err := LoadConfiguration(writeConfig(t, text)); err != nil {
		t.Errorf("LoadConfiguration() of dump error = %v", err)
	}
}
