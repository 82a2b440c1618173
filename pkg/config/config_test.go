package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Source.Delimiter != "," {
		t.Errorf("delimiter = %q, want ,", cfg.Source.Delimiter)
	}
	if cfg.Clean.Output != "products_clean.csv" {
		t.Errorf("clean output = %q", cfg.Clean.Output)
	}
	if cfg.Storage.Database != "martflow.db" {
		t.Errorf("database = %q", cfg.Storage.Database)
	}
	if cfg.Report.Output != "business_report.xlsx" {
		t.Errorf("report output = %q", cfg.Report.Output)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry enabled by default")
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	m := NewManager()
	m.merge(&Config{
		Storage: StorageConfig{Database: "other.db"},
	})

	cfg := m.Get()
	if cfg.Storage.Database != "other.db" {
		t.Errorf("database = %q, want other.db", cfg.Storage.Database)
	}
	// Untouched sections keep their defaults.
	if cfg.Clean.Output != "products_clean.csv" {
		t.Errorf("clean output = %q, merge clobbered a default", cfg.Clean.Output)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, merge clobbered a default", cfg.Watch.Debounce)
	}
}

func TestLoadFileMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\nsource:\n  path: export.csv\nwatch:\n  debounce: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.loadFile(path); err != nil {
		t.Fatal(err)
	}

	cfg := m.Get()
	if cfg.Source.Path != "export.csv" {
		t.Errorf("source path = %q", cfg.Source.Path)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.Storage.Database != "martflow.db" {
		t.Errorf("database default lost: %q", cfg.Storage.Database)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("source: [not a mapping"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	if err := m.loadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

// A malformed config file that exists must surface an error from Load,
// not fall through to defaults silently.
func TestLoadSurfacesBadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".martflow.yaml"), []byte("source: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })

	m := NewManager()
	if err := m.Load(); err == nil {
		t.Fatal("expected error for malformed project config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARTFLOW_SOURCE", "env.csv")
	t.Setenv("MARTFLOW_DATABASE", "env.db")
	t.Setenv("MARTFLOW_OTLP_ENDPOINT", "localhost:4317")

	m := NewManager()
	m.loadEnv()

	cfg := m.Get()
	if cfg.Source.Path != "env.csv" {
		t.Errorf("source path = %q", cfg.Source.Path)
	}
	if cfg.Storage.Database != "env.db" {
		t.Errorf("database = %q", cfg.Storage.Database)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("telemetry = %+v, endpoint env must enable tracing", cfg.Telemetry)
	}
}
