// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all MartFlow configuration.
type Config struct {
	Version int `yaml:"version"`

	Source    SourceConfig    `yaml:"source"`
	Clean     CleanConfig     `yaml:"clean"`
	Storage   StorageConfig   `yaml:"storage"`
	Report    ReportConfig    `yaml:"report"`
	Watch     WatchConfig     `yaml:"watch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SourceConfig describes the raw export to ingest.
type SourceConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// CleanConfig controls the intermediate clean artifact.
type CleanConfig struct {
	Output string `yaml:"output"`
}

// StorageConfig for the persisted store.
type StorageConfig struct {
	Database string `yaml:"database"`
}

// ReportConfig for the business-query workbook.
type ReportConfig struct {
	Output string `yaml:"output"`
}

// WatchConfig for the source file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// TelemetryConfig for optional trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Source: SourceConfig{
			Delimiter: ",",
		},
		Clean: CleanConfig{
			Output: "products_clean.csv",
		},
		Storage: StorageConfig{
			Database: "martflow.db",
		},
		Report: ReportConfig{
			Output: "business_report.xlsx",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start with defaults
	m.config = Default()

	// Load from paths in order (later overrides earlier)
	for _, path := range m.configPaths() {
		if err := m.loadFile(path); err != nil {
			// Ignore missing files, but surface errors for existing files
			if !os.IsNotExist(err) {
				return err
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	// Override with environment variables
	m.loadEnv()

	return nil
}

// configPaths returns config file paths in priority order.
func (m *Manager) configPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/martflow/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".martflow", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".martflow.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	if src.Source.Path != "" {
		m.config.Source.Path = src.Source.Path
	}
	if src.Source.Delimiter != "" {
		m.config.Source.Delimiter = src.Source.Delimiter
	}
	if src.Clean.Output != "" {
		m.config.Clean.Output = src.Clean.Output
	}
	if src.Storage.Database != "" {
		m.config.Storage.Database = src.Storage.Database
	}
	if src.Report.Output != "" {
		m.config.Report.Output = src.Report.Output
	}
	if src.Watch.Debounce != 0 {
		m.config.Watch.Debounce = src.Watch.Debounce
	}
	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("MARTFLOW_SOURCE"); v != "" {
		m.config.Source.Path = v
	}
	if v := os.Getenv("MARTFLOW_DATABASE"); v != "" {
		m.config.Storage.Database = v
	}
	if v := os.Getenv("MARTFLOW_REPORT"); v != "" {
		m.config.Report.Output = v
	}
	if v := os.Getenv("MARTFLOW_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".martflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager. A config file that
// exists but fails to parse is reported on stderr; the manager then
// carries whatever was merged before the bad file plus the defaults.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		if err := globalManager.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v (continuing with defaults)\n", err)
		}
	})
	return globalManager
}
