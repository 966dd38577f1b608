// Package config handles loading and saving trackfeat configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/trackfeat/config.yaml
//
// Values from the file can be overridden by environment variables
// (TRACKFEAT_THREADS, TRACKFEAT_ANALYZERS) and then by command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvThreads   = "TRACKFEAT_THREADS"
	EnvAnalyzers = "TRACKFEAT_ANALYZERS"
)

// OutputConfig selects the exports written after a run.
type OutputConfig struct {
	JSON        string `yaml:"json,omitempty"`         // Feature document path
	SQLite      string `yaml:"sqlite,omitempty"`       // Feature database path
	MetricsFile string `yaml:"metrics_file,omitempty"` // Prometheus textfile path
}

// WatchConfig controls re-running on input changes.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for trackfeat.
type Config struct {
	NumThreads int          `yaml:"num_threads,omitempty"` // 0 = one worker per CPU
	Analyzers  []string     `yaml:"analyzers,omitempty"`   // Empty = all analyzers
	Output     OutputConfig `yaml:"output,omitempty"`
	Watch      WatchConfig  `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Watch: WatchConfig{
			Debounce:     200 * time.Millisecond,
			PollInterval: 2 * time.Second,
		},
	}
}

// Validate rejects values no run could use.
func (c Config) Validate() error {
	if c.NumThreads < 0 {
		return fmt.Errorf("num_threads must be >= 0, got %d", c.NumThreads)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", c.Watch.Debounce)
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("watch.poll_interval must be positive, got %v", c.Watch.PollInterval)
	}
	return nil
}

// ConfigDir returns the XDG config directory for trackfeat.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "trackfeat")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "trackfeat")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return ApplyEnvOverrides(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path and applies environment
// overrides. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ApplyEnvOverrides(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Output.JSON = expandHome(cfg.Output.JSON)
	cfg.Output.SQLite = expandHome(cfg.Output.SQLite)
	cfg.Output.MetricsFile = expandHome(cfg.Output.MetricsFile)

	cfg = ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies TRACKFEAT_* environment variables to cfg.
// Malformed values are ignored.
func ApplyEnvOverrides(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(EnvThreads)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.NumThreads = n
		}
	}
	if keys := SplitList(os.Getenv(EnvAnalyzers)); len(keys) > 0 {
		cfg.Analyzers = keys
	}
	return cfg
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
