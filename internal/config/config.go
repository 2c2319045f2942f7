// Package config handles the glance metadata directory and its optional
// config.yaml. Every repository glance runs against gets a glance/ folder
// inside its git dir holding the cache, logs, and configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configName = "config.yaml"

	// BackendGHCLI and BackendAPI select the PR lookup implementation.
	BackendGHCLI = "gh"
	BackendAPI   = "api"
)

// LookupSettings selects the PR lookup backend.
type LookupSettings struct {
	Backend string `yaml:"backend"`
}

// Settings models glance/config.yaml. All fields are optional; defaults
// apply when the file is missing or partial.
type Settings struct {
	Model       string         `yaml:"model"`
	Temperature float32        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	Workers     int            `yaml:"workers"`
	Lookup      LookupSettings `yaml:"lookup"`
}

// Config holds the runtime configuration for one glance run.
type Config struct {
	// GlanceDir is <git-dir>/glance
	GlanceDir string

	Settings Settings
}

// InitGlanceDir creates the glance directory structure:
//
// glance/
// ├── commits/  <- one JSON record per examined commit
// ├── prs/      <- one JSON record per resolved PR
// └── logs/     <- run logs
func InitGlanceDir(glanceDir string) error {
	dirs := []string{
		filepath.Join(glanceDir, "commits"),
		filepath.Join(glanceDir, "prs"),
		filepath.Join(glanceDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return nil
}

// Load reads glance/config.yaml if present and fills in defaults.
func Load(glanceDir string) (*Config, error) {
	cfg := &Config{GlanceDir: glanceDir, Settings: defaultSettings()}

	path := filepath.Join(glanceDir, configName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Settings = parsed
	return cfg, nil
}

// LogsDir returns the directory run logs are written to.
func (c *Config) LogsDir() string {
	return filepath.Join(c.GlanceDir, "logs")
}

// OpenAIKey returns the oracle credential from the environment.
func (c *Config) OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// GitHubToken returns the API lookup credential from the environment.
func (c *Config) GitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

func defaultSettings() Settings {
	s := Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.Model == "" {
		s.Model = "gpt-4o"
	}
	if s.Temperature == 0 {
		s.Temperature = 0.3
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = 300
	}
	if s.Workers == 0 {
		s.Workers = 4
	}
	if s.Lookup.Backend == "" {
		s.Lookup.Backend = BackendGHCLI
	}
}

func (s *Settings) normalize() {
	s.Model = strings.TrimSpace(s.Model)
	s.Lookup.Backend = strings.ToLower(strings.TrimSpace(s.Lookup.Backend))
}

func (s *Settings) validate() error {
	if s.Workers < 1 || s.Workers > 32 {
		return fmt.Errorf("workers must be between 1 and 32, got %d", s.Workers)
	}
	switch s.Lookup.Backend {
	case BackendGHCLI, BackendAPI:
	default:
		return fmt.Errorf("lookup.backend must be %q or %q", BackendGHCLI, BackendAPI)
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}
