// internal/config/config.go
//
// This package handles configuration and the .parseforge directory
// structure. Every project that uses parseforge gets a .parseforge/ folder
// created in its root: accepted parsers, run logs, and config.yaml live
// there.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ForgeDir is the name of the directory we create in each project.
	ForgeDir = ".parseforge"

	defaultProvider       = "openai"
	defaultAttempts       = 3
	defaultSandboxTimeout = 30 * time.Second
)

const defaultProjectConfigYAML = `# parseforge project configuration
version: 1

# Default text-generation provider: openai, groq, or ollama.
provider: openai

# Retry budget: maximum candidate attempts per run.
attempts: 3

# Wall-clock limit for executing one candidate in the sandbox.
sandbox_timeout: 30s

# Per-provider overrides. Model defaults are applied when omitted.
providers:
  openai:
    model: gpt-4o-mini
  groq:
    model: llama-3.1-8b-instant
  # ollama:
  #   model: qwen2.5-coder
  #   base_url: http://localhost:11434
`

// ProviderConfig overrides model and endpoint for one provider.
type ProviderConfig struct {
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ProjectConfig models .parseforge/config.yaml.
type ProjectConfig struct {
	Version        int                       `yaml:"version"`
	Provider       string                    `yaml:"provider"`
	Attempts       int                       `yaml:"attempts"`
	SandboxTimeout string                    `yaml:"sandbox_timeout"`
	Providers      map[string]ProviderConfig `yaml:"providers,omitempty"`
}

// Config holds the runtime configuration for parseforge.
type Config struct {
	// ProjectDir is the directory where the user ran `parseforge` from.
	ProjectDir string

	// ForgeProjectDir is ProjectDir/.parseforge.
	ForgeProjectDir string

	Project ProjectConfig
}

// InitForgeDir creates the .parseforge directory structure in the given
// project directory.
//
// Structure created:
// .parseforge/
// ├── parsers/  <- Accepted parsers and their check manifests
// └── logs/     <- Run logbooks
func InitForgeDir(projectDir string) error {
	forgeDir := filepath.Join(projectDir, ForgeDir)
	dirs := []string{
		filepath.Join(forgeDir, "parsers"),
		filepath.Join(forgeDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(forgeDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ForgeProjectDir: filepath.Join(projectDir, ForgeDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParsersDir returns the directory holding accepted parsers.
func (c *Config) ParsersDir() string {
	return filepath.Join(c.ForgeProjectDir, "parsers")
}

// LogsDir returns the directory holding run logbooks.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ForgeProjectDir, "logs")
}

// LogbookPath returns the on-disk location of the run logbook.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "parseforge.log")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ForgeProjectDir, "config.yaml")
}

// Provider returns the configured default provider.
func (c *Config) Provider() string {
	return c.Project.Provider
}

// Attempts returns the configured retry budget.
func (c *Config) Attempts() int {
	return c.Project.Attempts
}

// SandboxTimeout returns the configured candidate execution limit.
func (c *Config) SandboxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Project.SandboxTimeout)
	if err != nil || d <= 0 {
		return defaultSandboxTimeout
	}
	return d
}

// ProviderOverride returns the configured overrides for a provider name.
func (c *Config) ProviderOverride(name string) ProviderConfig {
	return c.Project.Providers[strings.ToLower(strings.TrimSpace(name))]
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:        1,
		Provider:       defaultProvider,
		Attempts:       defaultAttempts,
		SandboxTimeout: defaultSandboxTimeout.String(),
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Provider) == "" {
		pc.Provider = defaultProvider
	}
	if pc.Attempts == 0 {
		pc.Attempts = defaultAttempts
	}
	if strings.TrimSpace(pc.SandboxTimeout) == "" {
		pc.SandboxTimeout = defaultSandboxTimeout.String()
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Provider = strings.ToLower(strings.TrimSpace(pc.Provider))
	pc.SandboxTimeout = strings.TrimSpace(pc.SandboxTimeout)
	if len(pc.Providers) > 0 {
		normalized := make(map[string]ProviderConfig, len(pc.Providers))
		for name, override := range pc.Providers {
			override.Model = strings.TrimSpace(override.Model)
			override.BaseURL = strings.TrimSpace(override.BaseURL)
			normalized[strings.ToLower(strings.TrimSpace(name))] = override
		}
		pc.Providers = normalized
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Provider {
	case "openai", "groq", "ollama":
	default:
		return fmt.Errorf("provider must be openai, groq, or ollama")
	}
	if pc.Attempts < 1 {
		return fmt.Errorf("attempts must be >= 1")
	}
	if _, err := time.ParseDuration(pc.SandboxTimeout); err != nil {
		return fmt.Errorf("sandbox_timeout is not a duration: %w", err)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
