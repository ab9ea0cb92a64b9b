package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for faarc.
type Config struct {
	BaseURL         string `toml:"base_url"`
	UserAgent       string `toml:"user_agent"`
	MinDelaySeconds int    `toml:"min_delay_seconds"`
	LogDir          string `toml:"log_dir"`
}

// DefaultBaseURL points at the public FAExport mirror of the site API.
const DefaultBaseURL = "https://faexport.spangle.org.uk"

// NewConfig creates a Config with the default values and the given log
// directory.
func NewConfig(logDir string) *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		UserAgent:       "faarc/1.0",
		MinDelaySeconds: 5,
		LogDir:          logDir,
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault reads the config file at path, falling back to defaults when
// the file does not exist. Archiving must work without a prior `config init`.
func LoadOrDefault(path, logDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewConfig(logDir), nil
	}
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg, logDir)
	return cfg, nil
}

// applyDefaults fills in any fields the config file left empty.
func applyDefaults(cfg *Config, logDir string) {
	def := NewConfig(logDir)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MinDelaySeconds <= 0 {
		cfg.MinDelaySeconds = def.MinDelaySeconds
	}
	if cfg.LogDir == "" {
		cfg.LogDir = def.LogDir
	}
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
