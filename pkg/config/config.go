package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. DESIGNRULE_SERVER_ADDR.
const EnvPrefix = "DESIGNRULE"

// Config is the complete design-rule configuration.
type Config struct {
	Extraction ExtractionConfig `toml:"extraction"`
	Output     OutputConfig     `toml:"output"`
	Server     ServerConfig     `toml:"server"`
}

// ExtractionConfig tunes pixel sampling.
type ExtractionConfig struct {
	Stride         int `toml:"stride" split_words:"true"`
	AlphaThreshold int `toml:"alpha_threshold" split_words:"true"`
	MaxColors      int `toml:"max_colors" split_words:"true"`
}

// OutputConfig controls where the rule is written.
type OutputConfig struct {
	File string `toml:"file" split_words:"true"`
}

// ServerConfig configures the HTTP drop page.
type ServerConfig struct {
	Addr        string `toml:"addr" split_words:"true"`
	MaxUploadMB int64  `toml:"max_upload_mb" split_words:"true"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Stride:         10,
			AlphaThreshold: 128,
			MaxColors:      6,
		},
		Output: OutputConfig{
			File: "DESIGN_RULE.md",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 20,
		},
	}
}

// ConfigDir returns $XDG_CONFIG_HOME/design-rule, or ~/.config/design-rule.
func ConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "design-rule"), nil
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds the configuration from the defaults, the TOML file at path and the
// DESIGNRULE_* environment variables, in that order. An empty path means the default
// location, which may be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %q: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.Extraction.Stride <= 0 {
		return fmt.Errorf("extraction.stride must be positive, got %d", c.Extraction.Stride)
	}
	if c.Extraction.AlphaThreshold < 1 || c.Extraction.AlphaThreshold > 255 {
		return fmt.Errorf("extraction.alpha_threshold must be in [1, 255], got %d", c.Extraction.AlphaThreshold)
	}
	if c.Extraction.MaxColors <= 0 {
		return fmt.Errorf("extraction.max_colors must be positive, got %d", c.Extraction.MaxColors)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// Save writes the configuration as TOML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return c.Encode(f)
}

// Encode writes the configuration as TOML to w.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
