package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

type Config struct {
	LogLevel       string   `toml:"log_level"`
	LogFormat      string   `toml:"log_format"`
	ListenAddr     string   `toml:"listen_addr"`
	ExtractWorkers int      `toml:"extract_workers"`
	MaxEntrySize   int64    `toml:"max_entry_size"`
	OrphanMaxLen   int      `toml:"orphan_max_len"`
	Locales        []string `toml:"locales"`
	Viewer         string   `toml:"viewer"`
	Markers        Markers  `toml:"markers"`
}

// Markers holds per-locale additions to the built-in marker tables.
type Markers struct {
	Ephemeral  map[string][]string `toml:"ephemeral"`
	Attachment map[string][]string `toml:"attachment"`
}

func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		ListenAddr:     "127.0.0.1:8765",
		ExtractWorkers: 8,
		MaxEntrySize:   1 << 30,
		OrphanMaxLen:   200,
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatview", "config.toml"), nil
}

func Load() (*Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cfgPath)
}

// LoadFrom overlays the TOML file at cfgPath on the defaults. A missing file
// is not an error.
func LoadFrom(cfgPath string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Viewer = expandHome(cfg.Viewer, home)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ExtractWorkers <= 0 {
		return fmt.Errorf("extract_workers must be positive, got %d", c.ExtractWorkers)
	}
	if c.OrphanMaxLen <= 0 {
		return fmt.Errorf("orphan_max_len must be positive, got %d", c.OrphanMaxLen)
	}
	if c.MaxEntrySize <= 0 {
		return fmt.Errorf("max_entry_size must be positive, got %d", c.MaxEntrySize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
