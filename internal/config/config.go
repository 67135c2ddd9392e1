// Package config loads the studio configuration from a YAML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the serve command looks when no --config is given.
const DefaultPath = "flowlab.yaml"

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// RendererConfig holds the external rendering collaborator settings.
type RendererConfig struct {
	Endpoint string   `yaml:"endpoint" json:"endpoint"`
	Fallback string   `yaml:"fallback" json:"fallback"`
	Timeout  Duration `yaml:"timeout" json:"timeout"`
	Scale    int      `yaml:"scale" json:"scale"`
}

// StoreConfig selects and configures the session persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "file" or "redis".
	Backend string `yaml:"backend" json:"backend"`

	// Dir is the session directory for the file backend.
	Dir string `yaml:"dir" json:"dir"`

	// Redis settings, used when Backend is "redis".
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	TTL      Duration `yaml:"ttl" json:"ttl"`
}

// Config is the root configuration for the flowlab server and CLI.
type Config struct {
	Server       ServerConfig   `yaml:"server" json:"server"`
	Renderer     RendererConfig `yaml:"renderer" json:"renderer"`
	Store        StoreConfig    `yaml:"store" json:"store"`
	HistoryLimit int            `yaml:"history_limit" json:"history_limit"`
	LogLevel     string         `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Renderer: RendererConfig{
			Timeout: Duration(15 * time.Second),
			Scale:   2,
		},
		Store: StoreConfig{
			Backend: "memory",
			Dir:     ".flowlab/sessions",
			Addr:    "localhost:6379",
		},
		LogLevel: "info",
	}
}

// Load reads a configuration file (YAML or JSON). A missing file at the
// default path is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file or redis)", c.Store.Backend)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}
