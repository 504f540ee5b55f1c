package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate and reused by the CLI flag definitions.
const (
	DefaultDBFile      = "db.json"
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8080
	DefaultCORSOrigin  = "*"
	DefaultCORSMethods = "GET, POST, PUT, DELETE"
	DefaultCORSHeaders = "Content-Type, Authorization"
	DefaultLogLevel    = "info"
	DefaultDebounceMS  = 100
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
	Watch    WatchConfig    `yaml:"watch"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	File string `yaml:"file"`
}

type CORSConfig struct {
	Origin  string `yaml:"origin"`
	Methods string `yaml:"methods"`
	Headers string `yaml:"headers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type WatchConfig struct {
	// DebounceMS is the trailing-edge coalescing window for change events.
	// 0 means default; a negative value disables debouncing.
	DebounceMS int `yaml:"debounce_ms"`
}

// Default returns a Config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// Load reads a yaml config file and applies defaults via Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.File == "" {
		c.Database.File = DefaultDBFile
	}
	if c.CORS.Origin == "" {
		c.CORS.Origin = DefaultCORSOrigin
	}
	if c.CORS.Methods == "" {
		c.CORS.Methods = DefaultCORSMethods
	}
	if c.CORS.Headers == "" {
		c.CORS.Headers = DefaultCORSHeaders
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = DefaultDebounceMS
	}

	return nil
}
