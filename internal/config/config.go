// Package config loads the commerce server configuration and catalog seed
// files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the server configuration.
const (
	DefaultPort         = 8080
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 15 * time.Second
)

// Config is the commerce-server configuration file.
type Config struct {
	Port         int           `yaml:"port"`
	Verbose      bool          `yaml:"verbose"`
	SeedFile     string        `yaml:"seed_file"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Load reads the config at path. An empty path yields the defaults; zero
// fields in the file are filled from the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	def := Default()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	return cfg, nil
}

// ApplyEnv overrides the port from the PORT environment variable.
func (c *Config) ApplyEnv() error {
	raw := os.Getenv("PORT")
	if raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 {
		return fmt.Errorf("invalid PORT %q", raw)
	}
	c.Port = port
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
