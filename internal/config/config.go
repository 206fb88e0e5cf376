package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // "sqlite3" or "postgres"
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Schedule struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`

	Queue struct {
		PerItemMinutes int `yaml:"per_item_minutes"`
		BaseMinutes    int `yaml:"base_minutes"`
	} `yaml:"queue"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "cafe.db"
	cfg.Schedule.Timezone = "America/Los_Angeles"
	cfg.Queue.PerItemMinutes = 3
	cfg.Queue.BaseMinutes = 3
	cfg.LogLevel = "info"
	return cfg
}

// Load reads a YAML configuration file, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Queue.PerItemMinutes <= 0 {
		cfg.Queue.PerItemMinutes = 3
	}
	if cfg.Queue.BaseMinutes < 0 {
		cfg.Queue.BaseMinutes = 0
	}

	return cfg, nil
}
