package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/turingchat/go/internal/match"
	"gopkg.in/yaml.v3"
)

// Config is the yaml-backed service configuration. Every value has a
// default; env vars override connection endpoints at runtime.
type Config struct {
	Match struct {
		SessionSeconds   int `yaml:"session_seconds"`
		TurnSeconds      int `yaml:"turn_seconds"`
		SessionLowTimeAt int `yaml:"session_low_time_at"`
		TurnLowTimeAt    int `yaml:"turn_low_time_at"`
		CleanupGraceSec  int `yaml:"cleanup_grace_sec"`
	} `yaml:"match"`
}

// DatabaseConfig is assembled from DB_* env vars.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return &config, nil
}

// matchConfig converts the yaml section to engine budgets, filling defaults
// for anything left unset.
func matchConfig(config *Config) match.Config {
	cfg := match.DefaultConfig()
	if config.Match.SessionSeconds > 0 {
		cfg.SessionSeconds = config.Match.SessionSeconds
	}
	if config.Match.TurnSeconds > 0 {
		cfg.TurnSeconds = config.Match.TurnSeconds
	}
	if config.Match.SessionLowTimeAt > 0 {
		cfg.SessionLowTimeAt = config.Match.SessionLowTimeAt
	}
	if config.Match.TurnLowTimeAt > 0 {
		cfg.TurnLowTimeAt = config.Match.TurnLowTimeAt
	}
	if config.Match.CleanupGraceSec > 0 {
		cfg.CleanupGrace = time.Duration(config.Match.CleanupGraceSec) * time.Second
	}
	return cfg
}
