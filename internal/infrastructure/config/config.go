// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	hints := cfg.Columns.IdentifierHints
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Sessions      SessionsConfig      `yaml:"sessions"`
	Columns       ColumnsConfig       `yaml:"columns"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds journal database configuration
type StorageConfig struct {
	// DatabasePath is a SQLite file path or ":memory:"
	DatabasePath string `yaml:"database_path"`
}

// SessionsConfig controls how long idle API sessions are kept
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ColumnsConfig holds the keywords used to suggest identifier and amount
// columns after a file is imported. Matching is case-insensitive.
type ColumnsConfig struct {
	IdentifierHints []string `yaml:"identifier_hints"`
	AmountHintsA    []string `yaml:"amount_hints_a"`
	AmountHintsB    []string `yaml:"amount_hints_b"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8085,
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			DatabasePath: ":memory:",
		},
		Sessions: SessionsConfig{
			TTL:             2 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Columns: ColumnsConfig{
			IdentifierHints: []string{"cuit"},
			AmountHintsA:    []string{"monto retenido"},
			AmountHintsB:    []string{"crédito", "monto"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// Load reads and parses the config file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("RECON_PORT", def.Server.Port),
			AllowedOrigins: getEnvList("RECON_ALLOWED_ORIGINS", def.Server.AllowedOrigins),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECON_DB_PATH", def.Storage.DatabasePath),
		},
		Sessions: SessionsConfig{
			TTL:             getEnvDuration("RECON_SESSION_TTL", def.Sessions.TTL),
			CleanupInterval: getEnvDuration("RECON_SESSION_CLEANUP", def.Sessions.CleanupInterval),
		},
		Columns: ColumnsConfig{
			IdentifierHints: getEnvList("RECON_IDENTIFIER_HINTS", def.Columns.IdentifierHints),
			AmountHintsA:    getEnvList("RECON_AMOUNT_HINTS_A", def.Columns.AmountHintsA),
			AmountHintsB:    getEnvList("RECON_AMOUNT_HINTS_B", def.Columns.AmountHintsB),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", def.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", def.Observability.Logging.Format),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// getEnvDuration retrieves a duration such as "90m" with a fallback default
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList retrieves a comma-separated list with a fallback default
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
