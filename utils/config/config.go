// Package config handles environment-based configuration for Argus.
package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"
)

// Config represents the complete Argus configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Docker    DockerConfig
	Dashboard DashboardConfig
	ProbeLog  ProbeLogConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string
	Port string
	Mode string // "debug" or "release"
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string
}

// DockerConfig contains Docker daemon settings.
type DockerConfig struct {
	Host string
}

// DashboardConfig contains snapshot collection settings.
type DashboardConfig struct {
	RefreshInterval   time.Duration // hint to the UI for how often to re-request
	CPUSampleInterval time.Duration // pause between the two CPU counter reads
	LogTail           int           // log lines fetched per container
}

// ProbeLogConfig contains probe log retention settings.
type ProbeLogConfig struct {
	RetentionDays int
}

// Load reads configuration from environment variables with sensible defaults.
// All environment variables use the ARGUS_ prefix.
//
// Configuration variables:
//   - ARGUS_SERVER_HOST (default: "0.0.0.0")
//   - ARGUS_SERVER_PORT (default: "8080")
//   - ARGUS_SERVER_MODE (default: "debug")
//   - ARGUS_DB_PATH (default: "/app/data/argus.db" or "./argus.db")
//   - ARGUS_DOCKER_HOST (default: "" - use DOCKER_HOST or the local socket)
//   - ARGUS_REFRESH_INTERVAL (default: "30s")
//   - ARGUS_CPU_SAMPLE_INTERVAL (default: "100ms")
//   - ARGUS_LOG_TAIL (default: "20")
//   - ARGUS_PROBE_LOG_RETENTION_DAYS (default: "30")
//
// Returns an error if validation fails.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("ARGUS_SERVER_HOST", "0.0.0.0"),
			Port: getEnv("ARGUS_SERVER_PORT", "8080"),
			Mode: getEnv("ARGUS_SERVER_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Path: getDBPath(),
		},
		Docker: DockerConfig{
			Host: getEnv("ARGUS_DOCKER_HOST", ""),
		},
		Dashboard: DashboardConfig{
			RefreshInterval:   getEnvDuration("ARGUS_REFRESH_INTERVAL", 30*time.Second),
			CPUSampleInterval: getEnvDuration("ARGUS_CPU_SAMPLE_INTERVAL", 100*time.Millisecond),
			LogTail:           getEnvInt("ARGUS_LOG_TAIL", 20),
		},
		ProbeLog: ProbeLogConfig{
			RetentionDays: getEnvInt("ARGUS_PROBE_LOG_RETENTION_DAYS", 30),
		},
	}

	// Validate configuration
	if err := validate(cfg); err != nil {
		log.Printf("Configuration validation failed: %v", err)
		return nil, errors.New("invalid configuration")
	}

	// Log loaded configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Server: %s:%s (mode: %s)", cfg.Server.Host, cfg.Server.Port, cfg.Server.Mode)
	log.Printf("  Database: %s", cfg.Database.Path)
	log.Printf("  Docker Host: %s", dockerHostLabel(cfg.Docker.Host))
	log.Printf("  Dashboard: refresh=%v, cpu_sample=%v, log_tail=%d",
		cfg.Dashboard.RefreshInterval, cfg.Dashboard.CPUSampleInterval, cfg.Dashboard.LogTail)
	log.Printf("  Probe Log Retention: %d days", cfg.ProbeLog.RetentionDays)

	return cfg, nil
}

// validate checks if the configuration is valid.
func validate(cfg *Config) error {
	if cfg.Dashboard.RefreshInterval < time.Second {
		return errors.New("refresh interval must be at least 1 second")
	}
	if cfg.Dashboard.CPUSampleInterval < 10*time.Millisecond || cfg.Dashboard.CPUSampleInterval > 5*time.Second {
		return errors.New("CPU sample interval must be between 10ms and 5s")
	}
	if cfg.Dashboard.LogTail < 1 {
		return errors.New("log tail must be at least 1 line")
	}
	if cfg.ProbeLog.RetentionDays < 1 {
		return errors.New("probe log retention days must be at least 1")
	}

	return nil
}

func dockerHostLabel(host string) string {
	if host == "" {
		return "(environment default)"
	}
	return host
}

// getDBPath determines the database path based on environment and filesystem.
// Priority:
//  1. ARGUS_DB_PATH environment variable
//  2. /app/data/argus.db (if /app/data exists - Docker container)
//  3. ./argus.db (development fallback)
func getDBPath() string {
	// Check environment variable first
	if path := os.Getenv("ARGUS_DB_PATH"); path != "" {
		return path
	}

	// Check if running in container
	if _, err := os.Stat("/app/data"); err == nil {
		return "/app/data/argus.db"
	}

	// Development fallback
	return "./argus.db"
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns a default value.
// Accepts values like "100ms", "30s", "5m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}
