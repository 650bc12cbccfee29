// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL           string
	SnapshotPath         string
	DatabasePath         string
	LogPath              string
	QueryLimit           int
	WindowLength         time.Duration
	UsageRefreshInterval time.Duration
	RequestTimeout       time.Duration
	QueryTimeout         time.Duration
}

// Default values
const (
	defaultAPIBaseURL           = "http://localhost:8000"
	defaultQueryLimit           = 20
	defaultWindowLength         = 5 * time.Hour
	defaultUsageRefreshInterval = 10 * time.Second
	defaultRequestTimeout       = 10 * time.Second
	defaultQueryTimeout         = 60 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		APIBaseURL:           getEnvString("STYLIST_API_URL", defaultAPIBaseURL),
		SnapshotPath:         getEnvString("SNAPSHOT_PATH", getDefaultSnapshotPath()),
		DatabasePath:         getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		LogPath:              getEnvString("LOG_PATH", getDefaultLogPath()),
		QueryLimit:           getEnvInt("USAGE_QUERY_LIMIT", defaultQueryLimit),
		WindowLength:         getEnvDuration("USAGE_WINDOW", defaultWindowLength),
		UsageRefreshInterval: getEnvDuration("USAGE_REFRESH_INTERVAL", defaultUsageRefreshInterval),
		RequestTimeout:       getEnvDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		QueryTimeout:         getEnvDuration("QUERY_TIMEOUT", defaultQueryTimeout),
	}

	if cfg.QueryLimit <= 0 {
		return nil, fmt.Errorf("USAGE_QUERY_LIMIT must be positive, got %d", cfg.QueryLimit)
	}
	if cfg.WindowLength <= 0 {
		return nil, fmt.Errorf("USAGE_WINDOW must be positive, got %v", cfg.WindowLength)
	}

	// Ensure state directories exist
	if err := ensureDir(filepath.Dir(cfg.SnapshotPath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.LogPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "stylist-chat", ".env"),
			filepath.Join(home, ".stylist-chat", ".env"),
		)
	}

	return paths
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "stylist-chat")
}

// getDefaultSnapshotPath returns the default path for the persisted usage snapshot.
func getDefaultSnapshotPath() string {
	return filepath.Join(stateDir(), "usage.json")
}

// getDefaultDatabasePath returns the default path for the query history database.
func getDefaultDatabasePath() string {
	return filepath.Join(stateDir(), "history.db")
}

// getDefaultLogPath returns the default path for the log file.
func getDefaultLogPath() string {
	return filepath.Join(stateDir(), "stylist-chat.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
