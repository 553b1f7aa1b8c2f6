package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port         string
	DataDir      string
	LogLevel     slog.Level
	LogFormat    string
	WatchEnabled bool

	// Derived directories under DataDir.
	StorageDir  string
	MetadataDir string
	LibraryDir  string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	// BACKEND_PORT wins over PORT when both are set.
	port := os.Getenv("BACKEND_PORT")
	if port == "" {
		port = getEnv("PORT", "3456")
	}

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:         port,
		DataDir:      dataDir,
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		WatchEnabled: getEnv("WATCH_ENABLED", "true") != "false",
		StorageDir:   filepath.Join(dataDir, "storage"),
		MetadataDir:  filepath.Join(dataDir, "metadata"),
		LibraryDir:   filepath.Join(dataDir, "library"),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	// Create the data directory tree up front so the stores can assume it.
	for _, dir := range []string{cfg.StorageDir, cfg.MetadataDir, cfg.LibraryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
