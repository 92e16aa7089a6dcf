// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the snapshot database (always absolute)
	BackendBaseURL string // Upstream trading backend, e.g. http://localhost:5000/api/v1
	Port           int
	LogLevel       string
	DevMode        bool
	AllowedOrigins []string // CORS origins for the browser dashboard
	PriceStreamURL string   // WebSocket endpoint for live price ticks (optional)
	Backup         *BackupConfig
}

// BackupConfig holds snapshot backup settings. Backups are disabled unless
// a bucket is configured.
type BackupConfig struct {
	Bucket    string
	Endpoint  string // S3-compatible endpoint; empty means AWS default
	Region    string
	AccessKey string
	SecretKey string
	Schedule  string // cron expression
}

// Enabled reports whether backups should run
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory, defaulting next to the working directory.
	// Always resolved to an absolute path and created if missing.
	dataDir := getEnv("TRADEDECK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		BackendBaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:5000/api/v1"),
		Port:           getEnvAsInt("PORT", 8080),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		PriceStreamURL: getEnv("PRICE_STREAM_URL", ""),
		Backup:         loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// loadBackupConfig loads snapshot backup configuration from the environment
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
		Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:    getEnv("BACKUP_S3_REGION", "auto"),
		AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		Schedule:  getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"), // Daily at 03:00
	}
}
