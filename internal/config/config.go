// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the sqlite databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// Market data
	CoinGeckoBaseURL   string
	CoinGeckoAPIKey    string
	DerivativesBaseURL string

	// Pass-2 enrichment
	SentimentServiceURL string
	SentimentAPIKey     string

	// Notification (best-effort, scan completion)
	NotifyWebhookURL string
	NotifyEmailTo    string

	// Scheduled scans. Empty cron expression disables the scheduler.
	ScanCron     string
	ScanCronType string

	// Backup to S3-compatible storage
	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup configuration
type BackupConfig struct {
	Enabled        bool
	Endpoint       string // S3-compatible endpoint URL (e.g. R2, MinIO)
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	RetentionCount int // Number of backups to keep remotely
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("COINSCAN_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path and ensure the directory exists
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("COINSCAN_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		CoinGeckoBaseURL:   getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:    getEnv("COINGECKO_API_KEY", ""),
		DerivativesBaseURL: getEnv("DERIVATIVES_BASE_URL", ""),

		SentimentServiceURL: getEnv("SENTIMENT_SERVICE_URL", ""),
		SentimentAPIKey:     getEnv("SENTIMENT_API_KEY", ""),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		NotifyEmailTo:    getEnv("NOTIFY_EMAIL_TO", ""),

		ScanCron:     getEnv("SCAN_CRON", ""),
		ScanCronType: getEnv("SCAN_CRON_TYPE", "quick"),

		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("backup enabled but BACKUP_BUCKET not set")
		}
		if c.Backup.AccessKey == "" || c.Backup.SecretKey == "" {
			return fmt.Errorf("backup enabled but credentials not set")
		}
	}
	return nil
}

// loadBackupConfig loads backup configuration from environment variables
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:        getEnvAsBool("BACKUP_ENABLED", false),
		Endpoint:       getEnv("BACKUP_S3_ENDPOINT", ""),
		Bucket:         getEnv("BACKUP_BUCKET", ""),
		AccessKey:      getEnv("BACKUP_ACCESS_KEY", ""),
		SecretKey:      getEnv("BACKUP_SECRET_KEY", ""),
		Region:         getEnv("BACKUP_REGION", "auto"),
		RetentionCount: getEnvAsInt("BACKUP_RETENTION_COUNT", 7),
	}
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
