// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	CatalogFile      string
	CatalogFeedURL   string
	RefreshInterval  time.Duration
	SessionIdle      time.Duration
	MetricsAddr      string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/catalog.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	refresh, err := minutes("CATALOG_REFRESH_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	idle, err := minutes("SESSION_IDLE_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken: token,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		CatalogFile:      os.Getenv("CATALOG_FILE"),
		CatalogFeedURL:   os.Getenv("CATALOG_FEED_URL"),
		RefreshInterval:  refresh,
		SessionIdle:      idle,
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}, nil
}

// minutes parses a duration in minutes from key, bounded to 1..1440.
func minutes(key string, def int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Minute, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 1440 {
		return 0, fmt.Errorf("%s must be between 1 and 1440 minutes, got %q", key, raw)
	}
	return time.Duration(n) * time.Minute, nil
}
