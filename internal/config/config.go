// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds everything the server needs to run.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DBPath is the SQLite database file path.
	DBPath string

	// LineChannelToken authenticates against the Messaging API.
	LineChannelToken string

	// SlipOKAPIURL is the full per-account verification endpoint.
	SlipOKAPIURL string

	// SlipOKAPIKey is the x-authorization key for SlipOKAPIURL.
	SlipOKAPIKey string

	// CronSecret guards the scheduler endpoints. Empty disables the
	// guard.
	CronSecret string

	// JWTSecret signs account-link tokens.
	JWTSecret string
}

// Load reads configuration from the environment. The chat token, slip
// verification credentials and JWT secret are required; the rest have
// development defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./data/harnkan.db"),
		LineChannelToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		SlipOKAPIURL:     os.Getenv("SLIPOK_API_URL"),
		SlipOKAPIKey:     os.Getenv("SLIPOK_API_KEY"),
		CronSecret:       os.Getenv("CRON_SECRET"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
	}

	if cfg.LineChannelToken == "" {
		return nil, fmt.Errorf("LINE_CHANNEL_ACCESS_TOKEN is not set")
	}
	if cfg.SlipOKAPIURL == "" || cfg.SlipOKAPIKey == "" {
		return nil, fmt.Errorf("SLIPOK_API_URL and SLIPOK_API_KEY must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
