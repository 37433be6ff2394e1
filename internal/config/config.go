// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Auth mode values for Config.AuthMode.
const (
	AuthModeSession = "session"
	AuthModeToken   = "token"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	DBPath             string
	AuthMode           string // "session" (store lookup) or "token" (signed token)
	TokenSecret        string
	RegistrationSecret string
	HistoryLimit       int
	SessionTTL         time.Duration
	FrontendURL        string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBPath:             getEnv("DB_PATH", "./data/chat.db"),
		AuthMode:           strings.ToLower(getEnv("AUTH_MODE", AuthModeSession)),
		TokenSecret:        getEnv("TOKEN_SECRET", ""),
		RegistrationSecret: getEnv("REGISTRATION_SECRET", ""),
		HistoryLimit:       getEnvInt("HISTORY_LIMIT", 10),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.AuthMode {
	case AuthModeSession:
		if c.RegistrationSecret == "" {
			return fmt.Errorf("REGISTRATION_SECRET is required in session auth mode")
		}
	case AuthModeToken:
		if c.TokenSecret == "" {
			return fmt.Errorf("TOKEN_SECRET is required in token auth mode")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeSession, AuthModeToken, c.AuthMode)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
