/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from operating system environment variables. A .env file in the working
directory, when present, is loaded first; variables already set in the environment win.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig contains all configuration parameters required for the relay to run.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	LogLevel    string

	// Security Settings
	AllowedOrigins []string

	// Relay Settings
	HeartbeatInterval time.Duration
	SendQueueSize     int
	MaxMessageSize    int64

	// Rate Limits
	MessageRate  float64
	MessageBurst int
	ConnectRate  float64
	ConnectBurst int
}

// IsDevelopment reports whether the relay runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads an optional .env file and then reads the configuration from the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return FromEnv()
}

// FromEnv reads and validates the configuration from environment variables,
// applying defaults for anything unset.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Server Settings ---
	cfg.Environment = getString("ENVIRONMENT", "development")

	if cfg.Port, err = getInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	cfg.LogLevel = strings.ToLower(getString("LOG_LEVEL", "info"))

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// --- Relay Settings ---
	if cfg.HeartbeatInterval, err = getDuration("HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %s", cfg.HeartbeatInterval)
	}

	if cfg.SendQueueSize, err = getInt("SEND_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.SendQueueSize < 1 {
		return nil, fmt.Errorf("SEND_QUEUE_SIZE must be at least 1, got %d", cfg.SendQueueSize)
	}

	maxSize, err := getInt("MAX_MESSAGE_SIZE", 4096)
	if err != nil {
		return nil, err
	}
	if maxSize < 64 {
		return nil, fmt.Errorf("MAX_MESSAGE_SIZE must be at least 64 bytes, got %d", maxSize)
	}
	cfg.MaxMessageSize = int64(maxSize)

	// --- Rate Limits ---
	if cfg.MessageRate, err = getFloat("MESSAGE_RATE", 60); err != nil {
		return nil, err
	}
	if cfg.MessageBurst, err = getInt("MESSAGE_BURST", 120); err != nil {
		return nil, err
	}
	if cfg.ConnectRate, err = getFloat("CONNECT_RATE", 5); err != nil {
		return nil, err
	}
	if cfg.ConnectBurst, err = getInt("CONNECT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.MessageRate < 0 || cfg.ConnectRate < 0 || cfg.MessageBurst < 0 || cfg.ConnectBurst < 0 {
		return nil, fmt.Errorf("rate limit settings must not be negative")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return d, nil
}
