// Package config loads application configuration from environment variables.
// All variables use the EDU_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Bot        BotConfig
	Generation GenerationConfig
	Log        LogConfig
	ContentDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	URL string
}

// BotConfig holds credentials for the external conversational bot API used
// for course generation and tutoring. All three must be set before any
// request is attempted.
type BotConfig struct {
	APIURL string
	Token  string
	BotID  int
}

// GenerationConfig holds course generation pipeline settings.
type GenerationConfig struct {
	ModuleDelaySeconds int // pause between consecutive module requests
	RequestTimeout     int // seconds per bot API call
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with EDU_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("EDU_SERVER_PORT", 8080),
			Host: envStr("EDU_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("EDU_DATABASE_URL", ""),
			MaxConns: envInt("EDU_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("EDU_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("EDU_CACHE_URL", ""),
		},
		Bot: BotConfig{
			APIURL: envStr("EDU_BOT_API_URL", ""),
			Token:  envStr("EDU_BOT_TOKEN", ""),
			BotID:  envInt("EDU_BOT_ID", 0),
		},
		Generation: GenerationConfig{
			ModuleDelaySeconds: envInt("EDU_GENERATION_MODULE_DELAY", 5),
			RequestTimeout:     envInt("EDU_GENERATION_REQUEST_TIMEOUT", 120),
		},
		Log: LogConfig{
			Level:  envStr("EDU_LOG_LEVEL", "info"),
			Format: envStr("EDU_LOG_FORMAT", "json"),
		},
		ContentDir: envStr("EDU_CONTENT_DIR", "./content"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bot.APIURL == "" {
		return fmt.Errorf("EDU_BOT_API_URL is required")
	}
	if c.Bot.Token == "" {
		return fmt.Errorf("EDU_BOT_TOKEN is required")
	}
	if c.Bot.BotID == 0 {
		return fmt.Errorf("EDU_BOT_ID is required")
	}
	if c.Generation.ModuleDelaySeconds < 0 {
		return fmt.Errorf("EDU_GENERATION_MODULE_DELAY must be non-negative, got %d", c.Generation.ModuleDelaySeconds)
	}
	return nil
}

// BotConfigured returns true if all three bot API credentials are set.
func (c *Config) BotConfigured() bool {
	return c.Bot.APIURL != "" && c.Bot.Token != "" && c.Bot.BotID != 0
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
