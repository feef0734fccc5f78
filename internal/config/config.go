package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken           string
	PollTimeoutSeconds int

	// Database
	SQLiteDBPath string

	// Trivia lookup
	TriviaBaseURL string
	TriviaTimeout time.Duration

	// Ledger
	DefaultCurrency string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		BotToken:           getEnv("BOT_TOKEN", ""),
		PollTimeoutSeconds: getEnvInt("POLL_TIMEOUT_SECONDS", 60),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendbot.db"),

		TriviaBaseURL: getEnv("TRIVIA_BASE_URL", "http://numbersapi.com"),
		TriviaTimeout: getEnvDuration("TRIVIA_TIMEOUT", 3*time.Second),

		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "RUB"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.BotToken == "" {
		errors = append(errors, "BOT_TOKEN is required")
	}

	if c.PollTimeoutSeconds < 1 || c.PollTimeoutSeconds > 300 {
		errors = append(errors, fmt.Sprintf("invalid poll timeout %d: must be between 1 and 300 seconds", c.PollTimeoutSeconds))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if parsedURL, err := url.Parse(c.TriviaBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid trivia base URL '%s': %v", c.TriviaBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid trivia base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.TriviaTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid trivia timeout %v: must be at least 100ms", c.TriviaTimeout))
	} else if c.TriviaTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid trivia timeout %v: must be at most 1 minute", c.TriviaTimeout))
	}

	if len(c.DefaultCurrency) != 3 || strings.ToUpper(c.DefaultCurrency) != c.DefaultCurrency {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a 3-letter uppercase code", c.DefaultCurrency))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
