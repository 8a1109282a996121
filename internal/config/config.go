package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "http://localhost:5001/"
	defaultTimeoutMS = 10000
)

var (
	ErrInvalidBaseURL = errors.New("API_BASE_URL must be an absolute http(s) URL")
	ErrInvalidTimeout = errors.New("API_TIMEOUT_MS must be a positive integer")
)

// Config holds the client configuration
type Config struct {
	Environment string
	LogJSON     string // raw LOG_JSON value; empty means "decide from environment"
	API         APIConfig
	SessionFile string // where taskctl persists the session between runs
}

// APIConfig holds remote API settings used by the HTTP client core
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	baseURL := getEnv("API_BASE_URL", defaultBaseURL)
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	timeoutMS := defaultTimeoutMS
	if raw := os.Getenv("API_TIMEOUT_MS"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeout, raw)
		}
		timeoutMS = n
	}

	return &Config{
		Environment: getEnv("APP_ENV", "production"),
		LogJSON:     os.Getenv("LOG_JSON"),
		API: APIConfig{
			BaseURL: baseURL,
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		SessionFile: getEnv("TASKCTL_SESSION_FILE", defaultSessionFile()),
	}, nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".taskctl-session.yaml")
	}
	return filepath.Join(dir, "taskctl", "session.yaml")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
