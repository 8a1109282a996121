package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/taskboard/internal/apipaths"
	"github.com/taskboard/internal/session"
)

// Config holds gateway configuration
type Config struct {
	FrontendURL       string   // Page origin navigations are forwarded to (e.g. http://localhost:3000)
	ListenAddress     string   // Address to listen on (e.g. :8080)
	AccessTokenCookie string   // Cookie whose presence means "signed in"
	LoginPath         string   // Where signed-out users are sent
	HomePath          string   // Where signed-in users are sent
	PublicPaths       []string // Exact paths reachable without a session
	Environment       string
}

var (
	ErrInvalidFrontendURL = errors.New("FRONTEND_URL must be an absolute http(s) URL")
	// ErrRedirectLoop means the login page is not public or the home page
	// is; either would bounce a navigation back and forth forever.
	ErrRedirectLoop = errors.New("gateway routes would redirect in a loop")
)

// LoadConfig loads gateway configuration from environment
func LoadConfig() (*Config, error) {
	publicPaths := []string{apipaths.LoginPage, apipaths.RegisterPage}
	if raw := os.Getenv("PUBLIC_PATHS"); raw != "" {
		publicPaths = parseCommaSeparatedList(raw)
	}

	cfg := &Config{
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		ListenAddress:     getEnv("GATEWAY_LISTEN_ADDRESS", ":8080"),
		AccessTokenCookie: getEnv("ACCESS_TOKEN_COOKIE", session.AccessTokenCookie),
		LoginPath:         getEnv("LOGIN_PATH", apipaths.LoginPage),
		HomePath:          getEnv("HOME_PATH", apipaths.HomePage),
		PublicPaths:       publicPaths,
		Environment:       getEnv("APP_ENV", "production"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the guard cannot run safely with
func (c *Config) Validate() error {
	u, err := url.Parse(c.FrontendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidFrontendURL, c.FrontendURL)
	}
	if c.AccessTokenCookie == "" {
		return errors.New("ACCESS_TOKEN_COOKIE cannot be empty")
	}

	public := make(map[string]bool, len(c.PublicPaths))
	for _, p := range c.PublicPaths {
		public[p] = true
	}
	if !public[c.LoginPath] {
		return fmt.Errorf("%w: login path %q is not public", ErrRedirectLoop, c.LoginPath)
	}
	if public[c.HomePath] {
		return fmt.Errorf("%w: home path %q is public", ErrRedirectLoop, c.HomePath)
	}
	return nil
}

// parseCommaSeparatedList splits a comma-separated string into a slice
func parseCommaSeparatedList(s string) []string {
	items := strings.Split(s, ",")
	result := make([]string, 0, len(items))

	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}

	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
