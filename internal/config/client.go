package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// Client configuration errors
var (
	ErrConfigMissing     = errors.New("backend configuration missing")
	ErrConfigPlaceholder = errors.New("backend configuration still holds a placeholder value")
)

// ClientConfig holds what the terminal client needs to reach the backend
type ClientConfig struct {
	BaseURL   string
	AnonKey   string
	TokenFile string
	LogLevel  string
}

var placeholderMarkers = []string{
	"your-",
	"your_",
	"changeme",
	"change-me",
	"placeholder",
}

// filler keys such as "xxxx" only count when they are the whole value
var fillerValue = regexp.MustCompile(`^x+$`)

var exampleHosts = []string{
	"example.com",
	"example.org",
	"example.net",
}

// LoadClient reads and validates the client configuration
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		BaseURL:   getEnv("ESTATEHUB_URL", ""),
		AnonKey:   getEnv("ESTATEHUB_ANON_KEY", ""),
		TokenFile: getEnv("ESTATEHUB_TOKEN_FILE", ""),
		LogLevel:  getEnv("LOG_LEVEL", "warn"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// Validate rejects missing or placeholder backend settings
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: ESTATEHUB_URL", ErrConfigMissing)
	}
	if c.AnonKey == "" {
		return fmt.Errorf("%w: ESTATEHUB_ANON_KEY", ErrConfigMissing)
	}
	if IsPlaceholder(c.AnonKey) {
		return fmt.Errorf("%w: ESTATEHUB_ANON_KEY", ErrConfigPlaceholder)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: ESTATEHUB_URL is not an http(s) URL", ErrConfigMissing)
	}
	if IsPlaceholder(c.BaseURL) || isExampleHost(u.Hostname()) {
		return fmt.Errorf("%w: ESTATEHUB_URL", ErrConfigPlaceholder)
	}
	return nil
}

// IsPlaceholder reports values copied unchanged from a sample env file
func IsPlaceholder(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		return true
	}
	if fillerValue.MatchString(s) {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func isExampleHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range exampleHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
