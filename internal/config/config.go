package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIVersionPath is appended to the backend base URL for every API call
const APIVersionPath = "/api/v1"

// Config holds all configuration for the application
type Config struct {
	// Backend API Configuration
	API APIConfig

	// HTTP Server Configuration
	Server ServerConfig

	// Identity provider Configuration
	Identity IdentityConfig

	// Route guard Configuration
	Guard GuardConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds backend API configuration
type APIConfig struct {
	URL     string // Base URL of the booking backend, without the version path
	Timeout time.Duration
}

// BaseURL returns the versioned base URL used by the API client
func (a APIConfig) BaseURL() string {
	return strings.TrimRight(a.URL, "/") + APIVersionPath
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr     string
	CookieSecure   bool
	AllowedOrigins []string
	SessionSecret  string // Signs the flash cookie; a random key is used when empty
}

// IdentityConfig holds the Firebase and Google OAuth settings
type IdentityConfig struct {
	FirebaseAPIKey     string
	FirebaseAuthURL    string // Identity Toolkit endpoint, overridable for emulators
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// GoogleEnabled reports whether federated Google login is configured
func (i IdentityConfig) GoogleEnabled() bool {
	return i.GoogleClientID != "" && i.GoogleClientSecret != "" && i.FirebaseAPIKey != ""
}

// GuardConfig holds the route guard path sets
type GuardConfig struct {
	Protected []string `yaml:"protected"`
	AuthOnly  []string `yaml:"authOnly"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// DefaultGuardConfig returns the built-in protected and auth-only paths
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Protected: []string{"/dashboard", "/profile", "/reservations", "/reserve"},
		AuthOnly:  []string{"/login", "/register"},
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := getEnv("API_URL", "http://localhost:5000")

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	cookieSecure := false
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		cookieSecure, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
		}
	}

	guard := DefaultGuardConfig()
	if path := os.Getenv("GUARD_ROUTES_FILE"); path != "" {
		guard, err = LoadGuardFile(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		API: APIConfig{
			URL:     apiURL,
			Timeout: timeout,
		},
		Server: ServerConfig{
			ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
			CookieSecure:   cookieSecure,
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			SessionSecret:  os.Getenv("SESSION_SECRET"),
		},
		Identity: IdentityConfig{
			FirebaseAPIKey:     os.Getenv("FIREBASE_API_KEY"),
			FirebaseAuthURL:    getEnv("FIREBASE_AUTH_URL", ""),
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/auth/google/callback"),
		},
		Guard: guard,
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// LoadGuardFile reads protected and auth-only paths from a YAML file.
// Sections left empty in the file keep their defaults.
func LoadGuardFile(path string) (GuardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GuardConfig{}, fmt.Errorf("failed to read guard routes file: %w", err)
	}

	var file GuardConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return GuardConfig{}, fmt.Errorf("failed to parse guard routes file: %w", err)
	}

	guard := DefaultGuardConfig()
	if len(file.Protected) > 0 {
		guard.Protected = file.Protected
	}
	if len(file.AuthOnly) > 0 {
		guard.AuthOnly = file.AuthOnly
	}
	return guard, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
