package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	BaseURL    string // Public URL of this client, used for OAuth redirects
	APIURL     string // Backend word/generation service

	// Durable local storage
	DatabaseType  string // sqlite, postgres, mysql
	DatabasePath  string
	DatabaseURL   string
	StorageSecret string // Seals stored tokens and keys when set

	// Identity provider
	AuthProvider       string
	GoogleClientID     string
	GoogleClientSecret string
	OIDCIssuerURL      string

	RequestTimeout     time.Duration
	GenerateRateLimit  int
	GenerateRateWindow time.Duration
	FlashcardLimit     int

	// Review summary email (disabled when SESFromEmail is empty)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("PORT", "5173"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		APIURL:             strings.TrimRight(getEnv("API_URL", "http://127.0.0.1:8000"), "/"),
		DatabaseType:       getEnv("DB_TYPE", "sqlite"),
		DatabasePath:       getEnv("DB_PATH", "./nauczsie.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		StorageSecret:      getEnv("STORAGE_SECRET", ""),
		AuthProvider:       getEnv("AUTH_PROVIDER", "google"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OIDCIssuerURL:      getEnv("OIDC_ISSUER_URL", ""),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		GenerateRateLimit:  getInt("GENERATE_RATE_LIMIT", 10),
		GenerateRateWindow: getDuration("GENERATE_RATE_WINDOW", time.Minute),
		FlashcardLimit:     getInt("FLASHCARD_LIMIT", 20),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "NauczSie"),
		Debug:              getEnv("DEBUG", "") == "true",
	}
}

// OAuthConfigured reports whether identity provider credentials are present
func (c *Config) OAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// RedirectBaseURL returns the base URL used for OAuth callbacks
func (c *Config) RedirectBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "http://localhost:" + c.ServerPort
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
