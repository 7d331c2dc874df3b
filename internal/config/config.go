package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QuickBooksClientID     string
	QuickBooksClientSecret string
	QuickBooksRedirectURI  string
	QuickBooksEnvironment  string

	IdentityIssuerURL string
	IdentityClientID  string

	SMTPHost        string
	SMTPPort        string
	SMTPAccount     string
	SMTPPassword    string
	SMTPFrom        string
	InviteAcceptURL string

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "books-connect"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		QuickBooksClientID:     strings.TrimSpace(os.Getenv("QUICKBOOKS_CLIENT_ID")),
		QuickBooksClientSecret: strings.TrimSpace(os.Getenv("QUICKBOOKS_CLIENT_SECRET")),
		QuickBooksRedirectURI:  strings.TrimSpace(os.Getenv("QUICKBOOKS_REDIRECT_URI")),
		QuickBooksEnvironment:  getEnv("QUICKBOOKS_ENVIRONMENT", "sandbox"),

		IdentityIssuerURL: strings.TrimSpace(os.Getenv("IDENTITY_ISSUER_URL")),
		IdentityClientID:  strings.TrimSpace(os.Getenv("IDENTITY_CLIENT_ID")),

		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPAccount:     os.Getenv("SMTP_ACCOUNT"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        os.Getenv("SMTP_FROM"),
		InviteAcceptURL: getEnv("INVITE_ACCEPT_URL", "https://app.brightdesk.dev/invite"),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.QuickBooksClientID == "" || cfg.QuickBooksClientSecret == "" {
		return Config{}, fmt.Errorf("QUICKBOOKS_CLIENT_ID and QUICKBOOKS_CLIENT_SECRET are required")
	}
	if cfg.QuickBooksRedirectURI == "" {
		return Config{}, fmt.Errorf("QUICKBOOKS_REDIRECT_URI is required")
	}
	if cfg.IdentityIssuerURL == "" {
		return Config{}, fmt.Errorf("IDENTITY_ISSUER_URL is required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
