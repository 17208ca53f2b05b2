package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer       string   // Issuer claim for access tokens (default: almond-qrauth)
	AppIDs       []string // Optional: apps allowed to generate codes, comma separated. Empty allows any
	AllowedPages []string // Pages a checkPath render may point at (default: pages/auth/login/login)

	CompanionSecret string // Optional: shared secret admitting a trusted companion backend on scan and confirm

	DatabaseFile   string        // Path to SQLite database file (default: ./qrauth.db)
	SigningKeyFile string        // Optional: Ed25519 PEM, generated when missing. Empty means ephemeral
	SealKeyFile    string        // Optional: key material sealing issued tokens at rest. Empty means ephemeral
	QRCodeTTL      time.Duration // Lifetime of a generated code (default: 5m)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:               getEnvOrDefault("QRAUTH_ISSUER", "almond-qrauth"),
		AppIDs:               getEnvListOrDefault("QRAUTH_APP_IDS", nil),
		AllowedPages:         getEnvListOrDefault("QRAUTH_ALLOWED_PAGES", []string{"pages/auth/login/login"}),
		CompanionSecret:      os.Getenv("QRAUTH_COMPANION_SECRET"),
		DatabaseFile:         getEnvOrDefault("QRAUTH_DATABASE_FILE", "qrauth.db"),
		SigningKeyFile:       os.Getenv("QRAUTH_SIGNING_KEY_FILE"),
		SealKeyFile:          os.Getenv("QRAUTH_SEAL_KEY_FILE"),
		QRCodeTTL:            getEnvDurationOrDefault("QRAUTH_QRCODE_TTL", 5*time.Minute),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
