package config

import (
	"os"
	"strconv"
)

// Config holds process-wide configuration. It is initialized once at start
// and read-only afterward.
type Config struct {
	// Env selects the logger profile: "production" or anything else for
	// development output.
	Env        string
	ServerPort string

	// Keyed secrets. AccountCipherKey encrypts deposit account numbers at
	// rest; FingerprintKey derives the constant-time lookup fingerprint;
	// SessionStampKey signs the session HMAC stamp.
	AccountCipherKey string
	FingerprintKey   string
	SessionStampKey  string

	// Market-data service.
	MarketDataURL       string
	MarketDataTimeoutMS int

	// Snapshot scheduling, cron syntax. Empty disables the job.
	SnapshotCron string

	// Rate limiting for auth endpoints.
	AuthRateLimit  int
	AuthRateWindow int // seconds
}

// Load reads configuration from environment variables with development
// defaults matching docker-compose.
func Load() *Config {
	return &Config{
		Env:                 getEnv("APP_ENV", "development"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		AccountCipherKey:    getEnv("ACCOUNT_CIPHER_KEY", "dev-account-cipher-key-32-bytes!"),
		FingerprintKey:      getEnv("FINGERPRINT_KEY", "dev-fingerprint-key"),
		SessionStampKey:     getEnv("SESSION_STAMP_KEY", "dev-session-stamp-key"),
		MarketDataURL:       getEnv("MARKET_DATA_URL", "http://localhost:8081"),
		MarketDataTimeoutMS: getEnvInt("MARKET_DATA_TIMEOUT_MS", 5000),
		SnapshotCron:        getEnv("SNAPSHOT_CRON", "0 6 1 * *"),
		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow:      getEnvInt("AUTH_RATE_WINDOW_SECONDS", 300),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
