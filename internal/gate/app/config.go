package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, read once from the environment and
// passed into each component explicitly.
type Config struct {
	Issuer string // Required: public base URL of this service (e.g. https://gate.example.com)

	StaticClientID     string // Required: pre-provisioned client identifier
	StaticClientSecret string // Required: pre-provisioned client secret
	APIKey             string // Required: the static bearer credential handed out on token exchange

	Password     string // Shared operator password (plaintext); ignored when PasswordHash is set
	PasswordHash string // Optional: argon2id PHC hash of the operator password
	TOTPSecret   string // Optional: base32 TOTP secret; when set, logins require a code

	SessionSecret string        // Required: HMAC key for the session cookie
	SessionTTL    time.Duration // Session cookie lifetime (default: 12h)

	AllowedRedirectPrefixes []string      // Static-client redirect_uri prefixes (default: https://claude.ai/, http://localhost:)
	DefaultScopes           []string      // Scopes reported when a code carries none
	CodeTTL                 time.Duration // Authorization code lifetime (default: 10m)
	ClientIDFallback        bool          // Adopt client_id from the code record when omitted (default: true)

	DatabaseFile         string        // Path to SQLite database file (default: gate.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	AuditRetention       time.Duration // How long audit events are kept (default: 720h)
}

// LoadConfig reads configuration from the environment.
func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("GATE_ISSUER", "http://localhost:8080"),

		StaticClientID:     os.Getenv("GATE_STATIC_CLIENT_ID"),
		StaticClientSecret: os.Getenv("GATE_STATIC_CLIENT_SECRET"),
		APIKey:             os.Getenv("GATE_API_KEY"),

		Password:     os.Getenv("GATE_PASSWORD"),
		PasswordHash: os.Getenv("GATE_PASSWORD_HASH"),
		TOTPSecret:   os.Getenv("GATE_TOTP_SECRET"),

		SessionSecret: os.Getenv("GATE_SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("GATE_SESSION_TTL", 12*time.Hour),

		AllowedRedirectPrefixes: getEnvListOrDefault(
			"GATE_ALLOWED_REDIRECT_PREFIXES",
			[]string{"https://claude.ai/", "http://localhost:"},
		),
		DefaultScopes:    getEnvListOrDefault("GATE_DEFAULT_SCOPES", nil),
		CodeTTL:          getEnvDurationOrDefault("GATE_CODE_TTL", 10*time.Minute),
		ClientIDFallback: getEnvBoolOrDefault("GATE_CLIENT_ID_FALLBACK", true),

		DatabaseFile:         getEnvOrDefault("GATE_DATABASE_FILE", "gate.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		AuditRetention:       getEnvDurationOrDefault("GATE_AUDIT_RETENTION", 30*24*time.Hour),
	}
}

// Validate rejects configurations that cannot possibly serve traffic.
func (c Config) Validate() error {
	if c.StaticClientID == "" || c.StaticClientSecret == "" {
		return errors.New("GATE_STATIC_CLIENT_ID and GATE_STATIC_CLIENT_SECRET are required")
	}
	if c.APIKey == "" {
		return errors.New("GATE_API_KEY is required")
	}
	if c.Password == "" && c.PasswordHash == "" {
		return errors.New("one of GATE_PASSWORD or GATE_PASSWORD_HASH is required")
	}
	if c.SessionSecret == "" {
		return errors.New("GATE_SESSION_SECRET is required")
	}
	return nil
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}

// getEnvListOrDefault parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
