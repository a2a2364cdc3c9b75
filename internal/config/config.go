// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultAPIURL is the backend used when TRIPOLAR_API_URL is not set.
const DefaultAPIURL = "https://tripolar-backend-production.up.railway.app/api"

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Session storage backends.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Credential storage backends.
const (
	CredentialBackendSession = "session"
	CredentialBackendCookie  = "cookie"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIURL     string        `env:"TRIPOLAR_API_URL" envDefault:"https://tripolar-backend-production.up.railway.app/api"`
	APITimeout time.Duration `env:"TRIPOLAR_API_TIMEOUT" envDefault:"10s"`

	SessionSecret string `env:"TRIPOLAR_SESSION_SECRET,required"`
	ServerHost    string `env:"TRIPOLAR_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TRIPOLAR_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"TRIPOLAR_ENV" envDefault:"development"`
	LogLevel      string `env:"TRIPOLAR_LOG_LEVEL" envDefault:"info"`

	// Session storage
	SessionBackend    string `env:"TRIPOLAR_SESSION_BACKEND" envDefault:"sqlite"`   // sqlite, redis or memory
	SessionDBPath     string `env:"TRIPOLAR_SESSION_DB_PATH" envDefault:"./data/sessions.db"`
	RedisURL          string `env:"TRIPOLAR_REDIS_URL"`                              // Required when SessionBackend is redis
	RedisPrefix       string `env:"TRIPOLAR_REDIS_PREFIX" envDefault:"tripolar:session:"`
	CredentialBackend string `env:"TRIPOLAR_CREDENTIAL_BACKEND" envDefault:"session"` // session or cookie

	MaxUploadBytes int64  `env:"TRIPOLAR_MAX_UPLOAD_BYTES" envDefault:"5242880"`
	ProbeSchedule  string `env:"TRIPOLAR_PROBE_SCHEDULE" envDefault:"* * * * *"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if sessions are kept in Redis.
func (c Config) UseRedis() bool {
	return c.SessionBackend == SessionBackendRedis
}

// StaticURL returns the backend origin used for uploaded images,
// which is the API URL without its trailing /api segment.
func (c Config) StaticURL() string {
	return strings.TrimSuffix(strings.TrimRight(c.APIURL, "/"), "/api")
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("TRIPOLAR_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("TRIPOLAR_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("TRIPOLAR_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.SessionBackend {
	case SessionBackendSQLite, SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("TRIPOLAR_REDIS_URL is required when TRIPOLAR_SESSION_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unknown TRIPOLAR_SESSION_BACKEND %q", cfg.SessionBackend)
	}

	switch cfg.CredentialBackend {
	case CredentialBackendSession, CredentialBackendCookie:
	default:
		return nil, fmt.Errorf("unknown TRIPOLAR_CREDENTIAL_BACKEND %q", cfg.CredentialBackend)
	}

	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("TRIPOLAR_API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
