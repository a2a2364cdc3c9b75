// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection of the HTML forms.
// filippo.io/csrf/gorilla checks Fetch metadata headers, so no cookie
// settings are needed.
type CSRFConfig struct {
	// AuthKey is a 32-byte key; the session secret is reused.
	AuthKey []byte

	// ErrorHandler is called when validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host:port values allowed to post cross-origin.
	TrustedOrigins []string
}

// DefaultCSRFConfig returns a CSRFConfig for the given listen port.
// In development the loopback hosts on that port are trusted.
func DefaultCSRFConfig(authKey []byte, isDev bool, port string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		if port == "" {
			port = "8080"
		}
		cfg.TrustedOrigins = []string{
			net.JoinHostPort("localhost", port),
			net.JoinHostPort("127.0.0.1", port),
		}
	}
	return cfg
}

// CSRF returns a middleware that rejects cross-site form posts.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	errorHandler := cfg.ErrorHandler
	if errorHandler == nil {
		errorHandler = http.HandlerFunc(csrfErrorHandler)
	}
	opts := []csrf.Option{csrf.ErrorHandler(errorHandler)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
