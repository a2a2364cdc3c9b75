// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for route guarding,
// security headers, rate limiting and request context handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tripolar-events/tripolar-web/internal/auth"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyRequestPath holds the request path for log enrichment.
const ContextKeyRequestPath ContextKey = "request_path"

// Routes the guard redirects to.
const (
	RouteLogin = "/auth/login"
	RouteHome  = "/"
)

// Requirement lists the roles a route needs beyond being signed in.
type Requirement struct {
	Admin bool
	Usher bool
}

// Decision is the outcome of evaluating a Requirement.
type Decision int

// Guard decisions.
const (
	DecisionRender Decision = iota
	DecisionLoading
	DecisionRedirectLogin
	DecisionRedirectHome
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionLoading:
		return "loading"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// Decide evaluates req against st. The first matching rule wins.
func Decide(st auth.State, req Requirement) Decision {
	switch {
	case st.Loading:
		return DecisionLoading
	case !st.IsAuthenticated():
		return DecisionRedirectLogin
	case req.Admin && !st.IsAdmin():
		return DecisionRedirectHome
	case req.Usher && !st.IsUsher():
		return DecisionRedirectHome
	default:
		return DecisionRender
	}
}

// Guard protects routes using the request's auth.Session.
type Guard struct {
	// Loading renders the placeholder shown while the session resolves.
	Loading http.Handler
}

// NewGuard creates a Guard. A nil loading handler uses a bare placeholder.
func NewGuard(loading http.Handler) *Guard {
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}
	return &Guard{Loading: loading}
}

// Require creates middleware enforcing req on every request.
func (g *Guard) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := auth.StateFrom(r.Context())

			switch Decide(st, req) {
			case DecisionLoading:
				w.Header().Set("Refresh", "1")
				g.Loading.ServeHTTP(w, r)
			case DecisionRedirectLogin:
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			case DecisionRedirectHome:
				slog.Warn("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", st.User.ID,
					"user_role", st.User.Role,
					"required_admin", req.Admin,
					"required_usher", req.Usher,
					"remote_addr", r.RemoteAddr,
				)
				http.Redirect(w, r, RouteHome, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAdmin creates middleware that requires admin role.
func (g *Guard) RequireAdmin() func(http.Handler) http.Handler {
	return g.Require(Requirement{Admin: true})
}

// RequireUsher creates middleware that requires usher role.
func (g *Guard) RequireUsher() func(http.Handler) http.Handler {
	return g.Require(Requirement{Usher: true})
}

func defaultLoading(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(`<!doctype html><title>Loading</title><p>Loading...</p>`))
}

// LoginURL returns the login route remembering from as the return location.
func LoginURL(from string) string {
	if from == "" || from == RouteLogin {
		return RouteLogin
	}
	return RouteLogin + "?from=" + url.QueryEscape(from)
}

// SafeRedirectPath returns from if it is a local absolute path, else fallback.
func SafeRedirectPath(from, fallback string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return fallback
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return from
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
