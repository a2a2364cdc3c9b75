// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package credential

import (
	"context"
	"net/http"
	"sync"
)

// CookieName is the cookie holding the bearer token.
const CookieName = "token"

type jarKey struct{}

// jar binds a request and its response writer so cookie writes made during
// the request are visible to later reads in the same request.
type jar struct {
	mu      sync.Mutex
	r       *http.Request
	w       http.ResponseWriter
	value   string
	touched bool
}

// CookieStore keeps the token in a browser cookie.
type CookieStore struct {
	Secure bool
}

// NewCookieStore creates a cookie-backed store. Secure should be true outside development.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{Secure: secure}
}

// Middleware installs the per-request cookie jar used by Get, Set and Clear.
func (c *CookieStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		j := &jar{r: r, w: w}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), jarKey{}, j)))
	})
}

func jarFrom(ctx context.Context) *jar {
	j, _ := ctx.Value(jarKey{}).(*jar)
	return j
}

// Get returns the token from the request cookie or from an earlier write.
func (c *CookieStore) Get(ctx context.Context) (string, bool) {
	j := jarFrom(ctx)
	if j == nil {
		return "", false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.touched {
		return j.value, j.value != ""
	}
	cookie, err := j.r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Set writes the token cookie with a one-day expiry.
func (c *CookieStore) Set(ctx context.Context, token string) error {
	j := jarFrom(ctx)
	if j == nil {
		return ErrNoScope
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.value, j.touched = token, true
	http.SetCookie(j.w, c.cookie(token, int(Lifetime.Seconds())))
	return nil
}

// Clear expires the token cookie.
func (c *CookieStore) Clear(ctx context.Context) error {
	j := jarFrom(ctx)
	if j == nil {
		return ErrNoScope
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.value, j.touched = "", true
	http.SetCookie(j.w, c.cookie("", -1))
	return nil
}

func (c *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
