// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MsgRateLimited is returned when a client posts auth forms too quickly.
const MsgRateLimited = "Too many attempts. Please wait a moment and try again."

// limiterCache holds one token bucket per key.
type limiterCache[K comparable] struct {
	mu       sync.RWMutex
	limiters map[K]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, ok := lc.limiters[key]
	lc.mu.RUnlock()
	if ok {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, ok = lc.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is form posts per second per client IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailedAttempts per email before further attempts are refused locally.
	MaxFailedAttempts int
	// LockoutDuration doubles with each lockout, capped at 24h.
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLoginProtectionConfig returns the production defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// LoginProtection throttles auth form posts per IP and stops forwarding
// login attempts for an email that keeps failing. The backend stays the
// authority on credentials; this only spares it obvious brute force.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.Mutex
	attempts map[string]*loginAttempt

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration

	now func() time.Time
}

type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewLoginProtection creates a LoginProtection. Zero config values take defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	return &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		attempts:          make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		now:               time.Now,
	}
}

// Run evicts stale entries every interval until ctx is done.
func (lp *LoginProtection) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lp.cleanup()
		}
	}
}

func (lp *LoginProtection) cleanup() {
	if lp.ipLimiters.clearIfExceeds(10000) {
		slog.Info("cleared IP rate limiters due to size")
	}

	now := lp.now()
	lp.mu.Lock()
	defer lp.mu.Unlock()
	for email, a := range lp.attempts {
		if now.After(a.lockedUntil) && now.Sub(a.firstFailed) > lp.attemptWindow {
			delete(lp.attempts, email)
		}
	}
}

// AllowIP reports whether ip may post another auth form now.
func (lp *LoginProtection) AllowIP(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsLocked reports whether attempts for email are refused and for how long.
func (lp *LoginProtection) IsLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[normalizeEmail(email)]
	if !ok {
		return false, 0
	}
	if remaining := a.lockedUntil.Sub(lp.now()); remaining > 0 {
		return true, remaining
	}
	return false, 0
}

// RecordFailure counts a rejected login and reports whether email is now locked.
func (lp *LoginProtection) RecordFailure(email string) (bool, time.Duration) {
	key := normalizeEmail(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[key]
	if !ok {
		lp.attempts[key] = &loginAttempt{count: 1, firstFailed: now}
		return false, 0
	}
	if now.Sub(a.firstFailed) > lp.attemptWindow {
		a.count, a.firstFailed = 1, now
		return false, 0
	}

	a.count++
	if a.count < lp.maxFailedAttempts {
		return false, 0
	}

	lock := lp.lockoutDuration
	for i := 0; i < a.lockouts && lock < 24*time.Hour; i++ {
		lock *= 2
	}
	lock = min(lock, 24*time.Hour)

	a.lockedUntil = now.Add(lock)
	a.lockouts++
	a.count = 0

	slog.Warn("login attempts locked", "email", key, "lockouts", a.lockouts, "duration", lock)
	return true, lock
}

// RecordSuccess forgets failures for email.
func (lp *LoginProtection) RecordSuccess(email string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	delete(lp.attempts, normalizeEmail(email))
}

// RemainingAttempts returns how many failures are left before a lockout.
func (lp *LoginProtection) RemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	a, ok := lp.attempts[normalizeEmail(email)]
	if !ok || lp.now().Sub(a.firstFailed) > lp.attemptWindow {
		return lp.maxFailedAttempts
	}
	return max(lp.maxFailedAttempts-a.count, 0)
}

// Middleware rate limits POSTs per client IP. Mount it on the login,
// signup, code check and contact routes.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !lp.AllowIP(ip) {
				slog.Warn("form rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", "2")
				http.Error(w, MsgRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of r.RemoteAddr. Proxy headers are
// resolved earlier by chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
