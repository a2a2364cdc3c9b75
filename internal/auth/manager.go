// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/credential"
)

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Session bound to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// StateFrom returns the state of the Session bound to ctx.
// Without a Session the state is anonymous and not loading.
func StateFrom(ctx context.Context) State {
	if s := FromContext(ctx); s != nil {
		return s.Snapshot()
	}
	return State{}
}

// Config configures a Manager.
type Config struct {
	Client      *api.Client
	Credentials credential.Store
	Notifier    Notifier
	Logger      *slog.Logger
}

// Manager creates per-request sessions and owns the client's session-expired listener.
type Manager struct {
	backend  Backend
	creds    credential.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewManager creates a Manager and registers it as cfg.Client's expiry listener.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = discard{}
	}
	m := &Manager{
		backend:  cfg.Client.Auth,
		creds:    cfg.Credentials,
		notifier: notifier,
		logger:   logger,
	}
	cfg.Client.OnSessionExpired(m.sessionExpired)
	return m
}

// NewSession creates an uninitialized Session.
func (m *Manager) NewSession() *Session {
	return newSession(m.backend, m.creds, m.notifier, m.logger)
}

// Middleware binds a fresh Session to every request and initializes it
// before the next handler runs.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.NewSession()
		ctx := WithSession(r.Context(), s)
		s.Initialize(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionExpired is the single listener for 401 responses.
func (m *Manager) sessionExpired(ctx context.Context) {
	if s := FromContext(ctx); s != nil {
		m.logger.InfoContext(ctx, "session expired")
		s.Expire(ctx)
		return
	}
	if err := m.creds.Clear(ctx); err != nil {
		m.logger.DebugContext(ctx, "clearing token outside a request failed", "error", err)
	}
}

type discard struct{}

func (discard) Notify(context.Context, Level, string) {}
