// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	sessionTokenKey   = "api_token"
	sessionExpiresKey = "api_token_expires"
)

// SessionStore keeps the token in the server-side scs session, so the
// browser only ever holds the opaque session cookie.
type SessionStore struct {
	sm  *scs.SessionManager
	now func() time.Time
}

// NewSessionStore creates a store backed by sm.
// Requests must pass through sm.LoadAndSave.
func NewSessionStore(sm *scs.SessionManager) *SessionStore {
	return &SessionStore{sm: sm, now: time.Now}
}

// Get returns the token unless it is absent or older than Lifetime.
func (s *SessionStore) Get(ctx context.Context) (string, bool) {
	if !s.loaded(ctx) {
		return "", false
	}
	token := s.sm.GetString(ctx, sessionTokenKey)
	if token == "" {
		return "", false
	}
	if s.now().Unix() >= s.sm.GetInt64(ctx, sessionExpiresKey) {
		return "", false
	}
	return token, true
}

// Set renews the session token and stores the API token in it.
func (s *SessionStore) Set(ctx context.Context, token string) error {
	if !s.loaded(ctx) {
		return ErrNoScope
	}
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.sm.Put(ctx, sessionTokenKey, token)
	s.sm.Put(ctx, sessionExpiresKey, s.now().Add(Lifetime).Unix())
	return nil
}

// Clear removes the API token from the session.
func (s *SessionStore) Clear(ctx context.Context) error {
	if !s.loaded(ctx) {
		return ErrNoScope
	}
	s.sm.Remove(ctx, sessionTokenKey)
	s.sm.Remove(ctx, sessionExpiresKey)
	return nil
}

// loaded reports whether scs has session data in ctx; scs panics otherwise.
func (s *SessionStore) loaded(ctx context.Context) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	s.sm.Status(ctx)
	return true
}
