// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package credential persists the bearer token of the current browser.
//
// A Store is read by the API client on every outbound request and written
// only by the authentication layer (login, logout and session expiry).
package credential

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Lifetime is how long a persisted token stays valid.
const Lifetime = 24 * time.Hour

// ErrNoScope is returned when a request-scoped store is used outside a request.
var ErrNoScope = errors.New("credential: no request scope in context")

// Store persists the bearer token for the current caller.
type Store interface {
	// Get returns the persisted token, if any.
	Get(ctx context.Context) (string, bool)
	// Set persists token for Lifetime, replacing any previous value.
	Set(ctx context.Context, token string) error
	// Clear removes the token. Clearing an absent token is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore keeps a single token in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Get returns the token unless it is absent or expired.
func (m *MemoryStore) Get(_ context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || !m.now().Before(m.expires) {
		return "", false
	}
	return m.token, true
}

// Set stores token for Lifetime.
func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = m.now().Add(Lifetime)
	return nil
}

// Clear forgets the token.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expires = time.Time{}
	return nil
}
