// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the browser session manager that carries
// flash messages and, by default, the API token.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Lifetime matches the lifetime of the API token.
const Lifetime = 24 * time.Hour

// New creates a session manager backed by the SQLite sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	return NewWithStore(sqlite3store.New(db), isDev)
}

// NewMemory creates a session manager that keeps sessions in process memory.
// Sessions are lost on restart.
func NewMemory(isDev bool) *scs.SessionManager {
	return NewWithStore(nil, isDev)
}

// NewWithStore creates a session manager on store. A nil store keeps the
// scs in-memory default.
func NewWithStore(store scs.Store, isDev bool) *scs.SessionManager {
	sm := scs.New()
	if store != nil {
		sm.Store = store
	}

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-session"
	}
	return sm
}
