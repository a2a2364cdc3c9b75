// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the Tripolar web front end.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/credential"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary session database with migrations applied.
// The database is closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(t.TempDir() + "/sessions.db")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// Call is one request observed by a Backend.
type Call struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// Backend is a scripted stand-in for the Tripolar REST API.
// Routes use http.ServeMux patterns relative to /api, e.g. "GET /ushers".
type Backend struct {
	*httptest.Server
	mux *http.ServeMux

	mu    sync.Mutex
	calls []Call
}

// NewBackend starts an empty Backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{mux: http.NewServeMux()}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		b.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		http.StripPrefix("/api", b.mux).ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

// URL returns the API base URL.
func (b *Backend) URL() string { return b.Server.URL + "/api" }

// Handle registers a handler for pattern.
func (b *Backend) Handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

// JSON registers a fixed JSON response for pattern.
func (b *Backend) JSON(pattern string, status int, v any) {
	b.Handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	})
}

// Calls returns the requests observed so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Called reports how many times method and path were requested.
func (b *Backend) Called(method, path string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == "/api"+path {
			n++
		}
	}
	return n
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewClient creates an API client for b backed by creds.
func NewClient(t *testing.T, b *Backend, creds credential.Store) *api.Client {
	t.Helper()
	c, err := api.New(api.Config{BaseURL: b.URL(), Credentials: creds, Logger: TestLoggerSilent()})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return c
}

// ContextWithUser returns a context carrying an initialized Session for user.
// A nil user gives an anonymous session. With loading set, the session is
// left unresolved.
func ContextWithUser(t *testing.T, ctx context.Context, user *model.User, loading bool) context.Context {
	t.Helper()
	creds := credential.NewMemoryStore()
	client, err := api.New(api.Config{BaseURL: "http://127.0.0.1:0/api", Credentials: creds})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	m := auth.NewManager(auth.Config{Client: client, Credentials: creds, Logger: TestLoggerSilent()})
	s := m.NewSession()
	ctx = auth.WithSession(ctx, s)
	if loading {
		return ctx
	}
	s.Initialize(ctx)
	if user != nil {
		s.UpdateUser(*user)
	}
	return ctx
}

// RequestWithUser attaches a Session for user to r.
func RequestWithUser(t *testing.T, r *http.Request, user *model.User) *http.Request {
	t.Helper()
	return r.WithContext(ContextWithUser(t, r.Context(), user, false))
}
