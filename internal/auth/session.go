// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth holds the authentication state of one browser request:
// who is signed in, with which token, and whether that is still being resolved.
package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/credential"
	"github.com/tripolar-events/tripolar-web/internal/model"
)

// User-facing messages.
const (
	MsgLoginSuccess    = "Login successful!"
	MsgLoginFailed     = "Login failed"
	MsgRegisterSuccess = "Registration successful! Please login."
	MsgRegisterFailed  = "Registration failed"
	MsgLoggedOut       = "Logged out successfully"
)

// Level is the severity of a notification.
type Level string

// Notification levels, matching the flash types understood by the templates.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// Backend is the subset of the auth API a Session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Register(ctx context.Context, in api.RegisterInput) (string, error)
	Me(ctx context.Context) (*model.User, error)
	Logout(ctx context.Context) error
}

// Result is the outcome of Login or Register. Errors never cross this boundary.
type Result struct {
	Success bool
	Message string
	User    *model.User
}

// State is an immutable snapshot of a Session.
type State struct {
	User    *model.User
	Token   string
	Loading bool
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool { return s.User != nil }

// IsAdmin reports whether the signed-in user is an admin.
func (s State) IsAdmin() bool { return s.User.IsAdmin() }

// IsUsher reports whether the signed-in user is an usher.
func (s State) IsUsher() bool { return s.User.IsUsher() }

// Session is the authentication state of one request.
type Session struct {
	backend  Backend
	creds    credential.Store
	notifier Notifier
	logger   *slog.Logger

	initOnce sync.Once

	mu        sync.Mutex
	user      *model.User
	token     string
	loading   bool
	expired   bool
	resolving bool
}

func newSession(backend Backend, creds credential.Store, notifier Notifier, logger *slog.Logger) *Session {
	return &Session{
		backend:  backend,
		creds:    creds,
		notifier: notifier,
		logger:   logger,
		loading:  true,
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return State{User: user, Token: s.token, Loading: s.loading}
}

// Expired reports whether the backend rejected the token during this request.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Initialize resolves the persisted token into a user. It runs at most once;
// any failure leaves the session anonymous without notifying the user.
func (s *Session) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.initialize(ctx) })
}

func (s *Session) initialize(ctx context.Context) {
	s.mu.Lock()
	s.loading, s.resolving = true, true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading, s.resolving = false, false
		s.mu.Unlock()
	}()

	token, ok := s.creds.Get(ctx)
	if !ok {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.backend.Me(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "stored token rejected", "error", err)
		s.clear(ctx)
		return
	}

	s.mu.Lock()
	if s.token == token {
		s.user = user
	}
	s.mu.Unlock()
}

// Login exchanges credentials for a token and signs the user in.
func (s *Session) Login(ctx context.Context, email, password string) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		msg := api.Message(err, MsgLoginFailed)
		s.notifier.Notify(ctx, LevelError, msg)
		return Result{Message: msg}
	}

	if err := s.creds.Set(ctx, res.Token); err != nil {
		s.logger.ErrorContext(ctx, "persisting token failed", "error", err)
		s.notifier.Notify(ctx, LevelError, MsgLoginFailed)
		return Result{Message: MsgLoginFailed}
	}

	user := res.User
	s.mu.Lock()
	s.token = res.Token
	s.user = &user
	s.expired = false
	s.mu.Unlock()

	s.notifier.Notify(ctx, LevelSuccess, MsgLoginSuccess)
	return Result{Success: true, User: &user}
}

// Register creates an usher account. It does not sign the user in.
func (s *Session) Register(ctx context.Context, in api.RegisterInput) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.backend.Register(ctx, in); err != nil {
		msg := api.Message(err, MsgRegisterFailed)
		s.notifier.Notify(ctx, LevelError, msg)
		return Result{Message: msg}
	}

	s.notifier.Notify(ctx, LevelSuccess, MsgRegisterSuccess)
	return Result{Success: true, Message: MsgRegisterSuccess}
}

// Logout signs the user out. Calling it without a signed-in user is harmless.
func (s *Session) Logout(ctx context.Context) {
	if _, ok := s.creds.Get(ctx); ok {
		if err := s.backend.Logout(ctx); err != nil {
			s.logger.DebugContext(ctx, "backend logout failed", "error", err)
		}
	}
	s.clear(ctx)
	s.notifier.Notify(ctx, LevelInfo, MsgLoggedOut)
}

// UpdateUser replaces the signed-in user record after a profile edit.
func (s *Session) UpdateUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

// Expire drops the credential after the backend answered 401.
// Only a session that held a token is reported as expired. A token rejected
// while the session is still being resolved is not: the visitor simply
// continues anonymously.
func (s *Session) Expire(ctx context.Context) {
	s.mu.Lock()
	hadToken := s.token != ""
	s.mu.Unlock()

	s.clear(ctx)

	s.mu.Lock()
	if hadToken && !s.resolving {
		s.expired = true
	}
	s.mu.Unlock()
}

func (s *Session) clear(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "clearing token failed", "error", err)
	}
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
}
