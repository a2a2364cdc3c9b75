// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides the slog handler used by the application. It masks
// secrets before records reach the output and tags error records with the
// request path.
package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Masked replaces the value of a secret attribute.
const Masked = "[REDACTED]"

// DefaultSecretKeys are attribute keys whose values are never logged.
var DefaultSecretKeys = []string{"token", "password", "authorization", "signup_code", "signupcode", "cookie"}

// PathFunc returns the request path stored in ctx, or "".
type PathFunc func(ctx context.Context) string

// RedactHandler is a slog.Handler that wraps another handler, masks
// secret attributes and adds a "url" attribute to WARN and ERROR records.
type RedactHandler struct {
	inner  slog.Handler
	secret map[string]bool
	path   PathFunc
}

// NewRedactHandler wraps inner with the default secret keys.
// path may be nil.
func NewRedactHandler(inner slog.Handler, path PathFunc) *RedactHandler {
	return NewRedactHandlerWithKeys(inner, path, DefaultSecretKeys...)
}

// NewRedactHandlerWithKeys wraps inner with a custom list of secret keys.
// Keys are matched case-insensitively, ignoring '-' and '_'.
func NewRedactHandlerWithKeys(inner slog.Handler, path PathFunc, keys ...string) *RedactHandler {
	secret := make(map[string]bool, len(keys))
	for _, k := range keys {
		secret[normalizeKey(k)] = true
	}
	return &RedactHandler{inner: inner, secret: secret, path: path}
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(k))
}

// Enabled implements slog.Handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})

	if r.Level >= slog.LevelWarn && h.path != nil {
		if p := h.path(ctx); p != "" {
			out.AddAttrs(slog.String("url", p))
		}
	}
	return h.inner.Handle(ctx, out)
}

func (h *RedactHandler) redact(a slog.Attr) slog.Attr {
	if h.secret[normalizeKey(a.Key)] {
		return slog.String(a.Key, Masked)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		attrs := make([]any, 0, len(group))
		for _, ga := range group {
			attrs = append(attrs, h.redact(ga))
		}
		return slog.Group(a.Key, attrs...)
	}
	return a
}

// WithAttrs implements slog.Handler.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.redact(a)
	}
	return &RedactHandler{inner: h.inner.WithAttrs(masked), secret: h.secret, path: h.path}
}

// WithGroup implements slog.Handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{inner: h.inner.WithGroup(name), secret: h.secret, path: h.path}
}
