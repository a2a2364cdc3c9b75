// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tripolar-events/tripolar-web/internal/credential"
)

// HeaderRequestID carries the correlation id of an outbound call.
const HeaderRequestID = "X-Request-ID"

type ctxKey int

const ctxRequestID ctxKey = iota

// WithRequestID stores a correlation id that RequestIDHook forwards upstream.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFrom returns the correlation id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// BearerHook sets exactly one Authorization header from the persisted token.
// Without a token the header is removed.
func BearerHook(store credential.Store) RequestHook {
	return func(r *http.Request) error {
		token, ok := store.Get(r.Context())
		if !ok || token == "" {
			r.Header.Del("Authorization")
			return nil
		}
		r.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// RequestIDHook sets X-Request-ID from the context, or a fresh UUID.
func RequestIDHook() RequestHook {
	return func(r *http.Request) error {
		if r.Header.Get(HeaderRequestID) != "" {
			return nil
		}
		id := RequestIDFrom(r.Context())
		if id == "" {
			id = uuid.NewString()
		}
		r.Header.Set(HeaderRequestID, id)
		return nil
	}
}
