// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed API call.
type Kind int

// Error kinds.
const (
	// KindTransport means the request never produced a response:
	// connection failure, timeout or cancellation.
	KindTransport Kind = iota + 1
	// KindSessionExpired means the backend answered 401.
	KindSessionExpired
	// KindValidation means the backend rejected the request (4xx other than 401,
	// or a 2xx envelope with success=false).
	KindValidation
	// KindServer means the backend failed (5xx).
	KindServer
	// KindDecode means the response body did not match the expected shape.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSessionExpired:
		return "session_expired"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ErrSessionExpired matches any *Error of kind KindSessionExpired via errors.Is.
var ErrSessionExpired = errors.New("api: session expired")

// Error is returned by every failed API call.
type Error struct {
	Kind Kind
	// Status is the HTTP status, zero for transport failures.
	Status int
	// Message is the backend's "message" field, verbatim. Empty when the
	// backend did not send one.
	Message string
	// Op identifies the call, e.g. "POST /auth/login".
	Op  string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrSessionExpired and e is a 401.
func (e *Error) Is(target error) bool {
	return target == ErrSessionExpired && e.Kind == KindSessionExpired
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// Message returns the backend's message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
