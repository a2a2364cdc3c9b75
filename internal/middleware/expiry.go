// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"github.com/tripolar-events/tripolar-web/internal/auth"
)

// ExpiredSession sends the visitor to the login page once the backend has
// rejected the session's token during the request, whatever the handler was
// about to answer. It must run after the auth.Manager middleware.
func ExpiredSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := auth.FromContext(r.Context())
		if s == nil {
			next.ServeHTTP(w, r)
			return
		}
		ew := &expiryWriter{ResponseWriter: w, r: r, session: s}
		next.ServeHTTP(ew, r)
		if !ew.decided {
			// Nothing was written.
			ew.check(0)
		}
	})
}

// expiryLoginURL is where an expired visitor is sent. Only GET requests
// remember their location; a replayed form post would fail anyway.
func expiryLoginURL(r *http.Request) string {
	if r.Method == http.MethodGet {
		return LoginURL(r.URL.RequestURI())
	}
	return RouteLogin
}

type expiryWriter struct {
	http.ResponseWriter
	r       *http.Request
	session *auth.Session

	decided    bool
	redirected bool
}

// check decides, on the first write, whether the response is replaced by a
// login redirect. Redirects the handler already aimed at the login page pass.
func (w *expiryWriter) check(status int) bool {
	if w.decided {
		return w.redirected
	}
	w.decided = true
	if !w.session.Expired() {
		return false
	}
	if status >= 300 && status < 400 && strings.HasPrefix(w.Header().Get("Location"), RouteLogin) {
		return false
	}

	h := w.ResponseWriter.Header()
	h.Del("Content-Type")
	h.Del("Content-Length")
	h.Del("Refresh")
	http.Redirect(w.ResponseWriter, w.r, expiryLoginURL(w.r), http.StatusSeeOther)
	w.redirected = true
	return true
}

func (w *expiryWriter) WriteHeader(status int) {
	if w.check(status) {
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *expiryWriter) Write(b []byte) (int, error) {
	if w.check(http.StatusOK) {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *expiryWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
