// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/middleware"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, string(auth.LevelError))
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, string(auth.LevelSuccess))
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// renderPage renders a template, answering 500 if the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// renderPageStatus is renderPage with an explicit status code.
func renderPageStatus(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, name string, data render.TemplateData) {
	if err := renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// sessionExpired redirects to the login page when err, or an earlier call in
// this request, showed that the backend no longer accepts the credential.
// GET requests remember where the visitor was.
func sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	expired := errors.Is(err, api.ErrSessionExpired)
	if s := auth.FromContext(r.Context()); s != nil && s.Expired() {
		expired = true
	}
	if !expired {
		return false
	}
	target := redirectLogin
	if r.Method == http.MethodGet {
		target = middleware.LoginURL(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
	return true
}

// logAPIError logs a failed backend call at a level matching its kind.
func logAPIError(r *http.Request, msg string, err error) {
	args := []any{"error", err, "kind", api.KindOf(err).String(), "path", r.URL.Path}
	switch api.KindOf(err) {
	case api.KindValidation, api.KindSessionExpired:
		slog.Warn(msg, args...)
	default:
		slog.Error(msg, args...)
	}
}

// apiFailure handles an API error from a form submission: session expiry goes
// to the login page, anything else flashes the backend message (or fallback)
// and redirects to back.
func apiFailure(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, back, fallback string, err error) {
	if sessionExpired(w, r, err) {
		return
	}
	logAPIError(r, fallback, err)
	flashError(w, r, renderer, back, api.Message(err, fallback))
}

// pageError puts an API error onto a page that still renders, so list pages
// show an empty state instead of failing.
func pageError(r *http.Request, data *render.TemplateData, fallback string, err error) {
	logAPIError(r, fallback, err)
	data.Flash = api.Message(err, fallback)
	data.FlashType = string(auth.LevelError)
}
