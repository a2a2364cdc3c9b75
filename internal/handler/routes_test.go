// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/tripolar-events/tripolar-web/internal/model"
)

func TestRoutes_GuardRedirects(t *testing.T) {
	tests := []struct {
		name string
		user *model.User
		path string
		want string
	}{
		{"anonymous admin", nil, "/admin/ushers", "/auth/login?from=%2Fadmin%2Fushers"},
		{"anonymous profile", nil, "/profile", "/auth/login?from=%2Fprofile"},
		{"usher on admin", &testUsher, "/admin", "/"},
		{"admin on profile", &testAdmin, "/profile", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			if tt.user != nil {
				app.signIn(t, *tt.user)
			}
			assertRedirect(t, app.get(t, tt.path), tt.want)
		})
	}
}

func TestRoutes_NotFound(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(t, "/no/such/page")
	assertStatus(t, resp, http.StatusNotFound)
	assertContains(t, resp.Body, "Page not found")
}

func TestRoutes_AdminPagesRender(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, testAdmin)
	app.backend.JSON("GET /admin/dashboard", http.StatusOK, map[string]any{"stats": map[string]int{"totalUshers": 12}})
	app.backend.JSON("GET /admin/ushers", http.StatusOK, map[string]any{"ushers": []any{}})
	app.backend.JSON("GET /events", http.StatusOK, map[string]any{"events": []any{}})
	app.backend.JSON("GET /admin/codes", http.StatusOK, map[string]any{"codes": []any{}})
	app.backend.JSON("GET /requests", http.StatusOK, map[string]any{"requests": []any{}})

	for _, path := range []string{"/admin", "/admin/dashboard", "/admin/ushers", "/admin/events", "/admin/events/new", "/admin/codes", "/admin/requests"} {
		t.Run(path, func(t *testing.T) {
			resp := app.get(t, path)
			assertStatus(t, resp, http.StatusOK)
			assertContains(t, resp.Body, `class="admin-nav"`)
		})
	}
}

func TestRoutes_HealthBypassesGuard(t *testing.T) {
	app := newTestApp(t)

	assertStatus(t, app.get(t, "/health"), http.StatusOK)
	assertStatus(t, app.get(t, "/health/live"), http.StatusOK)
}

func TestRoutes_LogoutRequiresPost(t *testing.T) {
	app := newTestApp(t)

	resp := app.get(t, "/auth/logout")
	if resp.Status != http.StatusMethodNotAllowed && resp.Status != http.StatusNotFound {
		t.Errorf("GET /auth/logout status = %d; want 405 or 404", resp.Status)
	}
}

func TestRoutes_StaticAndLivenessSkipSession(t *testing.T) {
	app := newTestApp(t)
	app.signIn(t, testAdmin)

	for _, path := range []string{"/static/css/site.css", "/static/js/signup.js", "/health/live"} {
		assertStatus(t, app.get(t, path), http.StatusOK)
	}
	if n := app.backend.Called(http.MethodGet, "/auth/me"); n != 0 {
		t.Errorf("GET /auth/me called %d times for static files and liveness; want 0", n)
	}

	// Health details depend on the signed-in user.
	assertStatus(t, app.get(t, "/health"), http.StatusOK)
	if n := app.backend.Called(http.MethodGet, "/auth/me"); n != 1 {
		t.Errorf("GET /auth/me called %d times after /health; want 1", n)
	}
}
