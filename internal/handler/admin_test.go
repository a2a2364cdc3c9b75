// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/testutil"
)

func newAdminApp(t *testing.T) *testApp {
	t.Helper()
	app := newTestApp(t)
	app.signIn(t, testAdmin)
	return app
}

// lastBody decodes the JSON body of the last call to method and path.
func lastBody(t *testing.T, app *testApp, method, path string) map[string]any {
	t.Helper()
	var got map[string]any
	for _, c := range app.backend.Calls() {
		if c.Method == method && c.Path == "/api"+path {
			got = nil
			if err := json.Unmarshal(c.Body, &got); err != nil {
				t.Fatalf("decoding %s %s body: %v", method, path, err)
			}
		}
	}
	if got == nil {
		t.Fatalf("%s %s not called", method, path)
	}
	return got
}

func TestDashboard_ShowsStats(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /admin/dashboard", http.StatusOK, map[string]any{"stats": map[string]int{
		"totalUshers": 42, "pendingRequests": 7,
	}})

	resp := app.get(t, "/admin")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, ">42<")
	assertContains(t, resp.Body, ">7<")
}

func TestDashboard_ExpiredSessionGoesToLogin(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /admin/dashboard", http.StatusUnauthorized, map[string]string{"message": "Token expired"})

	resp := app.get(t, "/admin/dashboard")
	assertRedirect(t, resp, "/auth/login?from=%2Fadmin%2Fdashboard")
}

func TestAdminUshers_SearchAndPagination(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /admin/ushers", http.StatusOK, map[string]any{
		"ushers": []any{
			usherJSON("u1", "Maya", true),
			usherJSON("u2", "Nour", false),
		},
		"pagination": map[string]int{"page": 2, "limit": 50, "total": 120, "pages": 3},
	})

	resp := app.get(t, "/admin/ushers?q=ma&page=2")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, "1 hidden from website")
	assertContains(t, resp.Body, "Page 2 of 3")

	calls := app.backend.Calls()
	var query url.Values
	for _, c := range calls {
		if c.Path == "/api/admin/ushers" {
			query, _ = url.ParseQuery(c.Query)
		}
	}
	if query.Get("search") != "ma" || query.Get("page") != "2" || query.Get("limit") != "50" {
		t.Errorf("admin ushers query = %v", query)
	}
}

func TestAdminUshers_Update(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("PUT /admin/ushers/u1", http.StatusOK, map[string]any{"usher": usherJSON("u1", "Maya", true)})

	resp := app.post(t, "/admin/ushers/u1", url.Values{
		"name":               {"Maya Haddad"},
		"isActive":           {"on"},
		"isVisibleOnWebsite": {"on"},
		"profileImage":       {"/uploads/maya.jpg"},
		"skills":             {"Hosting, Arabic, hosting"},
		"availability":       {"on"},
	})
	assertRedirect(t, resp, "/admin/ushers")

	body := lastBody(t, app, http.MethodPut, "/admin/ushers/u1")
	if body["name"] != "Maya Haddad" || body["isActive"] != true || body["isVisibleOnWebsite"] != true {
		t.Errorf("update body = %v", body)
	}
	profile, _ := body["profile"].(map[string]any)
	if profile["profileImage"] != "/uploads/maya.jpg" {
		t.Errorf("profile image not kept: %v", profile)
	}
	if skills, _ := profile["skills"].([]any); len(skills) != 2 {
		t.Errorf("skills = %v; want 2 distinct", profile["skills"])
	}
}

func TestAdminUshers_UpdateRejectsShortName(t *testing.T) {
	app := newAdminApp(t)

	resp := app.post(t, "/admin/ushers/u1", url.Values{"name": {"M"}})
	assertRedirect(t, resp, "/admin/ushers")
	if n := app.backend.Called(http.MethodPut, "/admin/ushers/u1"); n != 0 {
		t.Errorf("update called %d times; want 0", n)
	}
}

func TestAdminUshers_Visibility(t *testing.T) {
	tests := []struct {
		value string
		want  bool
		flash string
	}{
		{"true", true, "Usher shown on website"},
		{"false", false, "Usher hidden on website"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			app := newAdminApp(t)
			app.backend.JSON("PATCH /admin/ushers/u1/visibility", http.StatusOK, map[string]any{"usher": usherJSON("u1", "Maya", tt.want)})
			app.backend.JSON("GET /admin/ushers", http.StatusOK, map[string]any{"ushers": []any{}})

			resp := app.post(t, "/admin/ushers/u1/visibility", url.Values{"visible": {tt.value}})
			assertRedirect(t, resp, "/admin/ushers")

			body := lastBody(t, app, http.MethodPatch, "/admin/ushers/u1/visibility")
			if body["isVisible"] != tt.want {
				t.Errorf("isVisible = %v; want %v", body["isVisible"], tt.want)
			}
			assertContains(t, app.follow(t, resp).Body, tt.flash)
		})
	}
}

func TestAdminUshers_RejectPictureDefaultsReason(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("DELETE /admin/ushers/u1/profile-picture", http.StatusOK, map[string]any{"usher": usherJSON("u1", "Maya", true)})

	resp := app.post(t, "/admin/ushers/u1/reject-picture", url.Values{"reason": {"  "}})
	assertRedirect(t, resp, "/admin/ushers")

	body := lastBody(t, app, http.MethodDelete, "/admin/ushers/u1/profile-picture")
	if body["reason"] != api.DefaultRejectionReason {
		t.Errorf("reason = %v; want default", body["reason"])
	}
}

func TestAdminUshers_DeleteFailureFlashesBackendMessage(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("DELETE /admin/ushers/u1", http.StatusBadRequest, map[string]string{"message": "Usher has open requests"})
	app.backend.JSON("GET /admin/ushers", http.StatusOK, map[string]any{"ushers": []any{}})

	resp := app.post(t, "/admin/ushers/u1/delete", nil)
	assertRedirect(t, resp, "/admin/ushers")
	assertContains(t, app.follow(t, resp).Body, "Usher has open requests")
}

func TestAdminEvents_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing title", url.Values{"date": {"2026-06-01"}, "location": {"Dubai"}}, "Please fill in all required fields"},
		{"bad date", url.Values{"title": {"Gala"}, "date": {"06/01/2026"}, "location": {"Dubai"}}, "Please enter a valid date"},
		{"bad usher count", url.Values{"title": {"Gala"}, "date": {"2026-06-01"}, "location": {"Dubai"}, "usherCount": {"-2"}}, "Usher count must be a positive number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAdminApp(t)

			resp := app.postMultipart(t, "/admin/events", tt.form)
			assertRedirect(t, resp, "/admin/events/new")
			assertContains(t, app.follow(t, resp).Body, tt.want)
			if n := app.backend.Called(http.MethodPost, "/events"); n != 0 {
				t.Errorf("create called %d times; want 0", n)
			}
		})
	}
}

func TestAdminEvents_CreateWithImages(t *testing.T) {
	app := newAdminApp(t)
	var fields map[string][]string
	var images int
	app.backend.Handle("POST /events", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("backend parsing multipart: %v", err)
		}
		fields = r.MultipartForm.Value
		images = len(r.MultipartForm.File["images"])
		testutil.WriteJSON(w, http.StatusCreated, map[string]any{"event": map[string]any{"_id": "e1", "title": "Gala"}})
	})

	resp := app.postMultipart(t, "/admin/events", url.Values{
		"title":      {"Gala"},
		"date":       {"2026-06-01"},
		"location":   {"Dubai"},
		"usherCount": {"12"},
	},
		multipartFile{Field: "images", Name: "a.png", ContentType: "image/png", Data: testPNG(t, 20, 20)},
		multipartFile{Field: "images", Name: "b.png", ContentType: "image/png", Data: testPNG(t, 30, 10)},
	)
	assertRedirect(t, resp, "/admin/events")

	if images != 2 {
		t.Errorf("backend received %d images; want 2", images)
	}
	if got := fields["usherCount"]; len(got) != 1 || got[0] != "12" {
		t.Errorf("usherCount = %v", got)
	}
	if got := fields["date"]; len(got) != 1 || got[0] != "2026-06-01" {
		t.Errorf("date = %v", got)
	}
}

func TestAdminEvents_EditPrefillsDate(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /events/e1", http.StatusOK, map[string]any{"event": map[string]any{
		"_id": "e1", "title": "Gala", "date": "2026-06-01T00:00:00Z", "images": []string{"/uploads/a.jpg"},
	}})

	resp := app.get(t, "/admin/events/e1/edit")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, `value="2026-06-01"`)
	assertContains(t, resp.Body, `action="/admin/events/e1/images/remove"`)
}

func TestAdminEvents_RemoveImage(t *testing.T) {
	app := newAdminApp(t)
	var removed string
	app.backend.Handle("DELETE /events/e1/images", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		removed = body["imageUrl"]
		testutil.WriteJSON(w, http.StatusOK, map[string]any{"event": map[string]any{"_id": "e1"}})
	})

	resp := app.post(t, "/admin/events/e1/images/remove", url.Values{"image": {"/uploads/a.jpg"}})
	assertRedirect(t, resp, "/admin/events/e1/edit")
	if removed != "/uploads/a.jpg" {
		t.Errorf("removed image = %q", removed)
	}
}

func TestAdminCodes_GroupsAndGenerate(t *testing.T) {
	app := newAdminApp(t)
	now := time.Now()
	app.backend.JSON("GET /admin/codes", http.StatusOK, map[string]any{"codes": []any{
		map[string]any{"_id": "c1", "code": "ACTIVE1", "isUsed": false, "expiresAt": now.Add(time.Hour)},
		map[string]any{"_id": "c2", "code": "USED001", "isUsed": true, "expiresAt": now.Add(time.Hour)},
		map[string]any{"_id": "c3", "code": "OLD0001", "isUsed": false, "expiresAt": now.Add(-time.Hour)},
	}})
	app.backend.JSON("POST /admin/codes/generate", http.StatusCreated, map[string]any{"code": map[string]any{
		"_id": "c4", "code": "NEW0001", "expiresAt": now.Add(24 * time.Hour),
	}})

	resp := app.get(t, "/admin/codes")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, "Active (1)")
	assertContains(t, resp.Body, "Used (1)")
	assertContains(t, resp.Body, "Expired (1)")
	assertContains(t, resp.Body, `class="code code-expired"`)

	gen := app.post(t, "/admin/codes", nil)
	assertRedirect(t, gen, "/admin/codes")
	assertContains(t, app.follow(t, gen).Body, "New signup code generated!")
}

func TestAdminCodes_Delete(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("DELETE /admin/codes/c1", http.StatusOK, map[string]string{"message": "deleted"})

	assertRedirect(t, app.post(t, "/admin/codes/c1/delete", nil), "/admin/codes")
	if n := app.backend.Called(http.MethodDelete, "/admin/codes/c1"); n != 1 {
		t.Errorf("delete called %d times; want 1", n)
	}
}

func TestAdminRequests_Filter(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /requests", http.StatusOK, map[string]any{"requests": []any{
		map[string]any{"_id": "r1", "clientName": "Sam", "clientEmail": "sam@example.com", "eventDetails": "Gala", "status": "pending"},
	}})

	resp := app.get(t, "/admin/requests?status=pending")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, "Sam")
	assertContains(t, resp.Body, `name="filter" value="pending"`)

	var query string
	for _, c := range app.backend.Calls() {
		if c.Path == "/api/requests" {
			query = c.Query
		}
	}
	if !strings.Contains(query, "status=pending") {
		t.Errorf("requests query = %q; want status=pending", query)
	}

	assertRedirect(t, app.get(t, "/admin/requests?status=bogus"), "/admin/requests")
}

func TestAdminRequests_UpdateKeepsFilter(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("PUT /requests/r1", http.StatusOK, map[string]any{"request": map[string]any{"_id": "r1"}})

	resp := app.post(t, "/admin/requests/r1", url.Values{
		"status":     {"approved"},
		"adminNotes": {"  Call back Monday  "},
		"filter":     {"pending"},
	})
	assertRedirect(t, resp, "/admin/requests?status=pending")

	body := lastBody(t, app, http.MethodPut, "/requests/r1")
	if body["status"] != "approved" || body["adminNotes"] != "Call back Monday" {
		t.Errorf("update body = %v", body)
	}
}

func TestAdminRequests_UpdateRejectsUnknownStatus(t *testing.T) {
	app := newAdminApp(t)

	resp := app.post(t, "/admin/requests/r1", url.Values{"status": {"archived"}})
	assertRedirect(t, resp, "/admin/requests")
	if n := app.backend.Called(http.MethodPut, "/requests/r1"); n != 0 {
		t.Errorf("update called %d times; want 0", n)
	}
}

func TestAdminRequests_Delete(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("DELETE /requests/r1", http.StatusOK, map[string]string{"message": "deleted"})

	resp := app.post(t, "/admin/requests/r1/delete", url.Values{"filter": {"all"}})
	assertRedirect(t, resp, "/admin/requests")
}

func TestRequestsURL(t *testing.T) {
	tests := map[string]string{
		"":          "/admin/requests",
		"all":       "/admin/requests",
		"completed": "/admin/requests?status=completed",
	}
	for in, want := range tests {
		if got := requestsURL(in); got != want {
			t.Errorf("requestsURL(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestPageParam(t *testing.T) {
	tests := map[string]int{"": 1, "3": 3, "0": 1, "-4": 1, "abc": 1}
	for in, want := range tests {
		r, _ := http.NewRequest(http.MethodGet, "/admin/ushers?page="+in, nil)
		if got := pageParam(r); got != want {
			t.Errorf("pageParam(%q) = %d; want %d", in, got, want)
		}
	}
}

func TestAdminCodes_UnpopulatedUsedBy(t *testing.T) {
	app := newAdminApp(t)
	app.backend.JSON("GET /admin/codes", http.StatusOK, map[string]any{"codes": []any{
		map[string]any{"_id": "c1", "code": "USED001", "isUsed": true, "usedBy": "u9", "expiresAt": time.Now().Add(time.Hour)},
	}})

	resp := app.get(t, "/admin/codes")
	assertStatus(t, resp, http.StatusOK)
	assertContains(t, resp.Body, "Used (1)")
	assertContains(t, resp.Body, "used by Unknown User")
}
