// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/credential"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
	"github.com/tripolar-events/tripolar-web/internal/middleware"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
	"github.com/tripolar-events/tripolar-web/internal/testutil"
	"github.com/tripolar-events/tripolar-web/web"
)

// testApp wires the real router, templates and session stack against a
// scripted backend.
type testApp struct {
	backend  *testutil.Backend
	creds    *credential.MemoryStore
	renderer *render.Renderer
	lp       *middleware.LoginProtection
	server   *httptest.Server
	client   *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := testutil.NewBackend(t)
	creds := credential.NewMemoryStore()
	client := testutil.NewClient(t, backend, creds)

	sm := scs.New()
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
		StaticURL:      "https://backend.test",
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	manager := auth.NewManager(auth.Config{
		Client:      client,
		Credentials: creds,
		Notifier:    renderer,
		Logger:      testutil.TestLoggerSilent(),
	})
	images := imaging.NewProcessor(0)
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{})

	authHandler := NewAuthHandler(client, renderer, sm, lp, images)
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	h := Handlers{
		Public:  NewPublicHandler(client, renderer),
		Auth:    authHandler,
		Profile: NewProfileHandler(client, renderer, images),
		Admin:   NewAdminHandler(client, renderer, images),
		Health:  NewHealthHandler(nil),
		Static:  http.StripPrefix("/static/", http.FileServer(http.FS(static))),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestPath)
	Register(r, h, RouteMiddleware{
		Session: []func(http.Handler) http.Handler{sm.LoadAndSave, manager.Middleware},
		Guard:   middleware.NewGuard(http.HandlerFunc(authHandler.Loading)),
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	httpClient := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testApp{
		backend:  backend,
		creds:    creds,
		renderer: renderer,
		lp:       lp,
		server:   server,
		client:   httpClient,
	}
}

// signIn makes the backend accept a stored token for user.
func (a *testApp) signIn(t *testing.T, user model.User) {
	t.Helper()
	a.backend.JSON("GET /auth/me", http.StatusOK, map[string]any{"user": user})
	if err := a.creds.Set(context.Background(), "test-token"); err != nil {
		t.Fatalf("creds.Set: %v", err)
	}
}

// response is a fully read HTTP response.
type response struct {
	Status   int
	Body     string
	Location string
	Header   http.Header
}

func (a *testApp) do(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := a.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return response{
		Status:   resp.StatusCode,
		Body:     string(body),
		Location: resp.Header.Get("Location"),
		Header:   resp.Header,
	}
}

func (a *testApp) get(t *testing.T, path string) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return a.do(t, req)
}

func (a *testApp) post(t *testing.T, path string, form url.Values) response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

// multipartFile is one file part of a multipart form.
type multipartFile struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

func (a *testApp) postMultipart(t *testing.T, path string, fields url.Values, files ...multipartFile) response {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	req, err := http.NewRequest(http.MethodPost, a.server.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	return a.do(t, req)
}

// follow requests the Location of a redirect, which pops any flash.
func (a *testApp) follow(t *testing.T, resp response) response {
	t.Helper()
	if resp.Location == "" {
		t.Fatalf("expected a redirect, got status %d", resp.Status)
	}
	return a.get(t, resp.Location)
}

func multipartBody(t *testing.T, fields url.Values, files ...multipartFile) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(name, v); err != nil {
				t.Fatalf("WriteField: %v", err)
			}
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			t.Fatalf("writing part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// testPNG encodes a small solid image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func assertStatus(t *testing.T, resp response, want int) {
	t.Helper()
	if resp.Status != want {
		t.Fatalf("status = %d; want %d (body: %.200s)", resp.Status, want, resp.Body)
	}
}

func assertRedirect(t *testing.T, resp response, want string) {
	t.Helper()
	if resp.Status != http.StatusSeeOther && resp.Status != http.StatusFound {
		t.Fatalf("status = %d; want redirect to %q", resp.Status, want)
	}
	if resp.Location != want {
		t.Errorf("Location = %q; want %q", resp.Location, want)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}

var (
	testAdmin = model.User{ID: "admin-1", Name: "Ada Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	testUsher = model.User{ID: "usher-1", Name: "Uma Usher", Email: "uma@example.com", Role: model.RoleUsher}
)

func boolPtr(b bool) *bool { return &b }
