// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render turns page templates into HTML responses and carries
// flash messages between requests.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/middleware"
	"github.com/tripolar-events/tripolar-web/internal/model"
)

// Session keys used for flash messages.
const (
	flashKey     = "flash"
	flashTypeKey = "flash_type"
)

// pageDirs are the template directories rendered inside the base layout.
var pageDirs = []string{"public", "auth", "profile", "admin"}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	isDev          bool
	staticURL      string
	markdown       goldmark.Markdown
	policy         *bluemonday.Policy
	title          cases.Caser
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	IsDev          bool
	// StaticURL is the backend origin that relative image paths are served from.
	StaticURL string
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		isDev:          cfg.IsDev,
		staticURL:      strings.TrimRight(cfg.StaticURL, "/"),
		markdown:       goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
		policy:         bluemonday.UGCPolicy(),
		title:          cases.Title(language.English),
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses all templates from the filesystem.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	const baseLayout = "layouts/base.html"

	parse := func(name, page string) error {
		files := append([]string{baseLayout}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
		return nil
	}

	for _, dir := range pageDirs {
		pages, err := getTemplateFiles(templatesFS, dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir, err)
		}
		for _, page := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(page), ".html")
			if err := parse(name, page); err != nil {
				return err
			}
		}
	}

	// The loading page stands alone at the root.
	if _, err := fs.Stat(templatesFS, "loading.html"); err == nil {
		if err := parse("loading", "loading.html"); err != nil {
			return err
		}
	}

	return nil
}

// getTemplateFiles returns all .html files in a directory.
func getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	var files []string

	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		// Directory might not exist, that's ok
		return files, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}

	return files, nil
}

// Has reports whether a template with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"inputDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"truncate":    truncate,
		"markdown":    r.renderMarkdown,
		"imageURL":    r.ImageURL,
		"statusLabel": func(s model.RequestStatus) string { return r.title.String(string(s)) },
		"statusClass": statusClass,
		"codeState":   func(c model.SignupCode) string { return string(c.State(time.Now())) },
		"join":        strings.Join,
		"hasPrefix":   strings.HasPrefix,
		"deref": func(b *bool) bool {
			return b != nil && *b
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
	}
}

// truncate shortens s to at most length runes.
func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}

// statusClass maps a request status to a CSS modifier.
func statusClass(s model.RequestStatus) string {
	switch s {
	case model.StatusApproved:
		return "badge-success"
	case model.StatusRejected:
		return "badge-danger"
	case model.StatusCompleted:
		return "badge-info"
	default:
		return "badge-warning"
	}
}

// renderMarkdown converts user-written markdown to sanitized HTML.
func (r *Renderer) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized by bluemonday
}

// ImageURL resolves an image path returned by the backend.
// Absolute URLs pass through; relative paths are served from the backend origin.
func (r *Renderer) ImageURL(p string) string {
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"), strings.HasPrefix(p, "data:"):
		return p
	case r.staticURL == "":
		return p
	case strings.HasPrefix(p, "/"):
		return r.staticURL + p
	default:
		return r.staticURL + "/" + p
	}
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	CurrentPath string
	User        *model.User
	IsAdmin     bool
	IsUsher     bool
}

// Render renders a template with a 200 status.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	ctx := req.Context()
	data.CurrentYear = time.Now().Year()
	data.CurrentPath = middleware.GetRequestPath(ctx)
	if data.CurrentPath == "" {
		data.CurrentPath = req.URL.Path
	}

	st := auth.StateFrom(ctx)
	data.User = st.User
	data.IsAdmin = st.IsAdmin()
	data.IsUsher = st.IsUsher()

	if data.Flash == "" {
		data.Flash, data.FlashType = r.popFlash(ctx)
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func (r *Renderer) popFlash(ctx context.Context) (msg, typ string) {
	if !r.sessionLoaded(ctx) {
		return "", ""
	}
	msg = r.sessionManager.PopString(ctx, flashKey)
	if msg == "" {
		return "", ""
	}
	typ = r.sessionManager.PopString(ctx, flashTypeKey)
	if typ == "" {
		typ = string(auth.LevelInfo)
	}
	return msg, typ
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	r.putFlash(req.Context(), message, flashType)
}

// Notify stores a notification as a flash message shown on the next page.
func (r *Renderer) Notify(ctx context.Context, level auth.Level, message string) {
	r.putFlash(ctx, message, string(level))
}

func (r *Renderer) putFlash(ctx context.Context, message, flashType string) {
	if !r.sessionLoaded(ctx) {
		slog.Debug("flash dropped, no session in context", "message", message)
		return
	}
	r.sessionManager.Put(ctx, flashKey, message)
	r.sessionManager.Put(ctx, flashTypeKey, flashType)
}

// sessionLoaded reports whether scs loaded a session into ctx.
// scs panics on access without one.
func (r *Renderer) sessionLoaded(ctx context.Context) (ok bool) {
	if r.sessionManager == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = r.sessionManager.Exists(ctx, flashKey)
	return true
}
