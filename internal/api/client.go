// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api is a typed client for the Tripolar REST backend.
//
// Every call goes through Client.Do, which runs the outbound hooks
// (bearer token, request id), sends the request once and maps the response
// onto the error taxonomy in errors.go. A 401 response additionally fires
// the session-expired listener before the error is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tripolar-events/tripolar-web/internal/credential"
)

// DefaultTimeout bounds every call when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Config configures a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	Credentials credential.Store
	Logger      *slog.Logger
	// HTTPClient overrides the transport; Timeout is applied to it.
	HTTPClient *http.Client
}

// RequestHook mutates an outbound request before it is sent.
type RequestHook func(*http.Request) error

// ExpiryFunc is notified once for every 401 response.
type ExpiryFunc func(ctx context.Context)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
	creds     credential.Store

	mu       sync.RWMutex
	hooks    []RequestHook
	onExpiry ExpiryFunc

	Auth     *AuthService
	Ushers   *UshersService
	Events   *EventsService
	Requests *RequestsService
	Admin    *AdminService
	Codes    *CodesService
}

// New creates a Client with the bearer and request-id hooks installed.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: parsing base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	} else {
		clone := *hc
		hc = &clone
	}
	hc.Timeout = timeout

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		http:      hc,
		logger:    logger,
		creds:     cfg.Credentials,
	}
	if c.creds != nil {
		c.hooks = append(c.hooks, BearerHook(c.creds))
	}
	c.hooks = append(c.hooks, RequestIDHook())

	c.Auth = &AuthService{c: c}
	c.Ushers = &UshersService{c: c}
	c.Events = &EventsService{c: c}
	c.Requests = &RequestsService{c: c}
	c.Admin = &AdminService{c: c}
	c.Codes = &CodesService{c: c}
	return c, nil
}

// OnSessionExpired sets the single listener notified on 401 responses,
// replacing any previous one.
func (c *Client) OnSessionExpired(fn ExpiryFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpiry = fn
}

// Ping checks that the backend answers. Any response below 500 counts
// as reachable, since the probe path is public and carries no token.
func (c *Client) Ping(ctx context.Context) error {
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/ushers"}, nil)
	switch KindOf(err) {
	case 0, KindValidation, KindSessionExpired, KindDecode:
		return nil
	default:
		return err
	}
}

// Request describes one backend call. At most one of JSON and Form is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   *Form
}

// envelope is the common part of every backend response.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Do sends req and decodes a successful response body into out (if non-nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := req.Method + " " + req.Path

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}

	c.mu.RLock()
	hooks := c.hooks
	onExpiry := c.onExpiry
	c.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(httpReq); err != nil {
			return &Error{Kind: KindTransport, Op: op, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "api request failed",
			"method", req.Method, "path", req.Path, "dur", time.Since(start),
			"request_id", httpReq.Header.Get(HeaderRequestID), "error", err)
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.logger.DebugContext(ctx, "api request",
		"method", req.Method, "path", req.Path, "status", resp.StatusCode,
		"dur", time.Since(start), "request_id", httpReq.Header.Get(HeaderRequestID))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	_ = json.Unmarshal(body, &env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if onExpiry != nil {
			onExpiry(ctx)
		}
		return &Error{Kind: KindSessionExpired, Op: op, Status: resp.StatusCode, Message: env.Message}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Message: env.Message}
	case resp.StatusCode >= 400:
		return &Error{Kind: KindValidation, Op: op, Status: resp.StatusCode, Message: env.Message}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if env.Success != nil && !*env.Success {
		return &Error{Kind: KindValidation, Op: op, Status: resp.StatusCode, Message: env.Message}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case req.Form != nil:
		buf, ct, err := req.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}

// File is one uploaded file in a multipart body.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type formField struct {
	name, value string
}

type formFile struct {
	field string
	file  File
}

// Form is a multipart/form-data body. Fields keep insertion order.
type Form struct {
	fields []formField
	files  []formFile
}

// Add appends a text field.
func (f *Form) Add(name, value string) {
	f.fields = append(f.fields, formField{name, value})
}

// AddFile appends a file part.
func (f *Form) AddFile(field string, file File) {
	f.files = append(f.files, formFile{field, file})
}

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, fld := range f.fields {
		if err := mw.WriteField(fld.name, fld.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", fld.name, err)
		}
	}
	for _, ff := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(ff.field), escapeQuotes(ff.file.Name)))
		ct := ff.file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating part %s: %w", ff.field, err)
		}
		if _, err := part.Write(ff.file.Data); err != nil {
			return nil, "", fmt.Errorf("writing part %s: %w", ff.field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

// segment escapes an identifier for use as a path segment.
func segment(id string) string { return url.PathEscape(id) }
