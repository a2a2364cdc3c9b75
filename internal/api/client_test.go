// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tripolar-events/tripolar-web/internal/credential"
)

// recorded is what the fake backend saw for one request.
type recorded struct {
	Method      string
	Path        string
	Query       string
	Auth        []string
	RequestID   string
	ContentType string
	Body        []byte
}

type fakeBackend struct {
	*httptest.Server
	mu   sync.Mutex
	reqs []recorded
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.reqs = append(fb.reqs, recorded{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			Query:       r.URL.RawQuery,
			Auth:        r.Header.Values("Authorization"),
			RequestID:   r.Header.Get(HeaderRequestID),
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		fb.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) last(t *testing.T) recorded {
	t.Helper()
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NotEmpty(t, fb.reqs, "backend saw no requests")
	return fb.reqs[len(fb.reqs)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string, creds credential.Store) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL + "/api", Timeout: 2 * time.Second, Credentials: creds})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestBearer_AttachedExactlyOnceWhenTokenPresent(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "ushers": []any{}})
	})
	creds := credential.NewMemoryStore()
	require.NoError(t, creds.Set(context.Background(), "abc"))

	c := newTestClient(t, fb.URL, creds)
	_, err := c.Ushers.List(context.Background())
	require.NoError(t, err)

	got := fb.last(t)
	require.Equal(t, []string{"Bearer abc"}, got.Auth)
	require.Equal(t, "/api/ushers", got.Path)
	require.Equal(t, "application/json", got.ContentType)
}

func TestBearer_AbsentWithoutToken(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": []any{}})
	})

	c := newTestClient(t, fb.URL, credential.NewMemoryStore())
	_, err := c.Events.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, fb.last(t).Auth)
}

func TestBearer_ReadsStoreOnEveryRequest(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": []any{}})
	})
	creds := credential.NewMemoryStore()
	c := newTestClient(t, fb.URL, creds)
	ctx := context.Background()

	require.NoError(t, creds.Set(ctx, "first"))
	_, err := c.Events.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Bearer first"}, fb.last(t).Auth)

	require.NoError(t, creds.Clear(ctx))
	_, err = c.Events.List(ctx)
	require.NoError(t, err)
	require.Empty(t, fb.last(t).Auth)
}

func TestRequestID_FromContextOrGenerated(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": []any{}})
	})
	c := newTestClient(t, fb.URL, nil)

	_, err := c.Events.List(WithRequestID(context.Background(), "rid-123"))
	require.NoError(t, err)
	require.Equal(t, "rid-123", fb.last(t).RequestID)

	_, err = c.Events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, fb.last(t).RequestID, 36)
}

func TestUnauthorized_NotifiesListenerAndPropagates(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired"})
	})
	c := newTestClient(t, fb.URL, nil)

	var calls atomic.Int32
	c.OnSessionExpired(func(ctx context.Context) { calls.Add(1) })

	_, err := c.Auth.Me(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, KindSessionExpired, KindOf(err))
	require.Equal(t, "Token expired", Message(err, "fallback"))
	require.EqualValues(t, 1, calls.Load())
}

func TestUnauthorized_ConcurrentResponsesEachNotifyOnce(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := newTestClient(t, fb.URL, nil)

	var calls atomic.Int32
	c.OnSessionExpired(func(ctx context.Context) { calls.Add(1) })

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Events.List(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, ErrSessionExpired)
	}
	require.EqualValues(t, n, calls.Load())
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"validation with message", http.StatusBadRequest, `{"success":false,"message":"Invalid or expired code"}`, KindValidation, "Invalid or expired code"},
		{"not found without body", http.StatusNotFound, ``, KindValidation, ""},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`, KindServer, "boom"},
		{"success false on 200", http.StatusOK, `{"success":false,"message":"nope"}`, KindValidation, "nope"},
		{"malformed json", http.StatusOK, `{"events": [`, KindDecode, ""},
		{"wrong shape", http.StatusOK, `{"events": {"a":1}}`, KindDecode, ""},
		{"empty body", http.StatusOK, ``, KindDecode, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c := newTestClient(t, fb.URL, nil)

			var expired bool
			c.OnSessionExpired(func(context.Context) { expired = true })

			_, err := c.Events.List(context.Background())
			require.Error(t, err)
			require.Equal(t, tt.kind, KindOf(err))
			require.Equal(t, tt.message, Message(err, ""))
			require.False(t, errors.Is(err, ErrSessionExpired))
			require.False(t, expired, "listener must only fire on 401")
		})
	}
}

func TestTransportError(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	url := fb.URL
	fb.Close()

	c := newTestClient(t, url, nil)
	_, err := c.Events.List(context.Background())
	require.Error(t, err)
	require.Equal(t, KindTransport, KindOf(err))
	require.Equal(t, "Login failed", Message(err, "Login failed"))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c, err := New(Config{BaseURL: fb.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Events.List(context.Background())
	require.Equal(t, KindTransport, KindOf(err))
}

func TestLogin_DecodesTokenAndUser(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"token":   "tok",
			"user":    map[string]any{"id": "u1", "name": "Admin", "email": "a@x", "role": "admin"},
		})
	})
	c := newTestClient(t, fb.URL, nil)

	res, err := c.Auth.Login(context.Background(), "a@x", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok", res.Token)
	require.Equal(t, "u1", res.User.ID)

	var body map[string]string
	require.NoError(t, json.Unmarshal(fb.last(t).Body, &body))
	require.Equal(t, map[string]string{"email": "a@x", "password": "secret"}, body)
}

func TestLogin_MissingTokenIsDecodeError(t *testing.T) {
	fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	c := newTestClient(t, fb.URL, nil)

	_, err := c.Auth.Login(context.Background(), "a@x", "secret")
	require.Equal(t, KindDecode, KindOf(err))
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"unauthorized still reachable", http.StatusUnauthorized, false},
		{"not found still reachable", http.StatusNotFound, false},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"success": tt.status == http.StatusOK})
			})
			c := newTestClient(t, fb.URL, nil)

			err := c.Ping(context.Background())
			require.Equal(t, tt.wantErr, err != nil, "Ping() error = %v", err)
			require.Equal(t, "/api/ushers", fb.last(t).Path)
		})
	}
}
