// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/scheduler"
	"github.com/tripolar-events/tripolar-web/internal/version"
)

// Health states.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusUnknown  = "unknown"
)

// UpstreamStatus reports the latest upstream probe.
type UpstreamStatus interface {
	Status() scheduler.Status
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	upstream  UpstreamStatus
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(upstream UpstreamStatus) *HealthHandler {
	return &HealthHandler{
		upstream:  upstream,
		startTime: time.Now(),
	}
}

// StartTime returns when the handler (and application) was started.
func (h *HealthHandler) StartTime() time.Time {
	return h.startTime
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (admins only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Latency   string     `json:"latency,omitempty"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`
}

// SystemInfo contains process-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
}

// upstreamCheck converts the latest probe into a Check. Before the first
// probe completes the upstream is reported as unknown, which does not degrade.
func (h *HealthHandler) upstreamCheck() Check {
	if h.upstream == nil {
		return Check{Status: StatusUnknown}
	}
	st := h.upstream.Status()
	if !st.Checked {
		return Check{Status: StatusUnknown, Message: "not checked yet"}
	}
	c := Check{
		Status:    StatusHealthy,
		Latency:   st.Latency.Round(time.Millisecond).String(),
		CheckedAt: &st.CheckedAt,
	}
	if !st.Healthy {
		c.Status = StatusDegraded
		c.Message = st.Error
	}
	return c
}

// Health handles GET /health.
// Anonymous callers get the status only; admins get check details.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	upstream := h.upstreamCheck()

	overallStatus := StatusHealthy
	code := http.StatusOK
	if upstream.Status == StatusDegraded {
		overallStatus = StatusDegraded
		code = http.StatusServiceUnavailable
	}

	if !auth.StateFrom(r.Context()).IsAdmin() {
		writeJSON(w, code, HealthStatusPublic{Status: overallStatus})
		return
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Current().Version,
		Checks: map[string]Check{
			"upstream": upstream,
		},
	}

	if r.URL.Query().Get("verbose") == "true" {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     mem.Alloc,
		}
	}

	writeJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}
