// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func TestEventCover(t *testing.T) {
	if got := (Event{}).Cover(); got != "" {
		t.Errorf("Cover() = %q, want empty", got)
	}
	e := Event{Images: []string{"/uploads/a.jpg", "/uploads/b.jpg"}}
	if got := e.Cover(); got != "/uploads/a.jpg" {
		t.Errorf("Cover() = %q, want first image", got)
	}
}

func TestSignupCodeState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		code SignupCode
		want CodeState
	}{
		{"unused future", SignupCode{ExpiresAt: now.Add(time.Hour)}, CodeActive},
		{"unused past", SignupCode{ExpiresAt: now.Add(-time.Hour)}, CodeExpired},
		{"unused exactly now", SignupCode{ExpiresAt: now}, CodeExpired},
		{"used future", SignupCode{IsUsed: true, ExpiresAt: now.Add(time.Hour)}, CodeUsed},
		{"used past", SignupCode{IsUsed: true, ExpiresAt: now.Add(-time.Hour)}, CodeUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.State(now); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyCodes(t *testing.T) {
	now := time.Now()
	codes := []SignupCode{
		{Code: "A", ExpiresAt: now.Add(time.Hour)},
		{Code: "B", IsUsed: true},
		{Code: "C", ExpiresAt: now.Add(-time.Minute)},
		{Code: "D", ExpiresAt: now.Add(2 * time.Hour)},
	}

	g := ClassifyCodes(codes, now)
	if len(g.Active) != 2 || g.Active[0].Code != "A" || g.Active[1].Code != "D" {
		t.Errorf("Active = %+v", g.Active)
	}
	if len(g.Used) != 1 || g.Used[0].Code != "B" {
		t.Errorf("Used = %+v", g.Used)
	}
	if len(g.Expired) != 1 || g.Expired[0].Code != "C" {
		t.Errorf("Expired = %+v", g.Expired)
	}
}

func TestParseRequestStatusEvent(t *testing.T) {
	for _, st := range AllRequestStatuses {
		got, err := ParseRequestStatus(string(st))
		if err != nil || got != st {
			t.Errorf("ParseRequestStatus(%q) = %q, %v", st, got, err)
		}
	}
	if _, err := ParseRequestStatus("archived"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestCountByStatusEvent(t *testing.T) {
	counts := CountByStatus([]ServiceRequest{
		{Status: StatusPending},
		{Status: StatusPending},
		{Status: StatusCompleted},
	})
	if counts[StatusPending] != 2 {
		t.Errorf("pending = %d, want 2", counts[StatusPending])
	}
	if counts[StatusApproved] != 0 {
		t.Errorf("approved = %d, want 0", counts[StatusApproved])
	}
	if counts[StatusCompleted] != 1 {
		t.Errorf("completed = %d, want 1", counts[StatusCompleted])
	}
}
