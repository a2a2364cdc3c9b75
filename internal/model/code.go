// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CodeState classifies a signup code at a point in time.
type CodeState string

// Code states.
const (
	CodeActive  CodeState = "active"
	CodeUsed    CodeState = "used"
	CodeExpired CodeState = "expired"
)

// MinCodeLength is the length below which a typed code is not worth verifying.
const MinCodeLength = 6

// SignupCode is a one-time code that lets an usher register.
type SignupCode struct {
	ID        string     `json:"_id"`
	Code      string     `json:"code"`
	IsUsed    bool       `json:"isUsed"`
	UsedBy    *User      `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// State classifies the code relative to now.
func (c SignupCode) State(now time.Time) CodeState {
	switch {
	case c.IsUsed:
		return CodeUsed
	case c.ExpiresAt.After(now):
		return CodeActive
	default:
		return CodeExpired
	}
}

// CodeGroups partitions codes by state.
type CodeGroups struct {
	Active  []SignupCode
	Used    []SignupCode
	Expired []SignupCode
}

// ClassifyCodes partitions codes by their state at now, preserving order.
func ClassifyCodes(codes []SignupCode, now time.Time) CodeGroups {
	var g CodeGroups
	for _, c := range codes {
		switch c.State(now) {
		case CodeActive:
			g.Active = append(g.Active, c)
		case CodeUsed:
			g.Used = append(g.Used, c)
		case CodeExpired:
			g.Expired = append(g.Expired, c)
		}
	}
	return g
}
