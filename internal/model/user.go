// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types exchanged with the Tripolar backend:
// users, ushers, events, service requests and signup codes.
package model

import "encoding/json"

// Role is the role of an authenticated principal.
type Role string

// Known roles. The zero Role means no authenticated principal.
const (
	RoleAdmin Role = "admin"
	RoleUsher Role = "usher"
)

// User is the authenticated principal as returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UnmarshalJSON accepts the identifier as either "id" or "_id". A bare
// string is an unpopulated reference and decodes into ID alone.
func (u *User) UnmarshalJSON(data []byte) error {
	if id, ok := refID(data); ok {
		*u = User{ID: id}
		return nil
	}
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if u.ID == "" {
		u.ID = raw.MongoID
	}
	return nil
}

// refID decodes data as a bare identifier string.
func refID(data []byte) (string, bool) {
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", false
	}
	return id, true
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsUsher returns true if the user has usher role.
func (u *User) IsUsher() bool {
	return u != nil && u.Role == RoleUsher
}

// Pagination describes one page of a server-side listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// DashboardStats holds the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalUshers     int `json:"totalUshers"`
	ActiveUshers    int `json:"activeUshers"`
	TotalEvents     int `json:"totalEvents"`
	PendingRequests int `json:"pendingRequests"`
	AvailableCodes  int `json:"availableCodes"`
	UsedCodes       int `json:"usedCodes"`
}
