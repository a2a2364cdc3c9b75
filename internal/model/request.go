// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// RequestStatus is the triage state of a service request.
type RequestStatus string

// Request statuses.
const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

// AllRequestStatuses lists statuses in triage order.
var AllRequestStatuses = []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusCompleted}

// ParseRequestStatus validates a status value.
func ParseRequestStatus(s string) (RequestStatus, error) {
	for _, st := range AllRequestStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// EventTypeRequest is the event type sent by the public contact form.
const EventTypeRequest = "Event Request"

// ServiceRequest is a client's request to book ushers.
type ServiceRequest struct {
	ID             string        `json:"_id"`
	ClientName     string        `json:"clientName"`
	ClientEmail    string        `json:"clientEmail"`
	ClientPhone    string        `json:"clientPhone,omitempty"`
	EventDetails   string        `json:"eventDetails"`
	EventType      string        `json:"eventType,omitempty"`
	EventDate      *time.Time    `json:"eventDate,omitempty"`
	Location       string        `json:"location,omitempty"`
	SelectedUshers []Usher       `json:"selectedUshers,omitempty"`
	Status         RequestStatus `json:"status"`
	AdminNotes     string        `json:"adminNotes,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// CountByStatus returns the number of requests per status.
func CountByStatus(requests []ServiceRequest) map[RequestStatus]int {
	counts := make(map[RequestStatus]int, len(AllRequestStatuses))
	for _, st := range AllRequestStatuses {
		counts[st] = 0
	}
	for _, r := range requests {
		counts[r.Status]++
	}
	return counts
}
