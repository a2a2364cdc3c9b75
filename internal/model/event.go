// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event is a past or upcoming staffed event shown in the portfolio.
type Event struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Client      string    `json:"client,omitempty"`
	UsherCount  int       `json:"usherCount,omitempty"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Cover returns the first image of the event or "".
func (e Event) Cover() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0]
}
