// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

// UsherProfile holds the public profile of an usher.
type UsherProfile struct {
	ProfileImage         string   `json:"profileImage,omitempty"`
	ProfileImageRejected bool     `json:"profileImageRejected,omitempty"`
	Bio                  string   `json:"bio,omitempty"`
	Experience           string   `json:"experience,omitempty"`
	Skills               []string `json:"skills,omitempty"`
	Availability         bool     `json:"availability"`
	Phone                string   `json:"phone,omitempty"`
}

// Usher is a staff member account.
type Usher struct {
	ID                 string       `json:"_id"`
	Name               string       `json:"name"`
	Email              string       `json:"email"`
	Role               Role         `json:"role,omitempty"`
	IsActive           bool         `json:"isActive"`
	IsVisibleOnWebsite *bool        `json:"isVisibleOnWebsite,omitempty"`
	Profile            UsherProfile `json:"profile"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// UnmarshalJSON also accepts an unpopulated reference, a bare id string.
func (u *Usher) UnmarshalJSON(data []byte) error {
	if id, ok := refID(data); ok {
		*u = Usher{ID: id}
		return nil
	}
	type plain Usher
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = Usher(p)
	return nil
}

// Visible reports whether the usher is listed on the public site.
// A missing flag counts as visible.
func (u Usher) Visible() bool {
	return u.IsVisibleOnWebsite == nil || *u.IsVisibleOnWebsite
}

// HasImage reports whether the usher has an accepted profile picture.
func (u Usher) HasImage() bool {
	return u.Profile.ProfileImage != "" && !u.Profile.ProfileImageRejected
}

// Initials returns up to two upper-cased initials of the usher's name.
func (u Usher) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.Name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

// Matches reports whether term occurs in the usher's name or email,
// ignoring case, accents and script.
func (u Usher) Matches(term string) bool {
	term = Fold(term)
	if term == "" {
		return true
	}
	return strings.Contains(Fold(u.Name), term) || strings.Contains(Fold(u.Email), term)
}

// HasSkill reports whether the usher lists the skill (case-insensitive).
func (u Usher) HasSkill(skill string) bool {
	for _, s := range u.Profile.Skills {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(skill)) {
			return true
		}
	}
	return false
}

// Fold normalizes s for search comparisons.
func Fold(s string) string {
	return cases.Fold().String(unidecode.Unidecode(strings.TrimSpace(s)))
}

// FilterUshers returns the ushers for which keep returns true.
func FilterUshers(ushers []Usher, keep func(Usher) bool) []Usher {
	out := make([]Usher, 0, len(ushers))
	for _, u := range ushers {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// CountHidden returns how many ushers are hidden from the public site.
func CountHidden(ushers []Usher) int {
	n := 0
	for _, u := range ushers {
		if !u.Visible() {
			n++
		}
	}
	return n
}
