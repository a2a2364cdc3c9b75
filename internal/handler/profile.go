// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// ProfileHandler lets an usher maintain their own profile.
type ProfileHandler struct {
	client   *api.Client
	renderer *render.Renderer
	images   *imaging.Processor
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(client *api.Client, renderer *render.Renderer, images *imaging.Processor) *ProfileHandler {
	return &ProfileHandler{client: client, renderer: renderer, images: images}
}

// Edit renders the signed-in usher's profile form.
func (h *ProfileHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := auth.StateFrom(r.Context()).User
	data := render.TemplateData{Title: "My Profile"}

	usher, err := h.client.Ushers.Get(r.Context(), user.ID)
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to load profile", err)
		usher = &model.Usher{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	data.Data = usher
	renderPage(w, r, h.renderer, tmplProfile, data)
}

// splitSkills parses a comma separated skill list, dropping blanks and duplicates.
func splitSkills(s string) []string {
	var skills []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, part)
	}
	return skills
}

// profileFromForm reads the editable profile fields.
func profileFromForm(r *http.Request, current model.UsherProfile) model.UsherProfile {
	p := current
	p.Bio = strings.TrimSpace(r.PostFormValue("bio"))
	p.Experience = strings.TrimSpace(r.PostFormValue("experience"))
	p.Phone = strings.TrimSpace(r.PostFormValue("phone"))
	p.Skills = splitSkills(r.PostFormValue("skills"))
	p.Availability = r.PostFormValue("availability") == "on" || r.PostFormValue("availability") == "true"
	return p
}

// Update saves the profile fields.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectProfile) {
		return
	}
	session := auth.FromContext(r.Context())
	user := session.Snapshot().User

	name := strings.TrimSpace(r.PostFormValue("name"))
	if len([]rune(name)) < minNameLength {
		flashError(w, r, h.renderer, redirectProfile, MsgNameTooShort)
		return
	}

	var current model.UsherProfile
	if usher, err := h.client.Ushers.Get(r.Context(), user.ID); err == nil {
		current = usher.Profile
	} else if sessionExpired(w, r, err) {
		return
	}

	usher, err := h.client.Ushers.UpdateProfile(r.Context(), api.UsherProfileInput{
		Name:    name,
		Profile: profileFromForm(r, current),
	})
	if err != nil {
		apiFailure(w, r, h.renderer, redirectProfile, "Failed to update profile", err)
		return
	}

	updated := *user
	updated.Name = usher.Name
	session.UpdateUser(updated)

	slog.Info("usher profile updated", "user_id", user.ID)
	flashSuccess(w, r, h.renderer, redirectProfile, "Profile updated successfully")
}

// UploadImage replaces the profile picture.
func (h *ProfileHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.images.MaxBytes()+maxFormMemory); err != nil {
		flashError(w, r, h.renderer, redirectProfile, imaging.ErrTooLarge.Error())
		return
	}

	img, err := formImage(r, h.images, "profileImage")
	if err != nil {
		if errors.Is(err, errNoFile) {
			flashError(w, r, h.renderer, redirectProfile, imaging.ErrNotImage.Error())
			return
		}
		flashError(w, r, h.renderer, redirectProfile, uploadMessage(err))
		return
	}

	if _, err := h.client.Ushers.UploadImage(r.Context(), img); err != nil {
		apiFailure(w, r, h.renderer, redirectProfile, "Failed to upload image", err)
		return
	}

	slog.Info("profile picture uploaded", "user_id", auth.StateFrom(r.Context()).User.ID, "bytes", len(img.Data))
	flashSuccess(w, r, h.renderer, redirectProfile, "Profile picture updated")
}
