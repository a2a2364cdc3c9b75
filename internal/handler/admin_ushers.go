// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// AdminUshersData is the admin usher list model.
type AdminUshersData struct {
	Ushers     []model.Usher
	Pagination *model.Pagination
	Query      string
	Hidden     int
}

// Ushers lists ushers with search and pagination.
func (h *AdminHandler) Ushers(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Manage Ushers"}
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	ushers, pagination, err := h.client.Admin.Ushers(r.Context(), api.ListUshersParams{
		Page:   pageParam(r),
		Limit:  adminUshersLimit,
		Search: q,
	})
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to fetch ushers", err)
	}

	data.Data = AdminUshersData{
		Ushers:     ushers,
		Pagination: pagination,
		Query:      q,
		Hidden:     model.CountHidden(ushers),
	}
	renderPage(w, r, h.renderer, tmplAdminUshers, data)
}

// UpdateUsher saves an admin edit of an usher.
func (h *AdminHandler) UpdateUsher(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUshers) {
		return
	}
	id := chi.URLParam(r, "id")

	name := strings.TrimSpace(r.PostFormValue("name"))
	if len([]rune(name)) < minNameLength {
		flashError(w, r, h.renderer, redirectAdminUshers, MsgNameTooShort)
		return
	}

	active := formBool(r, "isActive")
	visible := formBool(r, "isVisibleOnWebsite")
	profile := model.UsherProfile{
		ProfileImage:         r.PostFormValue("profileImage"),
		ProfileImageRejected: formBool(r, "profileImageRejected"),
	}
	profile = profileFromForm(r, profile)

	if _, err := h.client.Admin.UpdateUsher(r.Context(), id, api.UpdateUsherInput{
		Name:               name,
		IsActive:           &active,
		IsVisibleOnWebsite: &visible,
		Profile:            &profile,
	}); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminUshers, "Failed to update usher", err)
		return
	}

	slog.Info("usher updated", "usher_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminUshers, "Usher updated successfully")
}

// DeleteUsher removes an usher.
func (h *AdminHandler) DeleteUsher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.client.Admin.DeleteUsher(r.Context(), id); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminUshers, "Failed to delete usher", err)
		return
	}
	slog.Info("usher deleted", "usher_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminUshers, "Usher deleted successfully")
}

// ToggleVisibility shows or hides an usher on the public site.
// The form carries the new value.
func (h *AdminHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUshers) {
		return
	}
	id := chi.URLParam(r, "id")
	visible := formBool(r, "visible")

	if err := h.client.Admin.SetUsherVisibility(r.Context(), id, visible); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminUshers, "Failed to toggle visibility", err)
		return
	}

	state := "hidden"
	if visible {
		state = "shown"
	}
	slog.Info("usher visibility changed", "usher_id", id, "visible", visible)
	flashSuccess(w, r, h.renderer, redirectAdminUshers, "Usher "+state+" on website")
}

// RejectPicture removes an usher's profile picture so they upload a new one.
func (h *AdminHandler) RejectPicture(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUshers) {
		return
	}
	id := chi.URLParam(r, "id")
	// An empty reason falls back to api.DefaultRejectionReason.
	reason := strings.TrimSpace(r.PostFormValue("reason"))

	if err := h.client.Admin.RejectProfilePicture(r.Context(), id, reason); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminUshers, "Failed to reject profile picture", err)
		return
	}

	slog.Info("profile picture rejected", "usher_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminUshers,
		"Profile picture rejected successfully. User will be prompted to upload a new one.")
}
