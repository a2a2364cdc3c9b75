// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// AdminHandler handles the admin dashboard and management pages.
type AdminHandler struct {
	client   *api.Client
	renderer *render.Renderer
	images   *imaging.Processor
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *api.Client, renderer *render.Renderer, images *imaging.Processor) *AdminHandler {
	return &AdminHandler{client: client, renderer: renderer, images: images}
}

// Dashboard renders the admin overview.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Dashboard"}

	stats, err := h.client.Admin.Dashboard(r.Context())
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to load dashboard", err)
		stats = &model.DashboardStats{}
	}

	data.Data = stats
	renderPage(w, r, h.renderer, tmplDashboard, data)
}

// pageParam reads a 1-based page number from the query, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// formBool reads a checkbox or "true"/"false" field.
func formBool(r *http.Request, name string) bool {
	switch r.PostFormValue(name) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}
