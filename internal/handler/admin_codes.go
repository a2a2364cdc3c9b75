// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// AdminCodesData is the signup code page model.
type AdminCodesData struct {
	Groups model.CodeGroups
	Total  int
}

// Codes lists signup codes grouped by state.
func (h *AdminHandler) Codes(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Signup Codes"}
	codes, err := h.client.Admin.Codes(r.Context())
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to load signup codes", err)
	}
	data.Data = AdminCodesData{
		Groups: model.ClassifyCodes(codes, time.Now()),
		Total:  len(codes),
	}
	renderPage(w, r, h.renderer, tmplAdminCodes, data)
}

// GenerateCode creates a new signup code.
func (h *AdminHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.client.Admin.GenerateCode(r.Context())
	if err != nil {
		apiFailure(w, r, h.renderer, redirectAdminCodes, "Failed to generate code", err)
		return
	}
	slog.Info("signup code generated", "code_id", code.ID, "expires_at", code.ExpiresAt)
	flashSuccess(w, r, h.renderer, redirectAdminCodes, "New signup code generated!")
}

// DeleteCode removes a signup code.
func (h *AdminHandler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.client.Admin.DeleteCode(r.Context(), id); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminCodes, "Failed to delete code", err)
		return
	}
	slog.Info("signup code deleted", "code_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminCodes, "Signup code deleted")
}
