// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// statusAll is the filter value that lists every request.
const statusAll = "all"

// AdminRequestsData is the service request page model.
type AdminRequestsData struct {
	Requests []model.ServiceRequest
	Counts   map[model.RequestStatus]int
	Filter   string
	Statuses []model.RequestStatus
}

// requestsURL returns the request list, keeping the status filter.
func requestsURL(filter string) string {
	if filter == "" || filter == statusAll {
		return redirectAdminRequests
	}
	return redirectAdminRequests + "?status=" + url.QueryEscape(filter)
}

// Requests lists service requests, optionally filtered by status.
func (h *AdminHandler) Requests(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Service Requests"}

	filter := strings.TrimSpace(r.URL.Query().Get("status"))
	if filter == "" {
		filter = statusAll
	}
	var params api.ListRequestsParams
	if filter != statusAll {
		status, err := model.ParseRequestStatus(filter)
		if err != nil {
			http.Redirect(w, r, redirectAdminRequests, http.StatusSeeOther)
			return
		}
		params.Status = status
	}

	requests, err := h.client.Requests.List(r.Context(), params)
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to load requests", err)
	}

	data.Data = AdminRequestsData{
		Requests: requests,
		Counts:   model.CountByStatus(requests),
		Filter:   filter,
		Statuses: model.AllRequestStatuses,
	}
	renderPage(w, r, h.renderer, tmplAdminRequests, data)
}

// UpdateRequest changes a request's status and admin notes.
func (h *AdminHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminRequests) {
		return
	}
	id := chi.URLParam(r, "id")
	back := requestsURL(r.PostFormValue("filter"))

	status, err := model.ParseRequestStatus(r.PostFormValue("status"))
	if err != nil {
		flashError(w, r, h.renderer, back, "Please choose a valid status")
		return
	}

	if err := h.client.Requests.Update(r.Context(), id, api.UpdateRequestInput{
		Status:     status,
		AdminNotes: strings.TrimSpace(r.PostFormValue("adminNotes")),
	}); err != nil {
		apiFailure(w, r, h.renderer, back, "Failed to update request", err)
		return
	}

	slog.Info("service request updated", "request_id", id, "status", status)
	flashSuccess(w, r, h.renderer, back, "Request "+string(status)+" successfully")
}

// DeleteRequest removes a service request.
func (h *AdminHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminRequests) {
		return
	}
	id := chi.URLParam(r, "id")
	back := requestsURL(r.PostFormValue("filter"))

	if err := h.client.Requests.Delete(r.Context(), id); err != nil {
		apiFailure(w, r, h.renderer, back, "Failed to delete request", err)
		return
	}
	slog.Info("service request deleted", "request_id", id)
	flashSuccess(w, r, h.renderer, back, "Request deleted successfully")
}
