// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// maxEventImages bounds the request body of an event form.
const maxEventImages = 10

// EventFormData is the create/edit event page model.
type EventFormData struct {
	Event  model.Event
	IsEdit bool
}

// Events lists events for management.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Manage Events"}
	events, err := h.client.Events.List(r.Context())
	if err != nil {
		if sessionExpired(w, r, err) {
			return
		}
		pageError(r, &data, "Failed to load events", err)
	}
	data.Data = events
	renderPage(w, r, h.renderer, tmplAdminEvents, data)
}

// NewEvent renders the empty event form.
func (h *AdminHandler) NewEvent(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, tmplAdminEvent, render.TemplateData{
		Title: "New Event",
		Data:  EventFormData{},
	})
}

// EditEvent renders the form for an existing event.
func (h *AdminHandler) EditEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.client.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apiFailure(w, r, h.renderer, redirectAdminEvents, "Failed to load event", err)
		return
	}
	renderPage(w, r, h.renderer, tmplAdminEvent, render.TemplateData{
		Title: "Edit Event",
		Data:  EventFormData{Event: *event, IsEdit: true},
	})
}

// eventInput reads and validates the event form. It returns a user-facing
// message when the form is incomplete.
func (h *AdminHandler) eventInput(r *http.Request) (api.EventInput, string) {
	in := api.EventInput{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Date:        strings.TrimSpace(r.PostFormValue("date")),
		Location:    strings.TrimSpace(r.PostFormValue("location")),
		Client:      strings.TrimSpace(r.PostFormValue("client")),
	}
	if in.Title == "" || in.Date == "" || in.Location == "" {
		return in, "Please fill in all required fields"
	}
	if _, err := time.Parse(time.DateOnly, in.Date); err != nil {
		return in, "Please enter a valid date"
	}
	if v := strings.TrimSpace(r.PostFormValue("usherCount")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return in, "Usher count must be a positive number"
		}
		in.UsherCount = n
	}

	images, err := formImages(r, h.images, "images")
	if err != nil {
		return in, uploadMessage(err)
	}
	in.Images = images
	return in, ""
}

// CreateEvent creates an event from the multipart form.
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	back := redirectAdminEvents + RouteSuffixNew
	if err := parseMultipart(w, r, h.images.MaxBytes()*maxEventImages+maxFormMemory); err != nil {
		flashError(w, r, h.renderer, back, "Invalid form data")
		return
	}

	in, msg := h.eventInput(r)
	if msg != "" {
		flashError(w, r, h.renderer, back, msg)
		return
	}

	event, err := h.client.Events.Create(r.Context(), in)
	if err != nil {
		apiFailure(w, r, h.renderer, back, "Failed to create event", err)
		return
	}

	slog.Info("event created", "event_id", event.ID, "images", len(in.Images))
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event created successfully")
}

// UpdateEvent saves an edited event. New images are appended.
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := redirectAdminEvents + "/" + id + RouteSuffixEdit
	if err := parseMultipart(w, r, h.images.MaxBytes()*maxEventImages+maxFormMemory); err != nil {
		flashError(w, r, h.renderer, back, "Invalid form data")
		return
	}

	in, msg := h.eventInput(r)
	if msg != "" {
		flashError(w, r, h.renderer, back, msg)
		return
	}

	if _, err := h.client.Events.Update(r.Context(), id, in); err != nil {
		apiFailure(w, r, h.renderer, back, "Failed to update event", err)
		return
	}

	slog.Info("event updated", "event_id", id, "new_images", len(in.Images))
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event updated successfully")
}

// DeleteEvent removes an event.
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.client.Events.Delete(r.Context(), id); err != nil {
		apiFailure(w, r, h.renderer, redirectAdminEvents, "Failed to delete event", err)
		return
	}
	slog.Info("event deleted", "event_id", id)
	flashSuccess(w, r, h.renderer, redirectAdminEvents, "Event deleted successfully")
}

// RemoveEventImage detaches one image from an event.
func (h *AdminHandler) RemoveEventImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := redirectAdminEvents + "/" + id + RouteSuffixEdit
	if !parseFormOrRedirect(w, r, h.renderer, back) {
		return
	}

	image := r.PostFormValue("image")
	if image == "" {
		flashError(w, r, h.renderer, back, "No image selected")
		return
	}

	if err := h.client.Events.RemoveImage(r.Context(), id, image); err != nil {
		apiFailure(w, r, h.renderer, back, "Failed to remove image", err)
		return
	}
	slog.Info("event image removed", "event_id", id)
	flashSuccess(w, r, h.renderer, back, "Image removed")
}
