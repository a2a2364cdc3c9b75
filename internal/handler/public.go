// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/model"
	"github.com/tripolar-events/tripolar-web/internal/render"
)

// PublicHandler serves the pages anyone can see.
type PublicHandler struct {
	client   *api.Client
	renderer *render.Renderer
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(client *api.Client, renderer *render.Renderer) *PublicHandler {
	return &PublicHandler{client: client, renderer: renderer}
}

// HomeData is the home page model.
type HomeData struct {
	Ushers []model.Usher
	Events []model.Event
}

// Home renders the landing page with a few ushers and recent events.
// Either list failing leaves that section empty.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	var (
		ushers   []model.Usher
		events   []model.Event
		usherErr error
		eventErr error
	)
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		ushers, usherErr = h.client.Ushers.List(ctx)
		return nil
	})
	g.Go(func() error {
		events, eventErr = h.client.Events.List(ctx)
		return nil
	})
	_ = g.Wait()

	if usherErr != nil {
		logAPIError(r, "failed to load ushers", usherErr)
	}
	if eventErr != nil {
		logAPIError(r, "failed to load events", eventErr)
	}

	visible := model.FilterUshers(ushers, model.Usher.Visible)
	renderPage(w, r, h.renderer, tmplHome, render.TemplateData{
		Title: "Tripolar Events",
		Data: HomeData{
			Ushers: firstN(visible, homeUshersLimit),
			Events: firstN(events, homeEventsLimit),
		},
	})
}

// UshersData is the usher directory model.
type UshersData struct {
	Ushers []model.Usher
	Skills []string
	Query  string
	Skill  string
}

// Ushers renders the public usher directory, filtered by name and skill.
func (h *PublicHandler) Ushers(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Our Ushers"}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	skill := strings.TrimSpace(r.URL.Query().Get("skill"))

	ushers, err := h.client.Ushers.List(r.Context())
	if err != nil {
		pageError(r, &data, "Failed to load ushers", err)
	}

	visible := model.FilterUshers(ushers, model.Usher.Visible)
	filtered := model.FilterUshers(visible, func(u model.Usher) bool {
		return u.Matches(q) && (skill == "" || u.HasSkill(skill))
	})

	data.Data = UshersData{
		Ushers: filtered,
		Skills: collectSkills(visible),
		Query:  q,
		Skill:  skill,
	}
	renderPage(w, r, h.renderer, tmplUshers, data)
}

// Usher renders one usher's public profile.
func (h *PublicHandler) Usher(w http.ResponseWriter, r *http.Request) {
	usher, err := h.client.Ushers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || !usher.Visible() {
		if err != nil && api.KindOf(err) != api.KindValidation {
			logAPIError(r, "failed to load usher", err)
		}
		h.NotFound(w, r)
		return
	}
	renderPage(w, r, h.renderer, tmplUsher, render.TemplateData{Title: usher.Name, Data: usher})
}

// Events renders the list of previous events.
func (h *PublicHandler) Events(w http.ResponseWriter, r *http.Request) {
	data := render.TemplateData{Title: "Previous Events"}
	events, err := h.client.Events.List(r.Context())
	if err != nil {
		pageError(r, &data, "Failed to load events", err)
	}
	data.Data = events
	renderPage(w, r, h.renderer, tmplEvents, data)
}

// Event renders one event.
func (h *PublicHandler) Event(w http.ResponseWriter, r *http.Request) {
	event, err := h.client.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if api.KindOf(err) != api.KindValidation {
			logAPIError(r, "failed to load event", err)
		}
		h.NotFound(w, r)
		return
	}
	renderPage(w, r, h.renderer, tmplEvent, render.TemplateData{Title: event.Title, Data: event})
}

// ContactData is the booking request form model.
type ContactData struct {
	Ushers   []model.Usher
	Selected []string
	Name     string
	Email    string
	Phone    string
	Message  string
}

// IsSelected reports whether the usher with id was picked.
func (d ContactData) IsSelected(id string) bool {
	return slices.Contains(d.Selected, id)
}

// ContactForm renders the booking request form.
func (h *PublicHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	h.renderContact(w, r, ContactData{Selected: r.URL.Query()["usher"]}, "")
}

func (h *PublicHandler) renderContact(w http.ResponseWriter, r *http.Request, form ContactData, errMsg string) {
	data := render.TemplateData{Title: "Request Ushers"}
	ushers, err := h.client.Ushers.List(r.Context())
	if err != nil {
		pageError(r, &data, "Failed to load ushers", err)
	}
	form.Ushers = firstN(model.FilterUshers(ushers, model.Usher.Visible), contactUshersLimit)
	data.Data = form

	status := http.StatusOK
	if errMsg != "" {
		data.Flash = errMsg
		data.FlashType = "error"
		status = http.StatusUnprocessableEntity
	}
	renderPageStatus(w, r, h.renderer, status, tmplContact, data)
}

// Contact submits a booking request.
func (h *PublicHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectContact) {
		return
	}

	form := ContactData{
		Selected: r.PostForm["selectedUshers"],
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
		Message:  strings.TrimSpace(r.PostFormValue("message")),
	}

	if len(form.Selected) == 0 {
		h.renderContact(w, r, form, "Please select at least one usher")
		return
	}
	if form.Name == "" || form.Email == "" || form.Message == "" {
		h.renderContact(w, r, form, "Please fill in all required fields")
		return
	}

	err := h.client.Requests.Create(r.Context(), api.CreateRequestInput{
		ClientName:     form.Name,
		ClientEmail:    form.Email,
		ClientPhone:    form.Phone,
		EventDetails:   form.Message,
		EventType:      model.EventTypeRequest,
		SelectedUshers: form.Selected,
		Status:         model.StatusPending,
	})
	if err != nil {
		logAPIError(r, "failed to submit request", err)
		h.renderContact(w, r, form, api.Message(err, "Failed to submit request"))
		return
	}

	slog.Info("service request submitted", "ushers", len(form.Selected))
	flashSuccess(w, r, h.renderer, redirectContact, "Request submitted successfully! We will contact you soon.")
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderPageStatus(w, r, h.renderer, http.StatusNotFound, tmplNotFound, render.TemplateData{Title: "Page not found"})
}

// collectSkills returns the distinct skills of ushers, sorted.
func collectSkills(ushers []model.Usher) []string {
	seen := make(map[string]struct{})
	var skills []string
	for _, u := range ushers {
		for _, s := range u.Profile.Skills {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, s)
		}
	}
	slices.SortFunc(skills, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return skills
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
