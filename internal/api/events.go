// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tripolar-events/tripolar-web/internal/model"
)

// EventsService wraps the /events endpoints.
type EventsService struct{ c *Client }

// EventInput is the multipart body for creating or updating an event.
// Date is a calendar date (YYYY-MM-DD). Images are appended to the event.
type EventInput struct {
	Title       string
	Description string
	Date        string
	Location    string
	Client      string
	UsherCount  int
	Images      []File
}

func (in EventInput) form() *Form {
	f := &Form{}
	f.Add("title", in.Title)
	f.Add("description", in.Description)
	f.Add("date", in.Date)
	f.Add("location", in.Location)
	f.Add("client", in.Client)
	f.Add("usherCount", strconv.Itoa(in.UsherCount))
	for _, img := range in.Images {
		f.AddFile("images", img)
	}
	return f
}

type eventEnvelope struct {
	Event *model.Event `json:"event"`
}

// List returns all events.
func (s *EventsService) List(ctx context.Context) ([]model.Event, error) {
	var resp struct {
		Events []model.Event `json:"events"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodGet, Path: "/events"}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Get returns one event.
func (s *EventsService) Get(ctx context.Context, id string) (*model.Event, error) {
	return s.event(ctx, Request{Method: http.MethodGet, Path: "/events/" + segment(id)})
}

// Create adds an event.
func (s *EventsService) Create(ctx context.Context, in EventInput) (*model.Event, error) {
	return s.event(ctx, Request{Method: http.MethodPost, Path: "/events", Form: in.form()})
}

// Update changes an event.
func (s *EventsService) Update(ctx context.Context, id string, in EventInput) (*model.Event, error) {
	return s.event(ctx, Request{Method: http.MethodPut, Path: "/events/" + segment(id), Form: in.form()})
}

// Delete removes an event.
func (s *EventsService) Delete(ctx context.Context, id string) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: "/events/" + segment(id)}, nil)
}

// RemoveImage detaches one image from an event.
func (s *EventsService) RemoveImage(ctx context.Context, id, imageURL string) error {
	return s.c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/events/" + segment(id) + "/images",
		JSON:   map[string]string{"imageUrl": imageURL},
	}, nil)
}

func (s *EventsService) event(ctx context.Context, req Request) (*model.Event, error) {
	var resp eventEnvelope
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Event == nil {
		return nil, &Error{Kind: KindDecode, Op: req.Method + " " + req.Path, Err: errors.New("missing event")}
	}
	return resp.Event, nil
}
