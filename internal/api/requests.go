// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tripolar-events/tripolar-web/internal/model"
)

// RequestsService wraps the /requests endpoints.
type RequestsService struct{ c *Client }

// CreateRequestInput is a booking request from the public contact form.
type CreateRequestInput struct {
	ClientName     string              `json:"clientName"`
	ClientEmail    string              `json:"clientEmail"`
	ClientPhone    string              `json:"clientPhone"`
	EventDetails   string              `json:"eventDetails"`
	EventType      string              `json:"eventType"`
	SelectedUshers []string            `json:"selectedUshers"`
	Status         model.RequestStatus `json:"status"`
}

// UpdateRequestInput is an admin triage decision.
type UpdateRequestInput struct {
	Status     model.RequestStatus `json:"status"`
	AdminNotes string              `json:"adminNotes"`
}

// ListRequestsParams filters a request listing. Zero values are omitted.
type ListRequestsParams struct {
	Status model.RequestStatus
	Page   int
	Limit  int
}

func (p ListRequestsParams) query() url.Values {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

type requestEnvelope struct {
	Request *model.ServiceRequest `json:"request"`
}

// Create submits a booking request.
func (s *RequestsService) Create(ctx context.Context, in CreateRequestInput) error {
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/requests", JSON: in}, nil)
}

// List returns requests matching params.
func (s *RequestsService) List(ctx context.Context, params ListRequestsParams) ([]model.ServiceRequest, error) {
	var resp struct {
		Requests []model.ServiceRequest `json:"requests"`
	}
	req := Request{Method: http.MethodGet, Path: "/requests", Query: params.query()}
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return resp.Requests, nil
}

// Get returns one request.
func (s *RequestsService) Get(ctx context.Context, id string) (*model.ServiceRequest, error) {
	var resp requestEnvelope
	req := Request{Method: http.MethodGet, Path: "/requests/" + segment(id)}
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Request == nil {
		return nil, &Error{Kind: KindDecode, Op: "GET /requests/:id", Err: errors.New("missing request")}
	}
	return resp.Request, nil
}

// Update records a triage decision.
func (s *RequestsService) Update(ctx context.Context, id string, in UpdateRequestInput) error {
	return s.c.Do(ctx, Request{Method: http.MethodPut, Path: "/requests/" + segment(id), JSON: in}, nil)
}

// Delete removes a request.
func (s *RequestsService) Delete(ctx context.Context, id string) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: "/requests/" + segment(id)}, nil)
}
