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

// DefaultRejectionReason is sent when an admin rejects a picture without a reason.
const DefaultRejectionReason = "Image does not meet professional standards"

// AdminService wraps the /admin endpoints.
type AdminService struct{ c *Client }

// ListUshersParams filters the admin usher listing. Zero values are omitted.
type ListUshersParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListUshersParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

// UpdateUsherInput is an admin edit of an usher. Nil fields are left unchanged.
type UpdateUsherInput struct {
	Name               string              `json:"name,omitempty"`
	IsActive           *bool               `json:"isActive,omitempty"`
	IsVisibleOnWebsite *bool               `json:"isVisibleOnWebsite,omitempty"`
	Profile            *model.UsherProfile `json:"profile,omitempty"`
}

// Dashboard returns the dashboard counters.
func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var resp struct {
		Stats *model.DashboardStats `json:"stats"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/dashboard"}, &resp); err != nil {
		return nil, err
	}
	if resp.Stats == nil {
		return nil, &Error{Kind: KindDecode, Op: "GET /admin/dashboard", Err: errors.New("missing stats")}
	}
	return resp.Stats, nil
}

// GenerateCode creates a new signup code.
func (s *AdminService) GenerateCode(ctx context.Context) (*model.SignupCode, error) {
	var resp struct {
		Code *model.SignupCode `json:"code"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/admin/codes/generate"}, &resp); err != nil {
		return nil, err
	}
	if resp.Code == nil {
		return nil, &Error{Kind: KindDecode, Op: "POST /admin/codes/generate", Err: errors.New("missing code")}
	}
	return resp.Code, nil
}

// Codes lists every signup code.
func (s *AdminService) Codes(ctx context.Context) ([]model.SignupCode, error) {
	var resp struct {
		Codes []model.SignupCode `json:"codes"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/codes"}, &resp); err != nil {
		return nil, err
	}
	return resp.Codes, nil
}

// DeleteCode removes a signup code.
func (s *AdminService) DeleteCode(ctx context.Context, id string) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: "/admin/codes/" + segment(id)}, nil)
}

// Ushers lists ushers including hidden and inactive ones.
func (s *AdminService) Ushers(ctx context.Context, params ListUshersParams) ([]model.Usher, *model.Pagination, error) {
	var resp struct {
		Ushers     []model.Usher     `json:"ushers"`
		Pagination *model.Pagination `json:"pagination"`
	}
	req := Request{Method: http.MethodGet, Path: "/admin/ushers", Query: params.query()}
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Ushers, resp.Pagination, nil
}

// UpdateUsher edits an usher and returns the stored record.
func (s *AdminService) UpdateUsher(ctx context.Context, id string, in UpdateUsherInput) (*model.Usher, error) {
	return decodeUsher(ctx, s.c, Request{Method: http.MethodPut, Path: "/admin/ushers/" + segment(id), JSON: in})
}

// DeleteUsher removes an usher account.
func (s *AdminService) DeleteUsher(ctx context.Context, id string) error {
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: "/admin/ushers/" + segment(id)}, nil)
}

// SetUsherVisibility shows or hides an usher on the public site.
func (s *AdminService) SetUsherVisibility(ctx context.Context, id string, visible bool) error {
	return s.c.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   "/admin/ushers/" + segment(id) + "/visibility",
		JSON:   map[string]bool{"isVisible": visible},
	}, nil)
}

// RejectProfilePicture removes an usher's picture and records why.
func (s *AdminService) RejectProfilePicture(ctx context.Context, id, reason string) error {
	if reason == "" {
		reason = DefaultRejectionReason
	}
	return s.c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/admin/ushers/" + segment(id) + "/profile-picture",
		JSON:   map[string]string{"reason": reason},
	}, nil)
}
