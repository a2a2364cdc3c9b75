// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tripolar-events/tripolar-web/internal/model"
)

// UshersService wraps the public /ushers endpoints and the usher's own profile.
type UshersService struct{ c *Client }

// UsherProfileInput is the usher-editable part of a profile.
type UsherProfileInput struct {
	Name    string             `json:"name,omitempty"`
	Profile model.UsherProfile `json:"profile"`
}

type usherEnvelope struct {
	Usher *model.Usher `json:"usher"`
}

// List returns all ushers known to the backend.
func (s *UshersService) List(ctx context.Context) ([]model.Usher, error) {
	var resp struct {
		Ushers []model.Usher `json:"ushers"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodGet, Path: "/ushers"}, &resp); err != nil {
		return nil, err
	}
	return resp.Ushers, nil
}

// Get returns one usher.
func (s *UshersService) Get(ctx context.Context, id string) (*model.Usher, error) {
	return decodeUsher(ctx, s.c, Request{Method: http.MethodGet, Path: "/ushers/" + segment(id)})
}

// UpdateProfile replaces the caller's usher profile.
func (s *UshersService) UpdateProfile(ctx context.Context, in UsherProfileInput) (*model.Usher, error) {
	return decodeUsher(ctx, s.c, Request{Method: http.MethodPut, Path: "/ushers/profile", JSON: in})
}

// UploadImage sets the caller's profile picture and returns its URL.
func (s *UshersService) UploadImage(ctx context.Context, image File) (string, error) {
	form := &Form{}
	form.AddFile("profileImage", image)

	var resp struct {
		ProfileImage string       `json:"profileImage"`
		Usher        *model.Usher `json:"usher"`
	}
	if err := s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/ushers/profile/image", Form: form}, &resp); err != nil {
		return "", err
	}
	if resp.ProfileImage == "" && resp.Usher != nil {
		resp.ProfileImage = resp.Usher.Profile.ProfileImage
	}
	return resp.ProfileImage, nil
}

func decodeUsher(ctx context.Context, c *Client, req Request) (*model.Usher, error) {
	var resp usherEnvelope
	if err := c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Usher == nil {
		return nil, &Error{Kind: KindDecode, Op: req.Method + " " + req.Path, Err: errors.New("missing usher")}
	}
	return resp.Usher, nil
}
