// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tripolar-events/tripolar-web/internal/model"
)

// AuthService wraps the /auth endpoints.
type AuthService struct{ c *Client }

// LoginResult is the credential issued by a successful login.
type LoginResult struct {
	Token string
	User  model.User
}

// RegisterInput is an usher signup. ProfileImage switches the body to multipart.
type RegisterInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	SignupCode   string `json:"signupCode"`
	ProfileImage *File  `json:"-"`
}

// ProfileInput updates the caller's account fields.
type ProfileInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type userEnvelope struct {
	User *model.User `json:"user"`
}

// Login exchanges credentials for a token and the user record.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	req := Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		JSON:   map[string]string{"email": email, "password": password},
	}
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &Error{Kind: KindDecode, Op: "POST /auth/login", Err: errors.New("missing token or user")}
	}
	return &LoginResult{Token: resp.Token, User: *resp.User}, nil
}

// Register creates an usher account and returns the backend's message.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	req := Request{Method: http.MethodPost, Path: "/auth/register"}
	if in.ProfileImage != nil {
		form := &Form{}
		form.Add("name", in.Name)
		form.Add("email", in.Email)
		form.Add("password", in.Password)
		form.Add("signupCode", in.SignupCode)
		form.AddFile("profileImage", *in.ProfileImage)
		req.Form = form
	} else {
		req.JSON = in
	}

	var resp envelope
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Me returns the user that owns the current token.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	return s.user(ctx, Request{Method: http.MethodGet, Path: "/auth/me"})
}

// UpdateProfile changes the caller's account fields.
func (s *AuthService) UpdateProfile(ctx context.Context, in ProfileInput) (*model.User, error) {
	return s.user(ctx, Request{Method: http.MethodPut, Path: "/auth/profile", JSON: in})
}

// Logout tells the backend the token is no longer in use.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: "/auth/logout"}, nil)
}

func (s *AuthService) user(ctx context.Context, req Request) (*model.User, error) {
	var resp userEnvelope
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &Error{Kind: KindDecode, Op: req.Method + " " + req.Path, Err: errors.New("missing user")}
	}
	return resp.User, nil
}
