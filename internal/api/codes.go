// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// CodesService wraps the public signup-code check.
type CodesService struct{ c *Client }

// Verify reports whether code can currently be used to register.
func (s *CodesService) Verify(ctx context.Context, code string) (bool, error) {
	var resp struct {
		IsValid bool `json:"isValid"`
	}
	req := Request{Method: http.MethodPost, Path: "/codes/verify", JSON: map[string]string{"code": code}}
	if err := s.c.Do(ctx, req, &resp); err != nil {
		return false, err
	}
	return resp.IsValid, nil
}
