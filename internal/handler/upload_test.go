// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tripolar-events/tripolar-web/internal/imaging"
)

func multipartRequest(t *testing.T, fields url.Values, files ...multipartFile) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, fields, files...)
	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", contentType)
	return r
}

func TestFormImage(t *testing.T) {
	proc := imaging.NewProcessor(0)

	r := multipartRequest(t, nil, multipartFile{Field: "profileImage", Name: "a.png", ContentType: "image/png", Data: testPNG(t, 10, 10)})
	if err := parseMultipart(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parseMultipart: %v", err)
	}

	img, err := formImage(r, proc, "profileImage")
	if err != nil {
		t.Fatalf("formImage: %v", err)
	}
	if len(img.Data) == 0 || img.ContentType == "" {
		t.Errorf("empty image: %+v", img)
	}

	if _, err := formImage(r, proc, "other"); !errors.Is(err, errNoFile) {
		t.Errorf("missing field error = %v; want errNoFile", err)
	}
}

func TestFormImages_RejectsBadFile(t *testing.T) {
	proc := imaging.NewProcessor(0)
	r := multipartRequest(t, nil,
		multipartFile{Field: "images", Name: "a.png", ContentType: "image/png", Data: testPNG(t, 10, 10)},
		multipartFile{Field: "images", Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
	)
	if err := parseMultipart(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parseMultipart: %v", err)
	}

	_, err := formImages(r, proc, "images")
	if !errors.Is(err, imaging.ErrNotImage) {
		t.Fatalf("formImages error = %v; want ErrNotImage", err)
	}
	if !strings.Contains(err.Error(), "notes.txt") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestFormImages_NoMultipart(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("a=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := parseMultipart(httptest.NewRecorder(), r, 1<<20); err != nil {
		t.Fatalf("parseMultipart on url-encoded form: %v", err)
	}
	if r.PostFormValue("a") != "b" {
		t.Error("url-encoded field lost")
	}

	files, err := formImages(r, imaging.NewProcessor(0), "images")
	if err != nil || len(files) != 0 {
		t.Errorf("formImages = %v, %v; want none", files, err)
	}
}

func TestParseMultipart_TooLarge(t *testing.T) {
	r := multipartRequest(t, nil, multipartFile{Field: "f", Name: "big.png", ContentType: "image/png", Data: make([]byte, 4096)})
	if err := parseMultipart(httptest.NewRecorder(), r, 1024); err == nil {
		t.Error("expected an error for an oversized body")
	}
}

func TestUploadMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{imaging.ErrNotImage, imaging.ErrNotImage.Error()},
		{imaging.ErrTooLarge, imaging.ErrTooLarge.Error()},
		{errors.New("decoder exploded"), "The image could not be processed"},
	}
	for _, tt := range tests {
		if got := uploadMessage(tt.err); got != tt.want {
			t.Errorf("uploadMessage(%v) = %q; want %q", tt.err, got, tt.want)
		}
	}
}
