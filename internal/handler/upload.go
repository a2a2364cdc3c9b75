// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
)

// errNoFile means the form field carried no upload.
var errNoFile = errors.New("no file uploaded")

// imageFromHeader validates and normalizes one uploaded image.
func imageFromHeader(proc *imaging.Processor, fh *multipart.FileHeader) (api.File, error) {
	if err := proc.Validate(fh.Header.Get("Content-Type"), fh.Size); err != nil {
		return api.File{}, err
	}

	f, err := fh.Open()
	if err != nil {
		return api.File{}, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, err := proc.Normalize(f, fh.Filename)
	if err != nil {
		return api.File{}, err
	}
	return api.File{Name: img.Name, ContentType: img.ContentType, Data: img.Data}, nil
}

// formImage reads the single image in field. errNoFile is returned when the
// field is empty.
func formImage(r *http.Request, proc *imaging.Processor, field string) (api.File, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return api.File{}, errNoFile
	}
	return imageFromHeader(proc, r.MultipartForm.File[field][0])
}

// formImages reads every image in field.
func formImages(r *http.Request, proc *imaging.Processor, field string) ([]api.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]api.File, 0, len(headers))
	for _, fh := range headers {
		file, err := imageFromHeader(proc, fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// uploadMessage returns the user-facing text for an upload error.
func uploadMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrNotImage):
		return imaging.ErrNotImage.Error()
	case errors.Is(err, imaging.ErrTooLarge):
		return imaging.ErrTooLarge.Error()
	default:
		return "The image could not be processed"
	}
}

// parseMultipart parses a multipart body bounded by maxBytes. Plain
// url-encoded forms are accepted too.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}
