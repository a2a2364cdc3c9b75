// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging checks and normalizes images uploaded through the site
// (profile pictures and event photos) before they are forwarded to the API.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MIME types accepted for upload.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Defaults for NewProcessor.
const (
	DefaultMaxBytes     = 5 << 20
	DefaultMaxDimension = 2048
	DefaultQuality      = 85
)

// User-facing validation messages.
var (
	ErrNotImage = errors.New("Please select an image file")
	ErrTooLarge = errors.New("Image size must be less than 5MB")
	ErrCorrupt  = errors.New("The image could not be read")
)

// Image is a normalized upload.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Processor validates and normalizes uploads.
type Processor struct {
	maxBytes     int64
	maxDimension int
	quality      int
}

// NewProcessor creates a processor. Non-positive maxBytes uses DefaultMaxBytes.
func NewProcessor(maxBytes int64) *Processor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Processor{maxBytes: maxBytes, maxDimension: DefaultMaxDimension, quality: DefaultQuality}
}

// MaxBytes returns the upload size limit.
func (p *Processor) MaxBytes() int64 { return p.maxBytes }

// IsImage reports whether mimeType names an image type.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

// IsSupported reports whether the processor can decode mimeType.
func IsSupported(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	default:
		return false
	}
}

// Validate checks the declared type and size of an upload before it is read.
func (p *Processor) Validate(contentType string, size int64) error {
	if !IsImage(contentType) {
		return ErrNotImage
	}
	if size > p.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// Normalize reads an upload, applies its EXIF orientation and shrinks it to
// fit within the maximum dimension. GIFs are passed through untouched so
// animations survive; WebP is re-encoded as JPEG.
func (p *Processor) Normalize(r io.Reader, filename string) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrNotImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}

	if format == "gif" {
		return &Image{
			Name:        filename,
			ContentType: MimeTypeGIF,
			Data:        data,
			Width:       cfg.Width,
			Height:      cfg.Height,
		}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrCorrupt
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	b := img.Bounds()
	if b.Dx() > p.maxDimension || b.Dy() > p.maxDimension {
		img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	outFormat := format
	if outFormat == "webp" {
		outFormat = "jpeg"
	}
	encoded, err := encodeImage(img, outFormat, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	b = img.Bounds()
	return &Image{
		Name:        renameForFormat(filename, outFormat),
		ContentType: formatToMimeType(outFormat),
		Data:        encoded,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// readExifOrientation returns the EXIF orientation tag, or 1 if absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation recorded in EXIF orientation
// values 2 to 8.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs the image format. TIFF is rejected
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	case "webp":
		return MimeTypeWebP
	default:
		return MimeTypeJPEG
	}
}

func renameForFormat(filename, format string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
