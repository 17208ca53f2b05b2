package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/url"
	"slices"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// Accepted image widths in pixels.
const (
	MinWidth = 280
	MaxWidth = 1280
)

// Environment channels a code can point at.
var EnvVersions = []string{"release", "trial", "develop"}

// RenderRequest describes the scannable image for one attempt.
type RenderRequest struct {
	AppID      string
	QRCodeID   string
	Page       string
	Width      int
	EnvVersion string
	CheckPath  bool
}

// Renderer turns login attempts into PNG QR codes.
type Renderer struct {
	// AllowedPages is consulted when a request sets CheckPath.
	AllowedPages []string
}

func (r *Renderer) Validate(req RenderRequest) error {
	if strings.TrimSpace(req.QRCodeID) == "" {
		return fmt.Errorf("%w: qrcodeId is required", ErrInvalidRequest)
	}
	if !slices.Contains(EnvVersions, req.EnvVersion) {
		return fmt.Errorf("%w: envVersion %q", ErrInvalidRequest, req.EnvVersion)
	}
	if req.Width < MinWidth || req.Width > MaxWidth {
		return fmt.Errorf("%w: width must be within %d-%d", ErrInvalidRequest, MinWidth, MaxWidth)
	}
	page := strings.TrimPrefix(req.Page, "/")
	if page == "" {
		return fmt.Errorf("%w: page is required", ErrInvalidRequest)
	}
	if req.CheckPath && !slices.Contains(r.AllowedPages, page) {
		return fmt.Errorf("%w: page %q is not published", ErrInvalidRequest, page)
	}
	return nil
}

// Content is the text encoded in the image: the page with the attempt id
// as its scene.
func (r *Renderer) Content(req RenderRequest) string {
	q := url.Values{}
	q.Set("scene", req.QRCodeID)
	q.Set("env", req.EnvVersion)
	return strings.TrimPrefix(req.Page, "/") + "?" + q.Encode()
}

// Render validates req and returns the image as standard base64 PNG.
func (r *Renderer) Render(req RenderRequest) (string, error) {
	if err := r.Validate(req); err != nil {
		return "", err
	}

	code, err := qr.Encode(r.Content(req), qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, req.Width, req.Width)
	if err != nil {
		return "", fmt.Errorf("scale qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
