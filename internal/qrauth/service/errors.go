package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrQRNotFound     = errors.New("qr_not_found")
	ErrQRExpired      = errors.New("qr_expired")
	ErrQRInvalidState = errors.New("qr_invalid_state")
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrForbidden      = errors.New("forbidden")
)
