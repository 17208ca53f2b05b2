package almondsdk

import (
	"errors"
	"fmt"
)

// Application codes carried in the envelope.
const (
	CodeOK              = 0
	CodeOKLegacy        = 200
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeTooManyRequests = 429
	CodeInternal        = 500

	CodeQRNotFound     = 1001
	CodeQRExpired      = 1002
	CodeQRInvalidState = 1003
)

// Provider messages, kept byte-compatible with the user-center.
const (
	MsgQRNotFound     = "二维码不存在"
	MsgQRExpired      = "二维码已过期"
	MsgQRInvalidState = "二维码状态错误"
	MsgUnauthorized   = "未登录"
	MsgForbidden      = "无权操作"
)

// GenericFailureMessage is used when the provider did not say why it failed.
const GenericFailureMessage = "request failed"

var (
	// ErrRequestTimeout reports that the per-call timeout elapsed.
	ErrRequestTimeout = errors.New("almondsdk: request timed out")

	// ErrMalformedResponse reports an undecodable body or a success
	// envelope that lacks a required field.
	ErrMalformedResponse = errors.New("almondsdk: malformed response")
)

// APIError is an application-level failure reported by the provider.
type APIError struct {
	// HTTPStatus is the transport status, 200 for envelope-level failures.
	HTTPStatus int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("almondsdk: code %d: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *APIError carrying code.
func IsCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func newAPIError(status, code int, message string) *APIError {
	if message == "" {
		message = GenericFailureMessage
	}
	return &APIError{HTTPStatus: status, Code: code, Message: message}
}

// Friendly is a user-facing title and description for an error.
type Friendly struct {
	Title       string
	Description string
}

var friendlyByMessage = map[string]Friendly{
	MsgQRNotFound:   {"QR code invalid", "The code is no longer valid, generate a new one."},
	MsgQRExpired:    {"QR code expired", "The code has expired, generate a new one."},
	MsgUnauthorized: {"Please log in", "You need to log in to continue."},
	MsgForbidden:    {"Not allowed", "This code was scanned by another account."},
}

// FriendlyError maps an SDK error to a message suitable for end users.
func FriendlyError(err error) Friendly {
	var apiErr *APIError
	switch {
	case err == nil:
		return Friendly{}
	case errors.Is(err, ErrRequestTimeout):
		return Friendly{"Request timed out", "The server did not answer in time, please retry."}
	case errors.Is(err, ErrMalformedResponse):
		return Friendly{"Unexpected response", "The server sent an unexpected answer, please retry."}
	case errors.As(err, &apiErr):
		if f, ok := friendlyByMessage[apiErr.Message]; ok {
			return f
		}
		switch apiErr.Code {
		case CodeTooManyRequests:
			return Friendly{"Too many attempts", "Please wait a moment and retry."}
		case CodeUnauthorized:
			return friendlyByMessage[MsgUnauthorized]
		}
		return Friendly{"Request failed", apiErr.Message}
	default:
		return Friendly{"Network error", "Could not reach the server, check your connection."}
	}
}
