package http

import (
	"errors"
	"net/http"

	"github.com/ravey/almond/internal/qrauth/service"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/httpx"
	"github.com/ravey/almond/pkg/slogx"
)

// writeOK wraps data in a success envelope.
func writeOK(w http.ResponseWriter, data any) {
	httpx.WriteJSON(w, http.StatusOK, almondsdk.Envelope[any]{
		Code:    almondsdk.CodeOK,
		Data:    data,
		Message: "success",
	})
}

// writeError maps service errors onto envelope codes. QR state errors are
// application failures carried in a 200 response, as the user-center does.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := http.StatusInternalServerError, almondsdk.CodeInternal, "internal error"

	switch {
	case errors.Is(err, service.ErrQRNotFound):
		status, code, msg = http.StatusOK, almondsdk.CodeQRNotFound, almondsdk.MsgQRNotFound
	case errors.Is(err, service.ErrQRExpired):
		status, code, msg = http.StatusOK, almondsdk.CodeQRExpired, almondsdk.MsgQRExpired
	case errors.Is(err, service.ErrQRInvalidState):
		status, code, msg = http.StatusOK, almondsdk.CodeQRInvalidState, almondsdk.MsgQRInvalidState
	case errors.Is(err, service.ErrInvalidRequest):
		status, code, msg = http.StatusBadRequest, almondsdk.CodeBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidRefresh):
		status, code, msg = http.StatusUnauthorized, almondsdk.CodeUnauthorized, almondsdk.MsgUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status, code, msg = http.StatusForbidden, almondsdk.CodeForbidden, almondsdk.MsgForbidden
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
	}

	httpx.WriteJSON(w, status, almondsdk.Envelope[any]{Code: code, Message: msg})
}

// decode reads the JSON body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(r, v); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, almondsdk.Envelope[any]{
			Code:    almondsdk.CodeBadRequest,
			Message: "malformed request body",
		})
		return false
	}
	return true
}
