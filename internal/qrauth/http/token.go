package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ravey/almond/internal/qrauth/service"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/httpx"
	"github.com/ravey/almond/pkg/slogx"
)

type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP rotates a refresh token.
//
//	@Summary		Refresh tokens
//	@Description	Trades a refresh token for a new pair. The presented token is revoked.
//	@Tags			Token
//	@Accept			json
//	@Produce		json
//	@Param			request	body		almondsdk.RefreshRequest	true	"refresh token"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.TokenResponse]
//	@Failure		401		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/token/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.TokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, almondsdk.TokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	})
}

type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP revokes a refresh token. Access tokens expire naturally. Unknown
// or already revoked tokens still answer success so the endpoint cannot be
// used to test which tokens are valid.
//
//	@Summary		Revoke refresh token
//	@Description	Invalidates a refresh token. Idempotent, succeeds for unknown tokens.
//	@Tags			Token
//	@Accept			json
//	@Produce		json
//	@Param			request	body		almondsdk.RevokeRequest	true	"refresh token"
//	@Success		200		{object}	almondsdk.Envelope[any]
//	@Failure		400		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/token/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.RevokeRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, fmt.Errorf("%w: refreshToken is required", service.ErrInvalidRequest))
		return
	}

	if err := h.TokenService.Revoke(r.Context(), req.RefreshToken); err != nil {
		slogx.FromContext(r.Context()).Warn("revoke refresh failed", "err", err)
	}

	httpx.NoCache(w)
	writeOK(w, nil)
}
