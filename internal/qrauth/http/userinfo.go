package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ravey/almond/internal/qrauth/service"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/httpx"
	"github.com/ravey/almond/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// ServeHTTP returns the profile of the token's subject.
//
//	@Summary		Get user information
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	almondsdk.Envelope[almondsdk.UserProfile]
//	@Failure		401	{object}	almondsdk.Envelope[any]
//	@Router			/front/user/info [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if claims, ok := httpx.ClaimsFromContext(ctx); ok {
		log = log.With("qrcode_id", claims.QRCodeID)
	}

	sub, _ := httpx.UserIDFromContext(ctx)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		httpx.WriteJSON(w, http.StatusUnauthorized, almondsdk.Envelope[any]{
			Code:    almondsdk.CodeUnauthorized,
			Message: almondsdk.MsgUnauthorized,
		})
		return
	}

	u, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			log.Warn("token subject has no account", "user_id", userID)
		}
		writeError(w, r, err)
		return
	}

	writeOK(w, almondsdk.UserProfile{
		ID:        almondsdk.FlexibleID(strconv.FormatInt(u.ID, 10)),
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UnixMilli(),
	})
}
