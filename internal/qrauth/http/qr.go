package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ravey/almond/internal/qrauth/domain"
	"github.com/ravey/almond/internal/qrauth/service"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/httpx"
	"github.com/ravey/almond/pkg/slogx"
)

// QRHandler serves both sides of the QR login handshake.
type QRHandler struct {
	QRCodes *service.QRCodeService
}

// HandleGenerate creates a login attempt.
//
//	@Summary		Generate QR login attempt
//	@Description	Creates a pending attempt valid for five minutes.
//	@Tags			QR
//	@Accept			json
//	@Produce		json
//	@Param			request	body		almondsdk.GenerateRequest	true	"app id and optional scene"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.QRGenerateResponse]
//	@Failure		400		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/qr/generate [post].
func (h *QRHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.GenerateRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.QRCodes.Generate(r.Context(), req.AppID, req.Scene)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, almondsdk.QRGenerateResponse{
		QRCodeID:  q.ID,
		ExpireAt:  q.ExpiresAt.UnixMilli(),
		QRContent: q.ID,
	})
}

// HandleWxacode renders the scannable image.
//
//	@Summary		Render QR image
//	@Description	Returns a PNG (standard base64) pointing the companion app at page with the attempt id as scene.
//	@Tags			QR
//	@Accept			json
//	@Produce		json
//	@Param			request	body		almondsdk.WxacodeRequest	true	"render parameters"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.WxacodeResponse]
//	@Failure		400		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/qr/wxacode [post].
func (h *QRHandler) HandleWxacode(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.WxacodeRequest
	if !decode(w, r, &req) {
		return
	}

	q, img, err := h.QRCodes.Render(r.Context(), service.RenderRequest{
		AppID:      req.AppID,
		QRCodeID:   req.QRCodeID,
		Page:       req.Page,
		Width:      req.Width,
		EnvVersion: req.EnvVersion,
		CheckPath:  req.CheckPath,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, almondsdk.WxacodeResponse{
		QRCodeID:    q.ID,
		ExpireAt:    q.ExpiresAt.UnixMilli(),
		ImageBase64: img,
	})
}

// HandleCheck is polled by the desktop.
//
//	@Summary		Check QR login status
//	@Description	status 0 pending, 3 scanned, 2 confirmed. A confirmed answer carries the credential and user summary.
//	@Tags			QR
//	@Accept			json
//	@Produce		json
//	@Param			request	body		almondsdk.QRCodeRequest	true	"attempt id"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.QRCheckResponse]
//	@Router			/front/auth/qr/check [post].
func (h *QRHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.QRCodeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.QRCodes.Check(r.Context(), req.QRCodeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := almondsdk.QRCheckResponse{
		Status:       int(res.Status),
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
	}
	if res.User != nil {
		out.UserInfo = &almondsdk.QRUserInfo{
			ID:        almondsdk.FlexibleID(strconv.FormatInt(res.User.ID, 10)),
			Nickname:  res.User.Nickname,
			AvatarURL: res.User.AvatarURL,
		}
	}
	writeOK(w, out)
}

// HandleScan is called by the companion device after reading the code.
//
//	@Summary		Scan QR code
//	@Description	Marks a pending attempt as scanned. A bearer caller scans as the token's user and userInfo.id, when set, must match it. A caller holding the companion secret names the user in userInfo.id.
//	@Tags			Companion
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Security		CompanionSecret
//	@Param			request	body		almondsdk.ScanRequest	true	"attempt id and scanning user"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.ScanResponse]
//	@Failure		401		{object}	almondsdk.Envelope[any]
//	@Failure		403		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/qr/scan [post].
func (h *QRHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.ScanRequest
	if !decode(w, r, &req) {
		return
	}

	userID, err := companionUser(r.Context(), req.UserInfo.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := domain.User{
		ID:        userID,
		Nickname:  req.UserInfo.Nickname,
		AvatarURL: req.UserInfo.AvatarURL,
	}
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok {
		if user.Nickname == "" {
			user.Nickname = claims.Nickname
		}
		if user.AvatarURL == "" {
			user.AvatarURL = claims.AvatarURL
		}
	}

	q, err := h.QRCodes.Scan(r.Context(), req.QRCodeID, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, almondsdk.ScanResponse{QRCodeID: q.ID, Status: int(q.Status)})
}

// HandleConfirm approves a scanned attempt.
//
//	@Summary		Confirm QR login
//	@Description	Issues the credential the desktop picks up on its next check. Only the user who scanned may confirm.
//	@Tags			Companion
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Security		CompanionSecret
//	@Param			request	body		almondsdk.ConfirmRequest	true	"attempt id, and the user when using the companion secret"
//	@Success		200		{object}	almondsdk.Envelope[almondsdk.ScanResponse]
//	@Failure		401		{object}	almondsdk.Envelope[any]
//	@Failure		403		{object}	almondsdk.Envelope[any]
//	@Router			/front/auth/qr/confirm [post].
func (h *QRHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req almondsdk.ConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	userID, err := companionUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q, err := h.QRCodes.Confirm(r.Context(), req.QRCodeID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, almondsdk.ScanResponse{QRCodeID: q.ID, Status: int(q.Status)})
}

// companionUser resolves who the companion caller acts for. A bearer token
// pins the user to its subject; the companion secret lets the caller name
// any user.
func companionUser(ctx context.Context, claimed almondsdk.FlexibleID) (int64, error) {
	claimedID := strings.TrimSpace(claimed.String())

	if sub, ok := httpx.UserIDFromContext(ctx); ok {
		if claimedID != "" && claimedID != sub {
			slogx.FromContext(ctx).Warn("companion acting for another user", "user_id", sub, "claimed_id", claimedID)
			return 0, service.ErrForbidden
		}
		claimedID = sub
	} else if !httpx.TrustedCompanionFromContext(ctx) {
		return 0, service.ErrForbidden
	}

	id, err := strconv.ParseInt(claimedID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user id must be numeric", service.ErrInvalidRequest)
	}
	return id, nil
}
