package almondsdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// GenerateQR starts a login attempt.
func (c *SDKClient) GenerateQR(ctx context.Context, appID, scene string) (*QRGenerateResponse, error) {
	var out QRGenerateResponse
	req := GenerateRequest{AppID: appID, Scene: scene}
	if err := c.call(ctx, http.MethodPost, PathQRGenerate, c.GenerateTimeout, req, &out, nil); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.QRCodeID) == "" {
		return nil, fmt.Errorf("%w: generate returned no qrcodeId", ErrMalformedResponse)
	}
	return &out, nil
}

// RenderWxacode renders the scannable image for an attempt.
func (c *SDKClient) RenderWxacode(ctx context.Context, req WxacodeRequest) (*WxacodeResponse, error) {
	var out WxacodeResponse
	if err := c.call(ctx, http.MethodPost, PathQRWxacode, c.RenderTimeout, req, &out, nil); err != nil {
		return nil, err
	}
	if out.ImageBase64 == "" {
		return nil, fmt.Errorf("%w: wxacode returned no imageBase64", ErrMalformedResponse)
	}
	return &out, nil
}

// CheckQR polls the attempt status once.
func (c *SDKClient) CheckQR(ctx context.Context, qrcodeID string) (*QRCheckResponse, error) {
	var out QRCheckResponse
	req := QRCodeRequest{QRCodeID: qrcodeID}
	if err := c.call(ctx, http.MethodPost, PathQRCheck, c.CheckTimeout, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanionAuth is the credential of the companion side. AccessToken is
// the signed-in user's own token; Secret is the shared secret of a trusted
// companion backend. The secret wins when both are set.
type CompanionAuth struct {
	AccessToken string
	Secret      string
}

func (a CompanionAuth) headers() map[string]string {
	switch {
	case a.Secret != "":
		return map[string]string{HeaderCompanionSecret: a.Secret}
	case a.AccessToken != "":
		return map[string]string{"Authorization": "Bearer " + a.AccessToken}
	default:
		return nil
	}
}

// ScanQR is called by the companion device when it reads the code. With a
// bearer token user.ID may be left empty and defaults to the token's user.
func (c *SDKClient) ScanQR(ctx context.Context, auth CompanionAuth, qrcodeID string, user QRUserInfo) (*ScanResponse, error) {
	var out ScanResponse
	req := ScanRequest{QRCodeID: qrcodeID, UserInfo: user}
	if err := c.call(ctx, http.MethodPost, PathQRScan, c.CheckTimeout, req, &out, auth.headers()); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmQR approves a scanned attempt, releasing the credential to the
// poller. Only the user who scanned may confirm.
func (c *SDKClient) ConfirmQR(ctx context.Context, auth CompanionAuth, qrcodeID, userID string) (*ScanResponse, error) {
	var out ScanResponse
	req := ConfirmRequest{QRCodeID: qrcodeID, UserID: FlexibleID(userID)}
	if err := c.call(ctx, http.MethodPost, PathQRConfirm, c.CheckTimeout, req, &out, auth.headers()); err != nil {
		return nil, err
	}
	return &out, nil
}
