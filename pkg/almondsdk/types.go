package almondsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Envelope wraps every JSON body exchanged with the user-center.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK reports whether code signals success.
func OK(code int) bool { return code == CodeOK || code == CodeOKLegacy }

// FlexibleID accepts a JSON number or string. The user-center emits
// numeric ids, clients treat them as strings.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// MarshalJSON emits integral ids as numbers and anything else as a string.
func (id FlexibleID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id FlexibleID) String() string { return string(id) }

// GenerateRequest asks for a new QR login attempt.
type GenerateRequest struct {
	AppID string `json:"appId"`
	Scene string `json:"scene,omitempty"`
}

// QRGenerateResponse identifies a login attempt. ExpireAt is unix milliseconds.
type QRGenerateResponse struct {
	QRCodeID  string `json:"qrcodeId"`
	ExpireAt  int64  `json:"expireAt"`
	QRContent string `json:"qrContent,omitempty"`
}

// ExpireTime converts ExpireAt to a time.Time.
func (r QRGenerateResponse) ExpireTime() time.Time { return time.UnixMilli(r.ExpireAt) }

// WxacodeRequest asks the provider to render the scannable image.
type WxacodeRequest struct {
	AppID      string `json:"appId"`
	QRCodeID   string `json:"qrcodeId"`
	Page       string `json:"page"`
	Width      int    `json:"width"`
	EnvVersion string `json:"envVersion"`
	CheckPath  bool   `json:"checkPath"`
}

// WxacodeResponse carries the PNG as standard base64.
type WxacodeResponse struct {
	QRCodeID    string `json:"qrcodeId"`
	ExpireAt    int64  `json:"expireAt"`
	ImageBase64 string `json:"imageBase64"`
}

// QRCodeRequest addresses an attempt by id.
type QRCodeRequest struct {
	QRCodeID string `json:"qrcodeId"`
}

// Check status values.
const (
	StatusPending   = 0
	StatusConfirmed = 2
	StatusScanned   = 3
)

// QRUserInfo is the user summary delivered with a confirmed check.
type QRUserInfo struct {
	ID        FlexibleID `json:"id"`
	Nickname  string     `json:"nickname,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
}

// QRCheckResponse is one poll result.
type QRCheckResponse struct {
	Status       int         `json:"status"`
	Token        string      `json:"token,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	UserInfo     *QRUserInfo `json:"userInfo,omitempty"`
}

// ScanRequest is sent by the companion device after reading the code.
type ScanRequest struct {
	QRCodeID string     `json:"qrcodeId"`
	UserInfo QRUserInfo `json:"userInfo"`
}

// ConfirmRequest approves a scanned attempt. UserID names the confirming
// user when the caller authenticates with the companion secret; a bearer
// caller may omit it.
type ConfirmRequest struct {
	QRCodeID string     `json:"qrcodeId"`
	UserID   FlexibleID `json:"userId,omitempty"`
}

// ScanResponse echoes the attempt state after a scan or confirm.
type ScanResponse struct {
	QRCodeID string `json:"qrcodeId"`
	Status   int    `json:"status"`
}

// RefreshRequest trades a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RevokeRequest invalidates a refresh token.
type RevokeRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is a freshly issued credential pair.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// UserProfile is returned by the user info endpoint. CreatedAt is unix milliseconds.
type UserProfile struct {
	ID        FlexibleID `json:"id"`
	Nickname  string     `json:"nickname"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt int64      `json:"createdAt"`
}

// HealthResponse is served by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the provider's critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
