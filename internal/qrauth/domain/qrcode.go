package domain

import "time"

// QRStatus is the wire status of a login attempt.
type QRStatus int

const (
	QRPending   QRStatus = 0
	QRConfirmed QRStatus = 2
	QRScanned   QRStatus = 3
)

func (s QRStatus) String() string {
	switch s {
	case QRPending:
		return "pending"
	case QRScanned:
		return "scanned"
	case QRConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// QRCode is one login attempt. Tokens are set once confirmed and are
// stored sealed, bound to the attempt id.
type QRCode struct {
	ID     string
	AppID  string
	Scene  string
	Status QRStatus
	UserID *int64

	AccessTokenSealed  []byte
	RefreshTokenSealed []byte

	ExpiresAt   time.Time
	ScannedAt   *time.Time
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}

// Expired reports whether the attempt can no longer be used at now.
func (q QRCode) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}
