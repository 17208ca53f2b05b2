package store

import (
	"context"
	"errors"
	"time"

	"github.com/ravey/almond/internal/qrauth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction can only be opened from the root.
type Store interface {
	QRCodes() QRCodes
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type QRCodes interface {
	CreateQRCode(ctx context.Context, q domain.QRCode) error
	GetQRCode(ctx context.Context, id string) (domain.QRCode, error)

	// MarkScanned moves a pending code to scanned for userID.
	// ErrNotFound when the code is not pending.
	MarkScanned(ctx context.Context, id string, userID int64, at time.Time) error

	// MarkConfirmed moves a scanned code to confirmed with its sealed tokens.
	// ErrNotFound when the code is not scanned.
	MarkConfirmed(ctx context.Context, id string, accessSealed, refreshSealed []byte, at time.Time) error

	// DeleteExpiredQRCodes removes codes that expired before cutoff.
	DeleteExpiredQRCodes(ctx context.Context, cutoff time.Time) (int64, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// UpsertUser creates the user or refreshes its nickname and avatar.
	UpsertUser(ctx context.Context, u domain.User) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked=1. ErrNotFound if it was already revoked.
	RevokeRefreshToken(ctx context.Context, hash string) error

	DeleteExpiredRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}
