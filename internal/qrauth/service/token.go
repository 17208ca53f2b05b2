package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ravey/almond/internal/qrauth/domain"
	"github.com/ravey/almond/internal/qrauth/store"
	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/idx"
	"github.com/ravey/almond/pkg/jwtx"
	"github.com/ravey/almond/pkg/slogx"
)

// TokenService issues access tokens (EdDSA JWT) and opaque refresh tokens.
// Only the refresh token's fingerprint is stored.
type TokenService struct {
	Signer     jwtx.Signer
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Clock      clockwork.Clock
}

// Issue mints a pair for u inside tx. qrcodeID records which login produced it.
func (s *TokenService) Issue(ctx context.Context, tx store.Tx, u domain.User, qrcodeID string) (*domain.TokenPair, error) {
	now := nowFrom(s.Clock)

	access, err := s.signAccess(u, qrcodeID, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    u.ID,
		QRCodeID:  qrcodeID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshOpaque,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued for the same user. A token can be redeemed once.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := nowFrom(s.Clock)
	log := slogx.FromContext(ctx)

	if refreshOpaque == "" {
		return nil, ErrInvalidRefresh
	}
	fp := cryptox.FingerprintToken(refreshOpaque)

	var pair *domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if rt.Revoked || !now.Before(rt.ExpiresAt) {
			log.Info("refresh token rejected", "user_id", rt.UserID, "revoked", rt.Revoked)
			return ErrInvalidRefresh
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		pair, err = s.Issue(ctx, tx, u, rt.QRCodeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke revokes a single refresh token by its opaque value.
func (s *TokenService) Revoke(ctx context.Context, refreshOpaque string) error {
	err := s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (s *TokenService) signAccess(u domain.User, qrcodeID string, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(u.ID, 10),
		u.Nickname,
		u.AvatarURL,
		qrcodeID,
		s.AccessTTL,
		s.Issuer,
		s.Audience,
		now,
	)
	return s.Signer.Sign(claims)
}
