package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ravey/almond/internal/qrauth/domain"
	"github.com/ravey/almond/internal/qrauth/store"
	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/idx"
	"github.com/ravey/almond/pkg/slogx"
)

// DefaultQRCodeTTL is how long a generated code can be scanned and polled.
const DefaultQRCodeTTL = 5 * time.Minute

// MaxSceneLength matches the mini-program scene limit.
const MaxSceneLength = 32

// QRCodeService runs the login attempt state machine:
// pending(0) -> scanned(3) -> confirmed(2). Expiry is checked on every access.
type QRCodeService struct {
	Store    store.Store
	Tokens   *TokenService
	Renderer *Renderer
	Sealer   *cryptox.Sealer
	Clock    clockwork.Clock
	TTL      time.Duration

	// AppIDs restricts which apps may generate codes. Empty allows any.
	AppIDs []string
}

// CheckResult is one poll answer. Tokens and user are set once confirmed.
type CheckResult struct {
	Status       domain.QRStatus
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// Generate creates a pending attempt.
func (s *QRCodeService) Generate(ctx context.Context, appID, scene string) (domain.QRCode, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return domain.QRCode{}, fmt.Errorf("%w: appId is required", ErrInvalidRequest)
	}
	if len(s.AppIDs) > 0 && !slices.Contains(s.AppIDs, appID) {
		return domain.QRCode{}, fmt.Errorf("%w: unknown appId", ErrInvalidRequest)
	}
	if len(scene) > MaxSceneLength {
		return domain.QRCode{}, fmt.Errorf("%w: scene longer than %d", ErrInvalidRequest, MaxSceneLength)
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultQRCodeTTL
	}
	now := nowFrom(s.Clock)
	q := domain.QRCode{
		ID:        idx.NewAt(now).String(),
		AppID:     appID,
		Scene:     scene,
		Status:    domain.QRPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.Store.QRCodes().CreateQRCode(ctx, q); err != nil {
		return domain.QRCode{}, err
	}

	slogx.FromContext(ctx).Info("qr code generated", "qrcode_id", q.ID, "app_id", appID)
	return q, nil
}

// Render draws the image for a live attempt.
func (s *QRCodeService) Render(ctx context.Context, req RenderRequest) (domain.QRCode, string, error) {
	if err := s.Renderer.Validate(req); err != nil {
		return domain.QRCode{}, "", err
	}

	q, err := s.live(ctx, s.Store, req.QRCodeID)
	if err != nil {
		return domain.QRCode{}, "", err
	}
	if req.AppID != "" && req.AppID != q.AppID {
		return domain.QRCode{}, "", fmt.Errorf("%w: appId does not match", ErrInvalidRequest)
	}

	img, err := s.Renderer.Render(req)
	if err != nil {
		return domain.QRCode{}, "", err
	}
	return q, img, nil
}

// Check reports the attempt's status, with the credential once confirmed.
func (s *QRCodeService) Check(ctx context.Context, id string) (CheckResult, error) {
	q, err := s.live(ctx, s.Store, id)
	if err != nil {
		return CheckResult{}, err
	}

	res := CheckResult{Status: q.Status}
	if q.Status != domain.QRConfirmed {
		return res, nil
	}

	access, err := s.Sealer.Open(q.AccessTokenSealed, []byte(q.ID))
	if err != nil {
		return CheckResult{}, fmt.Errorf("open access token: %w", err)
	}
	refresh, err := s.Sealer.Open(q.RefreshTokenSealed, []byte(q.ID))
	if err != nil {
		return CheckResult{}, fmt.Errorf("open refresh token: %w", err)
	}
	u, err := s.Store.Users().GetUserByID(ctx, *q.UserID)
	if err != nil {
		return CheckResult{}, err
	}

	res.AccessToken = string(access)
	res.RefreshToken = string(refresh)
	res.User = &u
	return res, nil
}

// Scan records that user read the code on the companion device. Scanning
// again as the same user is a no-op.
func (s *QRCodeService) Scan(ctx context.Context, id string, user domain.User) (domain.QRCode, error) {
	if user.ID <= 0 {
		return domain.QRCode{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	now := nowFrom(s.Clock)

	var out domain.QRCode
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		q, err := s.live(ctx, tx, id)
		if err != nil {
			return err
		}
		if q.Status == domain.QRScanned && q.UserID != nil && *q.UserID == user.ID {
			out = q
			return nil
		}
		if q.Status != domain.QRPending {
			return ErrQRInvalidState
		}

		user.CreatedAt, user.UpdatedAt = now, now
		if err := tx.Users().UpsertUser(ctx, user); err != nil {
			return err
		}
		if err := tx.QRCodes().MarkScanned(ctx, id, user.ID, now); err != nil {
			return stateErr(err)
		}

		q.Status, q.UserID, q.ScannedAt = domain.QRScanned, &user.ID, &now
		out = q
		return nil
	})
	if err != nil {
		return domain.QRCode{}, err
	}

	slogx.FromContext(ctx).Info("qr code scanned", "qrcode_id", id, "user_id", user.ID)
	return out, nil
}

// Confirm approves a scanned attempt on behalf of userID and issues its
// credential. Only the user who scanned may confirm. Confirming an already
// confirmed attempt is a no-op for that same user.
func (s *QRCodeService) Confirm(ctx context.Context, id string, userID int64) (domain.QRCode, error) {
	if userID <= 0 {
		return domain.QRCode{}, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	now := nowFrom(s.Clock)

	var out domain.QRCode
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		q, err := s.live(ctx, tx, id)
		if err != nil {
			return err
		}
		if (q.Status != domain.QRScanned && q.Status != domain.QRConfirmed) || q.UserID == nil {
			return ErrQRInvalidState
		}
		if *q.UserID != userID {
			slogx.FromContext(ctx).Warn("qr confirm by a user other than the scanner",
				"qrcode_id", id, "scanner_id", *q.UserID, "user_id", userID)
			return ErrForbidden
		}
		if q.Status == domain.QRConfirmed {
			out = q
			return nil
		}

		u, err := tx.Users().GetUserByID(ctx, *q.UserID)
		if err != nil {
			return err
		}
		pair, err := s.Tokens.Issue(ctx, tx, u, q.ID)
		if err != nil {
			return err
		}

		accessSealed, err := s.Sealer.Seal([]byte(pair.AccessToken), []byte(q.ID))
		if err != nil {
			return err
		}
		refreshSealed, err := s.Sealer.Seal([]byte(pair.RefreshToken), []byte(q.ID))
		if err != nil {
			return err
		}
		if err := tx.QRCodes().MarkConfirmed(ctx, q.ID, accessSealed, refreshSealed, now); err != nil {
			return stateErr(err)
		}

		q.Status, q.ConfirmedAt = domain.QRConfirmed, &now
		out = q
		return nil
	})
	if err != nil {
		return domain.QRCode{}, err
	}

	slogx.FromContext(ctx).Info("qr code confirmed", "qrcode_id", id, "user_id", *out.UserID)
	return out, nil
}

// live loads a code that exists and has not expired.
func (s *QRCodeService) live(ctx context.Context, st store.Store, id string) (domain.QRCode, error) {
	if strings.TrimSpace(id) == "" {
		return domain.QRCode{}, fmt.Errorf("%w: qrcodeId is required", ErrInvalidRequest)
	}
	q, err := st.QRCodes().GetQRCode(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.QRCode{}, ErrQRNotFound
		}
		return domain.QRCode{}, err
	}
	if q.Expired(nowFrom(s.Clock)) {
		return domain.QRCode{}, ErrQRExpired
	}
	return q, nil
}

// stateErr maps a guarded update that matched nothing, which means another
// request moved the code first.
func stateErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrQRInvalidState
	}
	return err
}
