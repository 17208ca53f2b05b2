package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/ravey/almond/internal/qrauth/domain"
	"github.com/ravey/almond/internal/qrauth/store"
	"github.com/ravey/almond/internal/qrauth/store/drivers/sqlite"
	"github.com/ravey/almond/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, id int64) domain.User {
	t.Helper()
	now := time.UnixMilli(1700000000000).UTC()
	u := domain.User{ID: id, Nickname: "Ann", AvatarURL: "https://a/7.png", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, st.Users().UpsertUser(context.Background(), u))
	return u
}

func TestMigrationsAreIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestQRCodes_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedUser(t, st, 7)

	now := time.UnixMilli(1700000000000).UTC()
	q := domain.QRCode{
		ID:        idx.New().String(),
		AppID:     "wx-app",
		Scene:     "desk",
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
	require.NoError(t, st.QRCodes().CreateQRCode(ctx, q))
	require.ErrorIs(t, st.QRCodes().CreateQRCode(ctx, q), store.ErrAlreadyExists)

	got, err := st.QRCodes().GetQRCode(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, domain.QRPending, got.Status)
	require.Nil(t, got.UserID)
	require.Equal(t, q.ExpiresAt, got.ExpiresAt)

	t.Run("confirm requires scan", func(t *testing.T) {
		err := st.QRCodes().MarkConfirmed(ctx, q.ID, []byte("a"), []byte("r"), now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	require.NoError(t, st.QRCodes().MarkScanned(ctx, q.ID, 7, now.Add(time.Second)))
	require.ErrorIs(t, st.QRCodes().MarkScanned(ctx, q.ID, 7, now), store.ErrNotFound, "only pending codes can be scanned")

	require.NoError(t, st.QRCodes().MarkConfirmed(ctx, q.ID, []byte("a"), []byte("r"), now.Add(2*time.Second)))

	got, err = st.QRCodes().GetQRCode(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, domain.QRConfirmed, got.Status)
	require.Equal(t, int64(7), *got.UserID)
	require.Equal(t, []byte("a"), got.AccessTokenSealed)
	require.Equal(t, []byte("r"), got.RefreshTokenSealed)
	require.Equal(t, now.Add(time.Second), *got.ScannedAt)
	require.Equal(t, now.Add(2*time.Second), *got.ConfirmedAt)
}

func TestQRCodes_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	now := time.UnixMilli(1700000000000).UTC()
	for i, ttl := range []time.Duration{-time.Minute, time.Minute} {
		require.NoError(t, st.QRCodes().CreateQRCode(ctx, domain.QRCode{
			ID:        idx.NewAt(now.Add(time.Duration(i) * time.Millisecond)).String(),
			AppID:     "wx-app",
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}))
	}

	n, err := st.QRCodes().DeleteExpiredQRCodes(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestGetQRCodeNotFound(t *testing.T) {
	_, err := newStore(t).QRCodes().GetQRCode(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_Upsert(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := seedUser(t, st, 7)

	u.Nickname = "Annie"
	u.UpdatedAt = u.UpdatedAt.Add(time.Hour)
	require.NoError(t, st.Users().UpsertUser(ctx, u))

	got, err := st.Users().GetUserByID(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Annie", got.Nickname)
	require.Equal(t, u.UpdatedAt, got.UpdatedAt)

	_, err = st.Users().GetUserByID(ctx, 8)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_RevokeOnce(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	seedUser(t, st, 7)

	now := time.UnixMilli(1700000000000).UTC()
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    7,
		QRCodeID:  "q1",
		TokenHash: "fp",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "fp")
	require.NoError(t, err)
	require.Equal(t, rt, got)

	require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, "fp"))
	require.ErrorIs(t, st.RefreshTokens().RevokeRefreshToken(ctx, "fp"), store.ErrNotFound)

	got, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "fp")
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	boom := store.ErrAlreadyExists
	err := st.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		require.NoError(t, tx.Users().UpsertUser(ctx, domain.User{ID: 1, CreatedAt: now, UpdatedAt: now}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users().GetUserByID(ctx, 1)
	require.ErrorIs(t, err, store.ErrNotFound)
}
