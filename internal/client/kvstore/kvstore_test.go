package kvstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ravey/almond/pkg/cryptox"
	"github.com/ravey/almond/pkg/session"
	"github.com/ravey/almond/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newSealer(t *testing.T, material string) *cryptox.Sealer {
	t.Helper()
	s, err := cryptox.NewSealer([]byte(material))
	require.NoError(t, err)
	return s
}

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", newSealer(t, "device key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestApplyAndGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Apply(ctx,
		session.Change{Key: session.KeyToken, Value: "T1"},
		session.Change{Key: session.KeyUser, Value: `{"id":"7"}`},
	))

	v, ok, err := s.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", v)

	require.NoError(t, s.Apply(ctx,
		session.Change{Key: session.KeyToken, Value: "T2"},
		session.Change{Key: session.KeyUser, Delete: true},
	))

	v, _, err = s.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "T2", v)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{session.KeyToken}, keys)
}

func TestValuesAreSealed(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, session.Change{Key: session.KeyToken, Value: "secret-token"}))

	var raw []byte
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, session.KeyToken).Scan(&raw))
	require.NotContains(t, string(raw), "secret-token")

	// A value moved under another key no longer opens.
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, 0)`, session.KeyRefreshToken, raw)
	require.NoError(t, err)
	_, _, err = s.Get(ctx, session.KeyRefreshToken)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestApplyIsAtomic(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Apply(ctx, session.Change{Key: session.KeyToken, Value: "T1"}))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err := s.Apply(cctx,
		session.Change{Key: session.KeyToken, Value: "T2"},
		session.Change{Key: session.KeyUser, Value: "{}"},
	)
	require.Error(t, err)

	v, _, err := s.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "T1", v)
}

func TestSessionSurvivesReopen(t *testing.T) {
	dsn := FileDSN(filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	first, err := Open(dsn, newSealer(t, "device key"))
	require.NoError(t, err)

	st := session.NewStore(first, slogx.Discard())
	require.NoError(t, st.SetState(ctx, session.Session{
		Token:        "T",
		RefreshToken: "R",
		User:         &session.User{ID: "7", DisplayName: "Ann", CreatedAt: time.Unix(1700000000, 0).UTC()},
	}))
	require.NoError(t, first.Close())

	second, err := Open(dsn, newSealer(t, "device key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	restored := session.NewStore(second, slog.Default())
	ok, err := restored.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	got, _ := restored.GetState()
	require.Equal(t, "R", got.RefreshToken)
	require.Equal(t, "Ann", got.User.DisplayName)
}

func TestWrongDeviceKey(t *testing.T) {
	dsn := FileDSN(filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	first, err := Open(dsn, newSealer(t, "device key"))
	require.NoError(t, err)
	require.NoError(t, first.Apply(ctx, session.Change{Key: session.KeyToken, Value: "T"}))
	require.NoError(t, first.Close())

	second, err := Open(dsn, newSealer(t, "another key"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, _, err = second.Get(ctx, session.KeyToken)
	require.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, second.Reset(ctx))
	_, ok, err := second.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.False(t, ok)
}
