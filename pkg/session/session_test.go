package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ravey/almond/pkg/session"
	"github.com/ravey/almond/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*session.Store, *session.MemoryStorage) {
	t.Helper()
	mem := session.NewMemoryStorage()
	return session.NewStore(mem, slogx.Discard()), mem
}

func ann() session.Session {
	return session.Session{
		Token:        "T",
		RefreshToken: "R",
		User: &session.User{
			ID:          "7",
			DisplayName: "Ann",
			CreatedAt:   time.Unix(1700000000, 0).UTC(),
		},
	}
}

func TestStore_SetStatePersistsAndNotifies(t *testing.T) {
	t.Parallel()

	store, mem := newStore(t)
	require.False(t, store.IsAuthenticated())

	var order []string
	store.Subscribe(func(s session.Session) { order = append(order, "first:"+s.Token) })
	store.Subscribe(func(s session.Session) { order = append(order, "second:"+s.Token) })

	require.NoError(t, store.SetState(context.Background(), ann()))

	require.Equal(t, []string{"first:T", "second:T"}, order)
	require.True(t, store.IsAuthenticated())

	got, ok := store.GetState()
	require.True(t, ok)
	require.Equal(t, "Ann", got.User.DisplayName)

	raw := mem.Snapshot()
	require.Equal(t, "T", raw[session.KeyToken])
	require.Equal(t, "R", raw[session.KeyRefreshToken])
	require.JSONEq(t, `{"id":"7","name":"Ann","email":"","createdAt":"2023-11-14T22:13:20Z"}`, raw[session.KeyUser])
}

func TestStore_EmptyRefreshTokenIsRemoved(t *testing.T) {
	t.Parallel()

	store, mem := newStore(t)
	require.NoError(t, store.SetState(context.Background(), ann()))

	next := ann()
	next.RefreshToken = ""
	require.NoError(t, store.SetState(context.Background(), next))

	_, ok := mem.Snapshot()[session.KeyRefreshToken]
	require.False(t, ok)
}

func TestStore_RejectsIncompleteSession(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	called := false
	store.Subscribe(func(session.Session) { called = true })

	bad := ann()
	bad.User.ID = ""
	require.ErrorIs(t, store.SetState(context.Background(), bad), session.ErrInvalidSession)
	require.ErrorIs(t, store.SetState(context.Background(), session.Session{Token: "T"}), session.ErrInvalidSession)
	require.False(t, called)
}

type failingStorage struct{ *session.MemoryStorage }

func (failingStorage) Apply(context.Context, ...session.Change) error { return errors.New("disk full") }

func TestStore_PersistFailureKeepsPriorState(t *testing.T) {
	t.Parallel()

	store := session.NewStore(failingStorage{session.NewMemoryStorage()}, slogx.Discard())
	notified := false
	store.Subscribe(func(session.Session) { notified = true })

	require.Error(t, store.SetState(context.Background(), ann()))
	require.False(t, store.IsAuthenticated())
	require.False(t, notified)
}

func TestStore_Unsubscribe(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	calls := 0
	unsubscribe := store.Subscribe(func(session.Session) { calls++ })

	require.NoError(t, store.SetState(context.Background(), ann()))
	unsubscribe()
	unsubscribe()
	require.NoError(t, store.SetState(context.Background(), ann()))

	require.Equal(t, 1, calls)
}

func TestStore_ClearLogsOut(t *testing.T) {
	t.Parallel()

	store, mem := newStore(t)
	require.NoError(t, store.SetState(context.Background(), ann()))

	var last session.Session
	store.Subscribe(func(s session.Session) { last = s })

	require.NoError(t, store.Clear(context.Background()))
	require.False(t, store.IsAuthenticated())
	require.False(t, last.IsAuthenticated())
	require.Empty(t, mem.Snapshot())
}

func TestStore_UpdateUser(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	require.ErrorIs(t, store.UpdateUser(context.Background(), func(*session.User) {}), session.ErrNotAuthenticated)

	require.NoError(t, store.SetState(context.Background(), ann()))
	require.NoError(t, store.UpdateUser(context.Background(), func(u *session.User) {
		u.DisplayName = "Annie"
		u.AvatarURL = "https://cdn/annie.png"
	}))

	got, _ := store.GetState()
	require.Equal(t, "Annie", got.User.DisplayName)
	require.Equal(t, "T", got.Token, "profile edits keep the credential")

	err := store.UpdateUser(context.Background(), func(u *session.User) { u.ID = "8" })
	require.ErrorIs(t, err, session.ErrIdentityChange)
	got, _ = store.GetState()
	require.Equal(t, "7", got.User.ID)
}

func TestStore_GetStateReturnsCopy(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	require.NoError(t, store.SetState(context.Background(), ann()))

	got, _ := store.GetState()
	got.User.DisplayName = "mutated"

	again, _ := store.GetState()
	require.Equal(t, "Ann", again.User.DisplayName)
}

func TestStore_Restore(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		mem := session.NewMemoryStorage()
		first := session.NewStore(mem, slogx.Discard())
		require.NoError(t, first.SetState(context.Background(), ann()))

		second := session.NewStore(mem, slogx.Discard())
		ok, err := second.Restore(context.Background())
		require.NoError(t, err)
		require.True(t, ok)

		got, authed := second.GetState()
		require.True(t, authed)
		require.Equal(t, ann(), got)
	})

	t.Run("empty storage", func(t *testing.T) {
		store, _ := newStore(t)
		ok, err := store.Restore(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("corrupt user clears storage", func(t *testing.T) {
		mem := session.NewMemoryStorage()
		require.NoError(t, mem.Apply(context.Background(),
			session.Change{Key: session.KeyToken, Value: "T"},
			session.Change{Key: session.KeyUser, Value: "{not json"},
		))

		store := session.NewStore(mem, slogx.Discard())
		ok, err := store.Restore(context.Background())
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, mem.Snapshot())
	})
}

func TestStore_ConcurrentWritersLastWins(t *testing.T) {
	t.Parallel()

	store, mem := newStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := ann()
			s.Token = string(rune('a' + i))
			errs <- store.SetState(context.Background(), s)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, _ := store.GetState()
	require.Equal(t, mem.Snapshot()[session.KeyToken], got.Token, "memory and storage agree on the last writer")
}
