// Package session holds the application's authenticated identity: an
// explicit observable store with persisted state and ordered listeners.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidSession   = errors.New("session: token and user id are required")
	ErrNotAuthenticated = errors.New("session: not authenticated")
	ErrIdentityChange   = errors.New("session: user id cannot change")
)

// User is the normalized signed-in user.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is who is currently logged in. The zero value is logged out.
type Session struct {
	Token        string
	RefreshToken string
	User         *User
}

// IsAuthenticated reports whether both a token and a user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Listener receives every committed state. After logout it receives the
// zero Session.
type Listener func(Session)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store owns the Session. Writers are serialized and last-writer-wins; readers
// never block on writers.
//
// Listeners run synchronously on the writer's goroutine, in registration
// order, while the write lock is held. A listener must not write to the
// Store itself.
type Store struct {
	storage Storage
	log     *slog.Logger

	writeMu sync.Mutex
	current atomic.Pointer[Session]

	lmu       sync.Mutex
	listeners []listenerEntry
	nextID    uint64
}

// NewStore builds an empty, logged-out store. Call Restore to load
// previously persisted state.
func NewStore(storage Storage, log *slog.Logger) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Store{storage: storage, log: log}
	s.current.Store(&Session{})
	return s
}

// GetState returns a copy of the current session and whether it is authenticated.
func (s *Store) GetState() (Session, bool) {
	cur := s.current.Load().clone()
	return cur, cur.IsAuthenticated()
}

// IsAuthenticated reports whether a token and a user are both present.
func (s *Store) IsAuthenticated() bool {
	return s.current.Load().IsAuthenticated()
}

// Subscribe registers fn and returns a function that removes it. The
// returned function is idempotent.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// SetState persists next, swaps it in, then notifies listeners. If
// persisting fails the in-memory state is left untouched.
func (s *Store) SetState(ctx context.Context, next Session) error {
	if next.Token == "" || next.User == nil || next.User.ID == "" {
		return ErrInvalidSession
	}
	next = next.clone()

	userJSON, err := json.Marshal(next.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	changes := []Change{
		{Key: KeyToken, Value: next.Token},
		{Key: KeyUser, Value: string(userJSON)},
	}
	if next.RefreshToken != "" {
		changes = append(changes, Change{Key: KeyRefreshToken, Value: next.RefreshToken})
	} else {
		changes = append(changes, Change{Key: KeyRefreshToken, Delete: true})
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Apply(ctx, changes...); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.commit(next)
	s.log.Info("session updated", "user_id", next.User.ID)
	return nil
}

// Clear logs out: storage is wiped and listeners see the zero Session.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.storage.Apply(ctx, clearChanges()...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.commit(Session{})
	s.log.Info("session cleared")
	return nil
}

// UpdateUser edits the signed-in user's profile in place. The user id is
// fixed, fn changing it yields ErrIdentityChange.
func (s *Store) UpdateUser(ctx context.Context, fn func(*User)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if !cur.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	next := cur.clone()
	fn(next.User)
	if next.User.ID != cur.User.ID {
		return ErrIdentityChange
	}

	userJSON, err := json.Marshal(next.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.Apply(ctx, Change{Key: KeyUser, Value: string(userJSON)}); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.commit(next)
	return nil
}

// Restore loads persisted state at startup. Corrupt user data wipes storage
// and leaves the store logged out. It reports whether a session was loaded.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	token, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return false, fmt.Errorf("load token: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if !hasToken || !hasUser || token == "" {
		return false, nil
	}

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
		s.log.Warn("stored user is corrupt, clearing session", "err", err)
		if err := s.storage.Apply(ctx, clearChanges()...); err != nil {
			return false, fmt.Errorf("clear corrupt session: %w", err)
		}
		return false, nil
	}

	refresh, _, err := s.storage.Get(ctx, KeyRefreshToken)
	if err != nil {
		return false, fmt.Errorf("load refresh token: %w", err)
	}

	s.commit(Session{Token: token, RefreshToken: refresh, User: &u})
	return true, nil
}

// commit swaps and notifies. Caller holds writeMu.
func (s *Store) commit(next Session) {
	s.current.Store(&next)

	s.lmu.Lock()
	snapshot := make([]Listener, len(s.listeners))
	for i, l := range s.listeners {
		snapshot[i] = l.fn
	}
	s.lmu.Unlock()

	for _, fn := range snapshot {
		fn(next.clone())
	}
}

func clearChanges() []Change {
	return []Change{
		{Key: KeyToken, Delete: true},
		{Key: KeyUser, Delete: true},
		{Key: KeyRefreshToken, Delete: true},
	}
}
