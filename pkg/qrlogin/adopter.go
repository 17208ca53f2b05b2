package qrlogin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ravey/almond/pkg/jwtx"
	"github.com/ravey/almond/pkg/session"
)

// DefaultDisplayName is used when the provider sends no nickname.
const DefaultDisplayName = "用户"

var ErrMalformedUser = errors.New("qrlogin: user summary has no id")

// Adopter commits confirmed credentials to the session store.
type Adopter struct {
	store *session.Store

	// DefaultName and DefaultAvatar fill in a missing nickname or avatar.
	DefaultName   string
	DefaultAvatar string
}

func NewAdopter(store *session.Store) *Adopter {
	return &Adopter{store: store, DefaultName: DefaultDisplayName}
}

// Adopt normalizes cred into a Session and commits it. A user summary
// without an id is rejected and the current session is left alone.
//
// Adopting the same credential twice stores identical data: CreatedAt comes
// from the token's iat claim rather than the local clock.
func (a *Adopter) Adopt(ctx context.Context, cred Credential) error {
	if cred.Token == "" {
		return session.ErrInvalidSession
	}
	user, err := a.normalize(cred)
	if err != nil {
		return err
	}
	return a.store.SetState(ctx, session.Session{
		Token:        cred.Token,
		RefreshToken: cred.RefreshToken,
		User:         user,
	})
}

func (a *Adopter) normalize(cred Credential) (*session.User, error) {
	if cred.User == nil || strings.TrimSpace(cred.User.ID.String()) == "" {
		return nil, ErrMalformedUser
	}

	name := strings.TrimSpace(cred.User.Nickname)
	if name == "" {
		name = a.DefaultName
	}
	avatar := cred.User.AvatarURL
	if avatar == "" {
		avatar = a.DefaultAvatar
	}

	return &session.User{
		ID:          strings.TrimSpace(cred.User.ID.String()),
		DisplayName: name,
		AvatarURL:   avatar,
		CreatedAt:   issuedAt(cred.Token),
	}, nil
}

// issuedAt reads iat from a JWT access token. Opaque tokens yield the zero time.
func issuedAt(token string) time.Time {
	claims, err := jwtx.ParseUnverified(token)
	if err != nil || claims.IssuedAt == nil {
		return time.Time{}
	}
	return claims.IssuedAt.Time.UTC()
}
