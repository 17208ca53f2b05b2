package service

import (
	"context"
	"errors"

	"github.com/ravey/almond/internal/qrauth/domain"
	"github.com/ravey/almond/internal/qrauth/store"
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id. Unknown ids are ErrInvalidRequest.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrInvalidRequest
	}
	return u, err
}
