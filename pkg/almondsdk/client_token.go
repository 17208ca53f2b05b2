package almondsdk

import (
	"context"
	"fmt"
	"net/http"
)

// RefreshToken rotates a refresh token into a new credential pair.
func (c *SDKClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.call(ctx, http.MethodPost, PathTokenRefresh, c.CheckTimeout, req, &out, nil); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: refresh returned no token", ErrMalformedResponse)
	}
	return &out, nil
}

// RevokeToken invalidates a refresh token. The provider answers success
// for unknown tokens too.
func (c *SDKClient) RevokeToken(ctx context.Context, refreshToken string) error {
	req := RevokeRequest{RefreshToken: refreshToken}
	return c.call(ctx, http.MethodPost, PathTokenRevoke, c.CheckTimeout, req, nil, nil)
}

// GetUserInfo fetches the profile behind an access token.
func (c *SDKClient) GetUserInfo(ctx context.Context, accessToken string) (*UserProfile, error) {
	var out UserProfile
	headers := map[string]string{"Authorization": "Bearer " + accessToken}
	if err := c.call(ctx, http.MethodGet, PathUserInfo, c.CheckTimeout, nil, &out, headers); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: user info without id", ErrMalformedResponse)
	}
	return &out, nil
}
