package almondsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// GetLiveness reports whether the provider process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) error {
	return c.health(ctx, PathLivez)
}

// GetReadiness reports whether the provider can serve logins (database reachable).
func (c *SDKClient) GetReadiness(ctx context.Context) error {
	return c.health(ctx, PathReadyz)
}

func (c *SDKClient) health(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp.StatusCode, resp.StatusCode, fmt.Sprintf("%s returned %d", path, resp.StatusCode))
	}
	return nil
}
