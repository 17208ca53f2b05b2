package almondsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes bounds decoded bodies. Rendered PNGs are the largest payload.
const maxResponseBytes = 4 << 20

func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// call performs one JSON round trip bounded by timeout and decodes the
// envelope's data into out. A zero timeout means the caller's context alone
// bounds the call.
func (c *SDKClient) call(
	ctx context.Context,
	method, path string,
	timeout time.Duration,
	in, out any,
	headers map[string]string,
) error {
	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeoutCause(ctx, timeout, ErrRequestTimeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classifyTransport(ctx, reqCtx, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(ctx, reqCtx, method, path, err)
	}

	return decodeEnvelope(resp.StatusCode, raw, out)
}

// classifyTransport separates the caller giving up from our own timeout
// firing and from plain network failures.
func classifyTransport(ctx, reqCtx context.Context, method, path string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(context.Cause(reqCtx), ErrRequestTimeout) {
		return fmt.Errorf("%s %s: %w", method, path, ErrRequestTimeout)
	}
	return fmt.Errorf("%s %s: failed to send request: %w", method, path, err)
}

// decodeEnvelope turns a raw body into out or a typed error.
func decodeEnvelope(status int, raw []byte, out any) error {
	var env Envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)

	if status < 200 || status > 299 {
		if decodeErr != nil {
			return newAPIError(status, status, "")
		}
		code := env.Code
		if OK(code) {
			code = status
		}
		return newAPIError(status, code, env.Message)
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, decodeErr)
	}
	if !OK(env.Code) {
		return newAPIError(status, env.Code, env.Message)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
