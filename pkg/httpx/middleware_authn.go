package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ravey/almond/pkg/jwtx"
	"github.com/ravey/almond/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := verifyBearer(w, r, v)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// verifyBearer answers 401 itself when the request carries no valid token.
func verifyBearer(w http.ResponseWriter, r *http.Request, v jwtx.Verifier) (context.Context, bool) {
	ctx := r.Context()

	raw, ok := BearerToken(r)
	if !ok {
		writeBearerError(w, "missing bearer token")
		return nil, false
	}

	claims, err := v.Verify(raw)
	if err != nil {
		writeBearerError(w, "token verification failed")
		slogx.FromContext(ctx).Warn("jwt verify failed", "err", err)
		return nil, false
	}
	return contextWithAuth(ctx, claims), true
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"code":    http.StatusUnauthorized,
		"message": desc,
	})
}
