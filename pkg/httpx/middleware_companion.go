package httpx

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/ravey/almond/pkg/jwtx"
	"github.com/ravey/almond/pkg/slogx"
)

// HeaderCompanionSecret carries the shared secret of a trusted companion
// backend that acts on behalf of its own users.
const HeaderCompanionSecret = "X-Companion-Secret"

// CompanionAuthn guards the companion side of the QR handshake. A caller
// presents either the shared companion secret or a bearer access token of
// the user it acts for. An empty secret disables the secret path.
func CompanionAuthn(v jwtx.Verifier, secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if presented, ok := r.Header[http.CanonicalHeaderKey(HeaderCompanionSecret)]; ok {
				got := strings.TrimSpace(strings.Join(presented, ""))
				if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					slogx.FromContext(r.Context()).Warn("companion secret rejected")
					writeBearerError(w, "invalid companion secret")
					return
				}
				ctx := context.WithValue(r.Context(), CtxKeyTrustedCompanion, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx, ok := verifyBearer(w, r, v)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TrustedCompanionFromContext reports whether the request was authenticated
// with the companion secret rather than a user's token.
func TrustedCompanionFromContext(ctx context.Context) bool {
	v, _ := ctx.Value(CtxKeyTrustedCompanion).(bool)
	return v
}
