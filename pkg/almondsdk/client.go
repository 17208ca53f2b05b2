package almondsdk

import (
	"net/http"
	"strings"
	"time"
)

// Default per-call timeouts.
const (
	DefaultGenerateTimeout = 8 * time.Second
	DefaultRenderTimeout   = 10 * time.Second
	DefaultCheckTimeout    = 8 * time.Second
)

// HeaderCompanionSecret carries the shared secret of a trusted companion backend.
const HeaderCompanionSecret = "X-Companion-Secret"

// Endpoint paths relative to BaseURL.
const (
	PathQRGenerate   = "/front/auth/qr/generate"
	PathQRWxacode    = "/front/auth/qr/wxacode"
	PathQRCheck      = "/front/auth/qr/check"
	PathQRScan       = "/front/auth/qr/scan"
	PathQRConfirm    = "/front/auth/qr/confirm"
	PathTokenRefresh = "/front/auth/token/refresh"
	PathTokenRevoke  = "/front/auth/token/revoke"
	PathUserInfo     = "/front/user/info"
	PathLivez        = "/livez"
	PathReadyz       = "/readyz"
	PathJWKS         = "/.well-known/jwks.json"
)

// SDKClient talks to the user-center. It is safe for concurrent use.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	GenerateTimeout time.Duration
	RenderTimeout   time.Duration
	CheckTimeout    time.Duration
}

// NewSDKClient creates a client with the default timeouts. The HTTP client
// has no overall timeout of its own, each call is bounded individually.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		HTTPClient:      &http.Client{},
		GenerateTimeout: DefaultGenerateTimeout,
		RenderTimeout:   DefaultRenderTimeout,
		CheckTimeout:    DefaultCheckTimeout,
	}
}
