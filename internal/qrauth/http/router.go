package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ravey/almond/internal/qrauth/service"
	"github.com/ravey/almond/internal/qrauth/store"
	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/httpx"
	"github.com/ravey/almond/pkg/jwtx"
	"github.com/ravey/almond/pkg/slogx"

	_ "github.com/ravey/almond/api/qrauth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	QRCodeService *service.QRCodeService
	TokenService  *service.TokenService
	UserService   *service.UserService

	// CompanionSecret admits trusted companion backends on scan and
	// confirm. Empty leaves bearer tokens as the only credential.
	CompanionSecret string
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerQR()
	r.registerCompanion()
	r.registerToken()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpx.Chain(httpSwagger.Handler(),
		httpx.RequireMethod(http.MethodGet, http.MethodHead),
		httpx.RateLimitByIP(httpx.PublicLimit),
	))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Almond QR Login API
//	@version		0.1.0
//	@description	Cross-device login: the desktop generates a code and polls it, a signed-in companion device scans and confirms it.
//	@description
//	@description				Every body is an envelope {code, data, message}. code 0 or 200 is success.
//	@description				Access tokens are EdDSA JWTs verifiable with the JWKS endpoint.
//
//	@contact.name				Almond Team
//	@contact.url				https://github.com/ravey/almond
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	CompanionSecret
//	@in							header
//	@name						X-Companion-Secret
//	@description				Shared secret of a trusted companion backend.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerQR() {
	h := &QRHandler{QRCodes: r.QRCodeService}

	r.Mux.Handle("POST "+almondsdk.PathQRGenerate,
		httpx.Chain(http.HandlerFunc(h.HandleGenerate),
			httpx.RateLimitByIP(httpx.IssueLimit),
		),
	)
	r.Mux.Handle("POST "+almondsdk.PathQRWxacode,
		httpx.Chain(http.HandlerFunc(h.HandleWxacode),
			httpx.RateLimitByIP(httpx.IssueLimit),
		),
	)

	// Polled every 2s per waiting browser
	r.Mux.Handle("POST "+almondsdk.PathQRCheck,
		httpx.Chain(http.HandlerFunc(h.HandleCheck),
			httpx.RateLimitByIP(httpx.PollLimit),
		),
	)
}

// registerCompanion guards scan and confirm: the caller must be a signed-in
// user or a trusted companion backend.
func (r *Router) registerCompanion() {
	h := &QRHandler{QRCodes: r.QRCodeService}
	if r.CompanionSecret == "" {
		r.logger.Info("no companion secret configured, scan and confirm accept bearer tokens only")
	}

	r.Mux.Handle("POST "+almondsdk.PathQRScan,
		httpx.Chain(http.HandlerFunc(h.HandleScan),
			httpx.RateLimitByIP(httpx.CompanionLimit),
			httpx.CompanionAuthn(r.verifier, r.CompanionSecret),
		),
	)
	r.Mux.Handle("POST "+almondsdk.PathQRConfirm,
		httpx.Chain(http.HandlerFunc(h.HandleConfirm),
			httpx.RateLimitByIP(httpx.CompanionLimit),
			httpx.CompanionAuthn(r.verifier, r.CompanionSecret),
		),
	)
}

func (r *Router) registerToken() {
	h := &RefreshHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST "+almondsdk.PathTokenRefresh,
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.CompanionLimit),
		),
	)

	r.Mux.Handle("POST "+almondsdk.PathTokenRevoke,
		httpx.Chain(&RevokeHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.CompanionLimit),
		),
	)

	r.Mux.Handle("GET "+almondsdk.PathJWKS,
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{UserService: r.UserService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.CompanionLimit),
	)
	r.Mux.Handle("GET "+almondsdk.PathUserInfo, secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET "+almondsdk.PathLivez,
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET "+almondsdk.PathReadyz,
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
