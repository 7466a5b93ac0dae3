package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/internal/gate/session"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/httpx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	issuer       string
	buildVersion string
	scopes       []string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	sessions *session.Manager

	AuthorizeService *service.AuthorizeService
	TokenService     *service.TokenService
	ClientService    *service.ClientService
	LoginService     *service.LoginService
	AuditService     *service.AuditService
}

func NewRouter(
	issuer, buildVersion string,
	scopes []string,
	st store.Store,
	sessions *session.Manager,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		issuer:       issuer,
		buildVersion: buildVersion,
		scopes:       scopes,
		startTime:    time.Now(),
		store:        st,
		sessions:     sessions,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerLogin()
	r.registerWellKnown()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth2() {
	authorizeHandler := &AuthorizeHandler{
		AuthorizeService: r.AuthorizeService,
		Sessions:         r.sessions,
	}

	// GET /oauth/authorize - lenient limit; the endpoint only validates and
	// redirects, credentials never pass through it
	r.Mux.Handle("GET /oauth/authorize",
		httpx.Chain(authorizeHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /oauth/token - strict limit keyed by IP + client_id to slow down
	// code and secret guessing
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "client_id"),
		),
	)

	// POST /oauth/register - moderate limit; registration is open so the
	// limiter is the only brake on junk clients
	registerHandler := &RegisterHandler{
		ClientService: r.ClientService,
		Audit:         r.AuditService,
	}
	r.Mux.Handle("POST /oauth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		LoginService: r.LoginService,
		Sessions:     r.sessions,
	}

	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /login - strict limit by IP (password attempts)
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	r.Mux.Handle("GET /.well-known/oauth-authorization-server",
		httpx.Chain(AuthorizationServerMetadataHandler(r.issuer, r.scopes),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/oauth-protected-resource",
		httpx.Chain(ProtectedResourceMetadataHandler(r.issuer, r.scopes),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
