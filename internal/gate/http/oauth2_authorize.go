package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/internal/gate/session"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// AuthorizeHandler serves GET /oauth/authorize, the entry point of the
// authorization code flow.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
	Sessions         *session.Manager
}

// ServeHTTP validates the authorization request and either redirects the user
// agent back to the client with a fresh code, or sends it to the login
// challenge carrying the original request URL for replay.
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	query := r.URL.Query()
	req := service.AuthorizeRequest{
		ResponseType:        query.Get("response_type"),
		ClientID:            query.Get("client_id"),
		RedirectURI:         query.Get("redirect_uri"),
		Scope:               query.Get("scope"),
		State:               query.Get("state"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
	}

	if _, err := h.Sessions.FromRequest(r); err == nil {
		req.Authenticated = true
	}

	result, err := h.AuthorizeService.Authorize(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrLoginRequired) {
			redirectToLogin(w, r)
			return
		}
		writeOAuthError(w, r, err)
		return
	}

	target, err := url.Parse(result.RedirectURI)
	if err != nil {
		log.Error("issued code for unparseable redirect_uri", "error", err)
		oauthx.ErrServerError.WriteError(w)
		return
	}

	params := target.Query()
	params.Set("code", result.Code)
	if result.State != "" {
		params.Set("state", result.State)
	}
	target.RawQuery = params.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// redirectToLogin sends the user agent to the login challenge with the full
// original authorize URL so it can be replayed after credential entry.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.RequestURI()
	http.Redirect(w, r, "/login?return_to="+url.QueryEscape(returnTo), http.StatusFound)
}
