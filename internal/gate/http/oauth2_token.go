package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/pkg/httpx"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
)

// TokenHandler serves POST /oauth/token. The body may be either
// application/x-www-form-urlencoded per RFC 6749 or JSON, since several MCP
// clients send JSON despite the framework mandating form encoding.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := parseTokenRequest(r)
	if err != nil {
		writeOAuthError(w, r, err)
		return
	}

	resp, err := h.TokenService.ExchangeAuthorizationCode(r.Context(), req)
	if err != nil {
		writeOAuthError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func parseTokenRequest(r *http.Request) (service.TokenRequest, error) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			GrantType    string `json:"grant_type"`
			Code         string `json:"code"`
			RedirectURI  string `json:"redirect_uri"`
			CodeVerifier string `json:"code_verifier"`
			ClientID     string `json:"client_id"`
			ClientSecret string `json:"client_secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return service.TokenRequest{}, oauthx.ErrInvalidFormBody
		}
		return service.TokenRequest{
			GrantType:    strings.TrimSpace(body.GrantType),
			Code:         strings.TrimSpace(body.Code),
			RedirectURI:  strings.TrimSpace(body.RedirectURI),
			CodeVerifier: strings.TrimSpace(body.CodeVerifier),
			ClientID:     strings.TrimSpace(body.ClientID),
			ClientSecret: body.ClientSecret,
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return service.TokenRequest{}, oauthx.ErrInvalidFormBody
	}

	req := service.TokenRequest{
		GrantType:    strings.TrimSpace(r.Form.Get("grant_type")),
		Code:         strings.TrimSpace(r.Form.Get("code")),
		RedirectURI:  strings.TrimSpace(r.Form.Get("redirect_uri")),
		CodeVerifier: strings.TrimSpace(r.Form.Get("code_verifier")),
		ClientID:     strings.TrimSpace(r.Form.Get("client_id")),
		ClientSecret: r.Form.Get("client_secret"),
	}

	// RFC 6749 section 2.3.1: confidential clients may authenticate with
	// HTTP Basic instead of body parameters.
	if req.ClientID == "" {
		if id, secret, ok := r.BasicAuth(); ok {
			req.ClientID = id
			req.ClientSecret = secret
		}
	}

	return req, nil
}
