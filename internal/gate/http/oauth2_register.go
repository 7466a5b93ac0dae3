package http

import (
	"encoding/json"
	"net/http"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/pkg/httpx"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
)

// RegisterHandler serves POST /oauth/register, the RFC 7591 dynamic client
// registration endpoint. Registration is open (no initial access token); the
// rate limiter in front is the only brake on abuse.
type RegisterHandler struct {
	ClientService *service.ClientService
	Audit         *service.AuditService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req oauthx.ClientRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Audit.Record(ctx, domain.AuditClientRegister, false, "", "malformed request body")
		oauthx.InvalidClientMetadata("request body must be a JSON object").WriteError(w)
		return
	}

	client, err := h.ClientService.Register(ctx, req)
	if err != nil {
		h.Audit.Record(ctx, domain.AuditClientRegister, false, "", err.Error())
		writeOAuthError(w, r, err)
		return
	}

	h.Audit.Record(ctx, domain.AuditClientRegister, true, client.ID, "")

	resp := oauthx.ClientRegistrationResponse{
		ClientID:                client.ID,
		ClientSecret:            client.Secret,
		ClientIDIssuedAt:        client.CreatedAt.Unix(),
		ClientSecretExpiresAt:   0, // secrets do not expire
		ClientName:              client.Name,
		RedirectURIs:            client.RedirectURIs,
		TokenEndpointAuthMethod: client.AuthMethod,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		Scope:                   client.Scope,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, resp)
}
