package http

import (
	"net/http"
	"strings"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/pkg/httpx"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
)

// AuthorizationServerMetadataHandler serves the RFC 8414 discovery document.
// The document is a static derivation of configuration.
func AuthorizationServerMetadataHandler(issuer string, scopes []string) http.HandlerFunc {
	issuer = strings.TrimRight(issuer, "/")
	doc := oauthx.AuthorizationServerMetadata{
		Issuer:                        issuer,
		AuthorizationEndpoint:         issuer + "/oauth/authorize",
		TokenEndpoint:                 issuer + "/oauth/token",
		RegistrationEndpoint:          issuer + "/oauth/register",
		ResponseTypesSupported:        []string{"code"},
		GrantTypesSupported:           []string{"authorization_code"},
		CodeChallengeMethodsSupported: []string{oauthx.CodeChallengeMethodS256},
		TokenEndpointAuthMethodsSupported: []string{
			domain.AuthMethodSecretPost,
			domain.AuthMethodSecretBasic,
			domain.AuthMethodNone,
		},
		ScopesSupported: scopes,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, doc)
	}
}

// ProtectedResourceMetadataHandler serves the RFC 9728 discovery document.
func ProtectedResourceMetadataHandler(issuer string, scopes []string) http.HandlerFunc {
	issuer = strings.TrimRight(issuer, "/")
	doc := oauthx.ProtectedResourceMetadata{
		Resource:               issuer,
		AuthorizationServers:   []string{issuer},
		BearerMethodsSupported: []string{"header"},
		ScopesSupported:        scopes,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, doc)
	}
}
