package service

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/cryptox"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

const clientIDPrefix = "mcp-client-"

var (
	supportedGrantTypes    = []string{"authorization_code", "refresh_token"}
	supportedResponseTypes = []string{"code"}
	supportedAuthMethods   = []string{
		domain.AuthMethodSecretPost,
		domain.AuthMethodSecretBasic,
		domain.AuthMethodNone,
	}
)

// ClientService owns client identity: dynamic registration per RFC 7591,
// lookup, and credential validation. The static client configured at deploy
// time always exists, is never persisted, and is checked before the registry.
type ClientService struct {
	Store store.Store

	StaticClientID     string
	StaticClientSecret string
}

// Register validates RFC 7591 metadata, mints credentials, and persists the
// client. Registered clients are immutable; there is no update or delete.
func (s *ClientService) Register(ctx context.Context, req oauthx.ClientRegistrationRequest) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code"}
	}
	for _, gt := range grantTypes {
		if !slices.Contains(supportedGrantTypes, gt) {
			return domain.Client{}, oauthx.InvalidClientMetadata("unsupported grant_type: " + gt)
		}
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}
	for _, rt := range responseTypes {
		if !slices.Contains(supportedResponseTypes, rt) {
			return domain.Client{}, oauthx.InvalidClientMetadata("unsupported response_type: " + rt)
		}
	}

	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = domain.AuthMethodSecretBasic
	}
	if !slices.Contains(supportedAuthMethods, authMethod) {
		return domain.Client{}, oauthx.InvalidClientMetadata("unsupported token_endpoint_auth_method: " + authMethod)
	}

	// The authorization_code grant is redirect-based, so at least one
	// redirect URI is mandatory when it is requested.
	if slices.Contains(grantTypes, "authorization_code") && len(req.RedirectURIs) == 0 {
		return domain.Client{}, oauthx.InvalidRedirectURI("redirect_uris is required for the authorization_code grant")
	}
	for _, raw := range req.RedirectURIs {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return domain.Client{}, oauthx.InvalidRedirectURI("redirect_uri must be an absolute URI: " + raw)
		}
	}

	clientID, err := generateClientID()
	if err != nil {
		return domain.Client{}, err
	}

	var secret string
	if authMethod != domain.AuthMethodNone {
		secret, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.Client{}, err
		}
	}

	client := domain.Client{
		ID:            clientID,
		Secret:        secret,
		Name:          req.ClientName,
		RedirectURIs:  req.RedirectURIs,
		AuthMethod:    authMethod,
		GrantTypes:    grantTypes,
		ResponseTypes: responseTypes,
		Scope:         req.Scope,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to persist registered client", "error", err)
		return domain.Client{}, err
	}

	l.Info("client registered", "client_id", client.ID, "auth_method", authMethod, "redirect_uris", len(client.RedirectURIs))
	return client, nil
}

// Lookup fetches a registered client. Absence is a normal outcome, reported
// through found rather than an error.
func (s *ClientService) Lookup(ctx context.Context, clientID string) (domain.Client, bool, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, false, nil
		}
		return domain.Client{}, false, err
	}
	return client, true, nil
}

// IsKnownClientID reports whether clientID is the static client or resolves
// in the registry.
func (s *ClientService) IsKnownClientID(ctx context.Context, clientID string) (bool, error) {
	if clientID == s.StaticClientID {
		return true, nil
	}
	_, found, err := s.Lookup(ctx, clientID)
	return found, err
}

// ValidateCredentials reports whether the client_id/client_secret pair
// matches the static client or a registered client's stored secret. Both
// comparisons are constant time.
func (s *ClientService) ValidateCredentials(ctx context.Context, clientID, clientSecret string) (bool, error) {
	if clientID == s.StaticClientID {
		return cryptox.SecureCompare(clientSecret, s.StaticClientSecret), nil
	}

	client, found, err := s.Lookup(ctx, clientID)
	if err != nil {
		return false, err
	}
	if !found || client.Secret == "" {
		return false, nil
	}
	return cryptox.SecureCompare(clientSecret, client.Secret), nil
}

// generateClientID mints an identifier of the form mcp-client-<22 base64url chars>.
func generateClientID() (string, error) {
	suffix, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	return clientIDPrefix + suffix, nil
}
