package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// TokenService implements the authorization_code grant. On success it hands
// out the configured static API key as the bearer credential; the key carries
// no per-issuance identity and does not expire.
type TokenService struct {
	Store   store.Store
	Clients *ClientService
	Audit   *AuditService

	// APIKey is the static access credential returned on every successful
	// exchange.
	APIKey string

	// DefaultScopes fills the scope field of the token response when the
	// authorization code carries none.
	DefaultScopes []string

	// ClientIDFallback enables adopting the client_id stored on the
	// authorization code when the token request omits it. Non-standard;
	// disable for strict-conformance deployments.
	ClientIDFallback bool
}

// TokenRequest is the parsed body of a token endpoint request.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
	ClientID     string
	ClientSecret string
}

// ExchangeAuthorizationCode redeems an authorization code for the access
// credential. Redemption is destructive: the code is consumed atomically
// before the binding checks run, so a code that fails any check is burned and
// cannot be retried with corrected parameters, and two concurrent redemptions
// of the same code cannot both succeed.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, req TokenRequest) (*oauthx.TokenResponse, error) {
	l := slogx.FromContext(ctx)

	if req.GrantType != "authorization_code" {
		return nil, oauthx.ErrUnsupportedGrantType
	}
	if req.Code == "" {
		return nil, oauthx.InvalidRequest("Missing code")
	}
	if req.RedirectURI == "" {
		return nil, oauthx.InvalidRequest("Missing redirect_uri")
	}
	if req.CodeVerifier == "" {
		return nil, oauthx.InvalidRequest("Missing code_verifier")
	}

	clientID := req.ClientID
	if clientID == "" {
		resolved, err := s.resolveClientIDFromCode(ctx, req.Code)
		if err != nil {
			return nil, err
		}
		clientID = resolved
	}

	if err := s.authenticateClient(ctx, clientID, req.ClientSecret); err != nil {
		return nil, err
	}

	if !oauthx.ValidateFormat(req.CodeVerifier) {
		return nil, oauthx.InvalidRequest("Invalid code_verifier format")
	}

	// Atomic consume: the code is deleted and returned in one statement, or
	// reported absent. Absent covers never-issued, expired, and already-used.
	authCode, ok, err := s.Store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Info("token exchange rejected: code absent or expired", "client_id", clientID)
		return nil, oauthx.InvalidGrant("Invalid or expired authorization code")
	}

	if authCode.ClientID != clientID {
		s.Audit.Record(ctx, domain.AuditTokenExchange, false, clientID, "client_id mismatch")
		return nil, oauthx.InvalidGrant("client_id mismatch")
	}

	if authCode.RedirectURI != req.RedirectURI {
		s.Audit.Record(ctx, domain.AuditTokenExchange, false, clientID, "redirect_uri mismatch")
		return nil, oauthx.InvalidGrant("redirect_uri mismatch")
	}

	if !oauthx.VerifyS256(req.CodeVerifier, authCode.CodeChallenge) {
		s.Audit.Record(ctx, domain.AuditTokenExchange, false, clientID, "PKCE verification failed")
		l.Warn("token exchange rejected: PKCE verification failed", "client_id", clientID)
		return nil, oauthx.InvalidGrant("PKCE verification failed")
	}

	scope := authCode.Scope
	if scope == "" {
		scope = strings.Join(s.DefaultScopes, " ")
	}

	s.Audit.Record(ctx, domain.AuditTokenExchange, true, clientID, "")
	l.Info("token exchange succeeded", "client_id", clientID)

	return &oauthx.TokenResponse{
		AccessToken: s.APIKey,
		TokenType:   "Bearer",
		Scope:       scope,
	}, nil
}

// resolveClientIDFromCode adopts the client_id stored on the authorization
// code when the request omits it. The read is non-consuming; the code is
// still redeemed (or burned) by the main exchange path.
func (s *TokenService) resolveClientIDFromCode(ctx context.Context, code string) (string, error) {
	if !s.ClientIDFallback {
		return "", oauthx.InvalidRequest("Missing or invalid client_id")
	}

	authCode, err := s.Store.AuthorizationCodes().GetAuthorizationCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", oauthx.InvalidRequest("Missing or invalid client_id")
		}
		return "", err
	}

	slogx.FromContext(ctx).Warn("client_id adopted from authorization code record",
		"client_id", authCode.ClientID,
	)
	return authCode.ClientID, nil
}

// authenticateClient applies the auth-method policy: a client whose record
// declares "none" only has to exist; every other client must present the
// correct secret. The static client, absent from the registry, requires a
// secret (client_secret_post semantics).
func (s *TokenService) authenticateClient(ctx context.Context, clientID, clientSecret string) error {
	client, found, err := s.Clients.Lookup(ctx, clientID)
	if err != nil {
		return err
	}

	if found && client.Public() {
		return nil
	}

	if !found && clientID != s.Clients.StaticClientID {
		return oauthx.ErrUnauthorizedClient
	}

	if clientSecret == "" {
		return oauthx.ErrInvalidClient
	}

	ok, err := s.Clients.ValidateCredentials(ctx, clientID, clientSecret)
	if err != nil {
		return err
	}
	if !ok {
		slogx.FromContext(ctx).Info("client authentication failed", "client_id", clientID)
		return oauthx.ErrInvalidClient
	}
	return nil
}
