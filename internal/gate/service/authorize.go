package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/cryptox"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// ErrLoginRequired signals that the authorization request is valid but the
// user agent has no authenticated session. The HTTP layer responds by
// rendering the login challenge instead of an error.
var ErrLoginRequired = errors.New("login_required")

// DefaultCodeTTL is how long an authorization code stays redeemable.
const DefaultCodeTTL = 10 * time.Minute

// AuthorizeService validates authorization requests and issues single-use
// authorization codes bound to the client, redirect URI, and PKCE challenge.
type AuthorizeService struct {
	Store   store.Store
	Clients *ClientService
	CodeTTL time.Duration

	// AllowedRedirectPrefixes gates the static client's redirect_uri by
	// prefix match. Dynamic clients use exact matching against their
	// registered URIs instead.
	AllowedRedirectPrefixes []string
}

// AuthorizeRequest captures the query parameters of an authorization request
// plus the session's authentication state.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string

	// Authenticated reflects the session collaborator's verdict. When false
	// and everything else validates, Authorize returns ErrLoginRequired.
	Authenticated bool
}

// AuthorizeResult carries what the HTTP layer needs to build the redirect.
// State is echoed byte-for-byte, never interpreted.
type AuthorizeResult struct {
	Code        string
	RedirectURI string
	State       string
}

// Authorize runs the authorization request state machine: parameter
// validation, client identity, redirect URI policy, authentication branch,
// and finally code issuance. The first failing check wins.
func (s *AuthorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	l := slogx.FromContext(ctx)

	if req.ClientID == "" {
		return nil, oauthx.InvalidRequest("Missing client_id")
	}
	if req.RedirectURI == "" {
		return nil, oauthx.InvalidRequest("Missing redirect_uri")
	}
	if req.ResponseType != "code" {
		return nil, oauthx.ErrUnsupportedResponseType
	}
	if req.CodeChallenge == "" {
		return nil, oauthx.InvalidRequest("Missing code_challenge")
	}
	if req.CodeChallengeMethod != oauthx.CodeChallengeMethodS256 {
		return nil, oauthx.InvalidRequest("code_challenge_method must be S256")
	}
	if !oauthx.ValidateFormat(req.CodeChallenge) {
		return nil, oauthx.InvalidRequest("Invalid code_challenge format")
	}

	known, err := s.Clients.IsKnownClientID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, oauthx.ErrUnauthorizedClient
	}

	if ok, err := s.redirectURIAllowed(ctx, req.ClientID, req.RedirectURI); err != nil {
		return nil, err
	} else if !ok {
		l.Warn("rejected redirect_uri", "client_id", req.ClientID, "redirect_uri", req.RedirectURI)
		return nil, oauthx.InvalidRequest("Unauthorized redirect_uri")
	}

	// Valid request, unauthenticated session: hand back to the login
	// challenge. The original request URL is replayed after credential entry.
	if !req.Authenticated {
		return nil, ErrLoginRequired
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	now := time.Now().UTC()
	record := domain.AuthorizationCode{
		Code:                code,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		Scope:               req.Scope,
		CreatedAt:           now,
		ExpiresAt:           now.Add(ttl),
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		l.Error("failed to persist authorization code", "error", err, "client_id", req.ClientID)
		return nil, err
	}

	l.Info("authorization code issued", "client_id", req.ClientID)

	return &AuthorizeResult{
		Code:        code,
		RedirectURI: req.RedirectURI,
		State:       req.State,
	}, nil
}

// redirectURIAllowed branches on client identity: the static client matches
// by configured prefix, dynamic clients by exact membership in their
// registered set.
func (s *AuthorizeService) redirectURIAllowed(ctx context.Context, clientID, redirectURI string) (bool, error) {
	if clientID == s.Clients.StaticClientID {
		for _, prefix := range s.AllowedRedirectPrefixes {
			if strings.HasPrefix(redirectURI, prefix) {
				return true, nil
			}
		}
		return false, nil
	}

	client, found, err := s.Clients.Lookup(ctx, clientID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return slices.Contains(client.RedirectURIs, redirectURI), nil
}
