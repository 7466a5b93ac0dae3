package service

import (
	"context"
	"testing"
	"time"

	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/stretchr/testify/require"
)

func newTestAuthorizeService(t *testing.T) *AuthorizeService {
	t.Helper()

	st := newTestStore(t)
	return &AuthorizeService{
		Store:                   st,
		Clients:                 newTestClientService(st),
		AllowedRedirectPrefixes: []string{"https://claude.ai/", "http://localhost:"},
	}
}

func validAuthorizeRequest() AuthorizeRequest {
	return AuthorizeRequest{
		ResponseType:        "code",
		ClientID:            testStaticClientID,
		RedirectURI:         "https://claude.ai/callback",
		CodeChallenge:       oauthx.ChallengeS256("a-perfectly-reasonable-code-verifier-value-1"),
		CodeChallengeMethod: "S256",
		State:               "xyz",
		Authenticated:       true,
	}
}

func TestAuthorizeValidationOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthorizeService(t)

	t.Run("missing client_id", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.ClientID = ""
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("missing redirect_uri", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.RedirectURI = ""
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("wrong response_type", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.ResponseType = "token"
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeUnsupportedResponseType)
	})

	t.Run("missing code_challenge", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.CodeChallenge = ""
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("plain method rejected", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.CodeChallengeMethod = "plain"
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("malformed code_challenge", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.CodeChallenge = "too-short"
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("unknown client", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.ClientID = "mcp-client-unknown"
		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeUnauthorizedClient)
	})
}

func TestAuthorizeRedirectURIPolicy(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthorizeService(t)

	t.Run("static client matches by prefix", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.RedirectURI = "https://claude.ai/api/mcp/auth_callback"

		result, err := svc.Authorize(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, result.Code)
		require.Equal(t, req.RedirectURI, result.RedirectURI)
	})

	t.Run("static client localhost prefix matches any port", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.RedirectURI = "http://localhost:33418/cb"

		_, err := svc.Authorize(ctx, req)
		require.NoError(t, err)
	})

	t.Run("static client off-prefix rejected", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.RedirectURI = "https://evil.example/cb"

		_, err := svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})

	t.Run("dynamic client requires exact match", func(t *testing.T) {
		registered, err := svc.Clients.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs: []string{"http://localhost:9999/cb"},
		})
		require.NoError(t, err)

		req := validAuthorizeRequest()
		req.ClientID = registered.ID
		req.RedirectURI = "http://localhost:9999/cb"
		_, err = svc.Authorize(ctx, req)
		require.NoError(t, err)

		// A prefix of a registered URI is not enough.
		req.RedirectURI = "http://localhost:9999/cb/extra"
		_, err = svc.Authorize(ctx, req)
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRequest)
	})
}

func TestAuthorizeAuthenticationBranch(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthorizeService(t)

	t.Run("unauthenticated session yields login challenge", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.Authenticated = false

		_, err := svc.Authorize(ctx, req)
		require.ErrorIs(t, err, ErrLoginRequired)
	})

	t.Run("authenticated session issues a persisted single-use code", func(t *testing.T) {
		req := validAuthorizeRequest()
		req.Scope = "mcp:read"

		result, err := svc.Authorize(ctx, req)
		require.NoError(t, err)
		require.Len(t, result.Code, 43) // 32 bytes base64url
		require.Equal(t, "xyz", result.State)

		stored, err := svc.Store.AuthorizationCodes().GetAuthorizationCode(ctx, result.Code)
		require.NoError(t, err)
		require.Equal(t, testStaticClientID, stored.ClientID)
		require.Equal(t, req.CodeChallenge, stored.CodeChallenge)
		require.Equal(t, "mcp:read", stored.Scope)
		require.WithinDuration(t, stored.CreatedAt.Add(DefaultCodeTTL), stored.ExpiresAt, time.Second)
	})
}
