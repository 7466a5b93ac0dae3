package service

import (
	"context"
	"strings"
	"testing"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestClientService(newTestStore(t))

	t.Run("defaults fill in grant and response types", func(t *testing.T) {
		client, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			ClientName:   "Example",
			RedirectURIs: []string{"http://localhost:9999/cb"},
		})
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(client.ID, "mcp-client-"))
		require.Len(t, strings.TrimPrefix(client.ID, "mcp-client-"), 22)
		require.NotEmpty(t, client.Secret)
		require.Equal(t, []string{"authorization_code"}, client.GrantTypes)
		require.Equal(t, []string{"code"}, client.ResponseTypes)
		require.Equal(t, domain.AuthMethodSecretBasic, client.AuthMethod)
	})

	t.Run("public clients get no secret", func(t *testing.T) {
		client, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs:            []string{"http://localhost:9999/cb"},
			TokenEndpointAuthMethod: domain.AuthMethodNone,
		})
		require.NoError(t, err)
		require.Empty(t, client.Secret)
		require.True(t, client.Public())
	})

	t.Run("authorization_code grant requires redirect_uris", func(t *testing.T) {
		_, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			GrantTypes: []string{"authorization_code"},
		})
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRedirectURI)
	})

	t.Run("relative redirect_uri rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs: []string{"/cb"},
		})
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidRedirectURI)
	})

	t.Run("unsupported auth method rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs:            []string{"http://localhost:9999/cb"},
			TokenEndpointAuthMethod: "private_key_jwt",
		})
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidClientMetadata)
	})

	t.Run("unsupported grant type rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs: []string{"http://localhost:9999/cb"},
			GrantTypes:   []string{"client_credentials"},
		})
		requireOAuthError(t, err, oauthx.ErrorCodeInvalidClientMetadata)
	})

	t.Run("registered client is retrievable", func(t *testing.T) {
		created, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
			RedirectURIs: []string{"https://app.example/cb"},
		})
		require.NoError(t, err)

		got, found, err := svc.Lookup(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, created.Secret, got.Secret)
		require.Equal(t, created.RedirectURIs, got.RedirectURIs)
	})
}

func TestIsKnownClientID(t *testing.T) {
	ctx := context.Background()
	svc := newTestClientService(newTestStore(t))

	registered, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
		RedirectURIs: []string{"http://localhost:9999/cb"},
	})
	require.NoError(t, err)

	known, err := svc.IsKnownClientID(ctx, testStaticClientID)
	require.NoError(t, err)
	require.True(t, known)

	known, err = svc.IsKnownClientID(ctx, registered.ID)
	require.NoError(t, err)
	require.True(t, known)

	known, err = svc.IsKnownClientID(ctx, "mcp-client-unknown")
	require.NoError(t, err)
	require.False(t, known)
}

func TestValidateCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestClientService(newTestStore(t))

	registered, err := svc.Register(ctx, oauthx.ClientRegistrationRequest{
		RedirectURIs: []string{"http://localhost:9999/cb"},
	})
	require.NoError(t, err)

	t.Run("static pair matches", func(t *testing.T) {
		ok, err := svc.ValidateCredentials(ctx, testStaticClientID, testStaticClientSecret)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("static pair with wrong secret fails", func(t *testing.T) {
		ok, err := svc.ValidateCredentials(ctx, testStaticClientID, "wrong")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("registered client secret matches", func(t *testing.T) {
		ok, err := svc.ValidateCredentials(ctx, registered.ID, registered.Secret)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("unknown client fails", func(t *testing.T) {
		ok, err := svc.ValidateCredentials(ctx, "mcp-client-unknown", "whatever")
		require.NoError(t, err)
		require.False(t, ok)
	})
}
