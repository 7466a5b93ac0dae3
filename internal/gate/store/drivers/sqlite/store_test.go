package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "gate.db"))
	st, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	client := domain.Client{
		ID:            "mcp-client-abc123",
		Secret:        "super-secret",
		Name:          "Test Client",
		RedirectURIs:  []string{"http://localhost:9999/cb", "https://app.example/cb"},
		AuthMethod:    domain.AuthMethodSecretPost,
		GrantTypes:    []string{"authorization_code"},
		ResponseTypes: []string{"code"},
		Scope:         "mcp:read",
		CreatedAt:     time.Now().UTC(),
	}

	t.Run("create and fetch round trip", func(t *testing.T) {
		require.NoError(t, st.Clients().CreateClient(ctx, client))

		got, err := st.Clients().GetClientByID(ctx, client.ID)
		require.NoError(t, err)
		require.Equal(t, client.ID, got.ID)
		require.Equal(t, client.Secret, got.Secret)
		require.Equal(t, client.RedirectURIs, got.RedirectURIs)
		require.Equal(t, client.GrantTypes, got.GrantTypes)
		require.Equal(t, client.AuthMethod, got.AuthMethod)
	})

	t.Run("missing client yields ErrNotFound", func(t *testing.T) {
		_, err := st.Clients().GetClientByID(ctx, "mcp-client-missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate id yields ErrAlreadyExists", func(t *testing.T) {
		err := st.Clients().CreateClient(ctx, client)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestAuthorizationCodes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	newCode := func(code string, expiresAt time.Time) domain.AuthorizationCode {
		now := time.Now().UTC()
		return domain.AuthorizationCode{
			Code:                code,
			ClientID:            "mcp-client-abc123",
			RedirectURI:         "http://localhost:9999/cb",
			CodeChallenge:       "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
			CodeChallengeMethod: "S256",
			Scope:               "mcp:read",
			CreatedAt:           now,
			ExpiresAt:           expiresAt,
		}
	}

	t.Run("fetch returns a fresh code", func(t *testing.T) {
		record := newCode("code-fresh", time.Now().UTC().Add(10*time.Minute))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, record))

		got, err := st.AuthorizationCodes().GetAuthorizationCode(ctx, record.Code)
		require.NoError(t, err)
		require.Equal(t, record.ClientID, got.ClientID)
		require.Equal(t, record.CodeChallenge, got.CodeChallenge)
	})

	t.Run("expired code is absent even though never deleted", func(t *testing.T) {
		record := newCode("code-expired", time.Now().UTC().Add(-time.Second))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, record))

		_, err := st.AuthorizationCodes().GetAuthorizationCode(ctx, record.Code)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, ok, err := st.AuthorizationCodes().ConsumeAuthorizationCode(ctx, record.Code)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("consume is destructive", func(t *testing.T) {
		record := newCode("code-consume", time.Now().UTC().Add(10*time.Minute))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, record))

		got, ok, err := st.AuthorizationCodes().ConsumeAuthorizationCode(ctx, record.Code)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, record.ClientID, got.ClientID)
		require.Equal(t, record.RedirectURI, got.RedirectURI)

		_, ok, err = st.AuthorizationCodes().ConsumeAuthorizationCode(ctx, record.Code)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		record := newCode("code-delete", time.Now().UTC().Add(10*time.Minute))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, record))

		require.NoError(t, st.AuthorizationCodes().DeleteAuthorizationCode(ctx, record.Code))
		require.NoError(t, st.AuthorizationCodes().DeleteAuthorizationCode(ctx, record.Code))
	})

	t.Run("delete expired sweeps old rows", func(t *testing.T) {
		old := newCode("code-sweep-old", time.Now().UTC().Add(-time.Minute))
		fresh := newCode("code-sweep-fresh", time.Now().UTC().Add(10*time.Minute))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, old))
		require.NoError(t, st.AuthorizationCodes().CreateAuthorizationCode(ctx, fresh))

		require.NoError(t, st.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx))

		_, err := st.AuthorizationCodes().GetAuthorizationCode(ctx, fresh.Code)
		require.NoError(t, err)
	})
}

func TestAuditEvents(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		event := domain.AuditEvent{
			ID:        idx.New().String(),
			Kind:      domain.AuditTokenExchange,
			Success:   i%2 == 0,
			ClientID:  "mcp-client-abc123",
			Detail:    fmt.Sprintf("event %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.AuditEvents().CreateAuditEvent(ctx, event))
	}

	t.Run("list returns newest first with limit", func(t *testing.T) {
		events, err := st.AuditEvents().ListRecentAuditEvents(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, "event 2", events[0].Detail)
		require.Equal(t, "event 1", events[1].Detail)
	})

	t.Run("delete before cutoff prunes old events", func(t *testing.T) {
		require.NoError(t, st.AuditEvents().DeleteAuditEventsBefore(ctx, base.Add(1500*time.Millisecond)))

		events, err := st.AuditEvents().ListRecentAuditEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, "event 2", events[0].Detail)
	})
}
