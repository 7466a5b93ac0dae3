package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/internal/gate/store/drivers/sqlite"
	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/stretchr/testify/require"
)

const (
	testStaticClientID     = "static-client"
	testStaticClientSecret = "static-secret"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "gate.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestClientService(st store.Store) *ClientService {
	return &ClientService{
		Store:              st,
		StaticClientID:     testStaticClientID,
		StaticClientSecret: testStaticClientSecret,
	}
}

// requireOAuthError asserts that err is an OAuth2 error with the given code.
func requireOAuthError(t *testing.T, err error, code string) {
	t.Helper()

	var oauthErr *oauthx.Error
	require.True(t, errors.As(err, &oauthErr), "expected *oauthx.Error, got %v", err)
	require.Equal(t, code, oauthErr.Code)
}
