package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	m, err := NewManager([]byte("test-secret"), "http://localhost:8080", time.Hour)
	require.NoError(t, err)

	token, err := m.Issue([]string{"pwd"}, time.Now().UTC())
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "operator", claims.Subject)
	require.Equal(t, []string{"pwd"}, claims.AMR)
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	m, err := NewManager([]byte("test-secret"), "http://localhost:8080", time.Hour)
	require.NoError(t, err)

	other, err := NewManager([]byte("different-secret"), "http://localhost:8080", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue([]string{"pwd"}, time.Now().UTC())
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	m, err := NewManager([]byte("test-secret"), "http://localhost:8080", time.Minute)
	require.NoError(t, err)

	// Issued far enough in the past that leeway cannot save it.
	token, err := m.Issue([]string{"pwd"}, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = m.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	m, err := NewManager([]byte("test-secret"), "http://localhost:8080", time.Hour)
	require.NoError(t, err)

	t.Run("no cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := m.FromRequest(r)
		require.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("valid cookie round trip", func(t *testing.T) {
		token, err := m.Issue([]string{"pwd"}, time.Now().UTC())
		require.NoError(t, err)

		w := httptest.NewRecorder()
		m.SetCookie(w, httptest.NewRequest(http.MethodGet, "/", nil), token)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}

		claims, err := m.FromRequest(r)
		require.NoError(t, err)
		require.Equal(t, "operator", claims.Subject)
	})
}
