// Package session issues and verifies the operator login cookie. A session is
// a short HS256-signed JWT carried in an HttpOnly cookie; there is no
// server-side session table, so restarting the service invalidates nothing and
// rotating the secret invalidates everything.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the session cookie set after a successful login.
	CookieName = "gate_session"

	// DefaultTTL is how long a login remains valid before the operator has
	// to re-enter the password.
	DefaultTTL = 12 * time.Hour
)

var (
	ErrNoSession      = errors.New("session: no session cookie")
	ErrInvalidSession = errors.New("session: invalid or expired session")
)

// Claims are the session token claims. Subject is always "operator" since
// the service authenticates a single shared password, not user accounts.
type Claims struct {
	jwt.RegisteredClaims

	// AMR records how the login was performed: "pwd", optionally "otp".
	AMR []string `json:"amr,omitempty"`
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager creates a session manager. The secret must be non-empty; ttl
// falls back to DefaultTTL when zero.
func NewManager(secret []byte, issuer string, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue mints a signed session token recording the authentication methods
// used (e.g. ["pwd"] or ["pwd","otp"]).
func (m *Manager) Issue(amr []string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   "operator",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		AMR: amr,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates a session token string.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// FromRequest extracts and verifies the session from the request cookie.
// Returns ErrNoSession when the cookie is absent and ErrInvalidSession when
// it fails verification.
func (m *Manager) FromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	return m.Verify(cookie.Value)
}

// SetCookie writes the session cookie on the response. Secure is set based on
// whether the request arrived over TLS, so local plain-HTTP development still
// works.
func (m *Manager) SetCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
