package domain

import "time"

// Token endpoint authentication methods accepted at registration (RFC 7591).
const (
	AuthMethodSecretPost  = "client_secret_post"
	AuthMethodSecretBasic = "client_secret_basic"
	AuthMethodNone        = "none"
)

// Client is a dynamically registered OAuth client. Records are immutable
// after creation; there is no update or revocation path.
type Client struct {
	ID            string
	Secret        string // empty for public clients (auth method "none")
	Name          string
	RedirectURIs  []string
	AuthMethod    string
	GrantTypes    []string
	ResponseTypes []string
	Scope         string
	CreatedAt     time.Time
}

// Public reports whether the client authenticates without a secret.
func (c Client) Public() bool {
	return c.AuthMethod == AuthMethodNone
}
