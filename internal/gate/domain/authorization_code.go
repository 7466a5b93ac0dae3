package domain

import "time"

// AuthorizationCode is a single-use credential binding a pending token
// exchange to the client, redirect URI and PKCE challenge supplied at
// authorization time. Redemption deletes the row.
type AuthorizationCode struct {
	Code                string
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Scope               string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Expired reports whether the code is past its expiry at the given time.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
