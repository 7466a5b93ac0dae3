package domain

import "time"

// Audit event kinds recorded by the flows.
const (
	AuditTokenExchange  = "token.exchange"
	AuditClientRegister = "client.register"
	AuditLogin          = "login"
)

// AuditEvent is a fire-and-forget record of a security-relevant outcome.
type AuditEvent struct {
	ID        string
	Kind      string
	Success   bool
	ClientID  string
	Detail    string
	CreatedAt time.Time
}
