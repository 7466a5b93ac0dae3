package store

import (
	"context"
	"errors"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres if we ever outgrow a single file) implement this. Sub-repositories
// keep the concerns separated and individually mockable.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Clients interface {
	// CreateClient inserts a newly registered client. Client records are
	// immutable after creation.
	CreateClient(ctx context.Context, c domain.Client) error

	// GetClientByID fetches a client by its identifier. Absence is reported
	// as ErrNotFound and is a normal outcome, not a fault.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted authorization code.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCode fetches a code by value without consuming it.
	// Expiry is evaluated against the database clock at read time; expired
	// codes are reported as ErrNotFound.
	GetAuthorizationCode(ctx context.Context, code string) (domain.AuthorizationCode, error)

	// ConsumeAuthorizationCode atomically deletes the code and returns the
	// deleted row. The second return is false when the code was absent or
	// expired. A single DELETE...RETURNING closes the window in which two
	// concurrent redemptions could both observe the same live code.
	ConsumeAuthorizationCode(ctx context.Context, code string) (domain.AuthorizationCode, bool, error)

	// DeleteAuthorizationCode removes a code. Deleting an absent code is
	// not an error.
	DeleteAuthorizationCode(ctx context.Context, code string) error

	// DeleteExpiredAuthorizationCodes is housekeeping; expiry is already
	// enforced at read time.
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

type AuditEvents interface {
	// CreateAuditEvent appends an audit record.
	CreateAuditEvent(ctx context.Context, ev domain.AuditEvent) error

	// ListRecentAuditEvents returns up to limit events, newest first.
	ListRecentAuditEvents(ctx context.Context, limit int) ([]domain.AuditEvent, error)

	// DeleteAuditEventsBefore removes events created before the cutoff.
	DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error
}
