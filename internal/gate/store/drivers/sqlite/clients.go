package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
)

type clientsRepo struct {
	db *sql.DB
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, secret, name, redirect_uris, auth_method, grant_types, response_types, scope, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Secret,
		c.Name,
		joinURIs(c.RedirectURIs),
		c.AuthMethod,
		joinFields(c.GrantTypes),
		joinFields(c.ResponseTypes),
		c.Scope,
		createdAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, secret, name, redirect_uris, auth_method, grant_types, response_types, scope, created_at
		FROM clients
		WHERE id = ?`,
		id,
	)

	var (
		c            domain.Client
		redirectURIs string
		grantTypes   string
		responseTyps string
	)
	err := row.Scan(&c.ID, &c.Secret, &c.Name, &redirectURIs, &c.AuthMethod, &grantTypes, &responseTyps, &c.Scope, &c.CreatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}

	c.RedirectURIs = splitURIs(redirectURIs)
	c.GrantTypes = splitFields(grantTypes)
	c.ResponseTypes = splitFields(responseTyps)
	return c, nil
}
