package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
)

type authorizationCodesRepo struct {
	db *sql.DB
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes (code, client_id, redirect_uri, code_challenge, code_challenge_method, scope, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		code.Code,
		code.ClientID,
		code.RedirectURI,
		code.CodeChallenge,
		code.CodeChallengeMethod,
		code.Scope,
		code.CreatedAt,
		code.ExpiresAt,
	)
	return err
}

func (r *authorizationCodesRepo) GetAuthorizationCode(ctx context.Context, code string) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, client_id, redirect_uri, code_challenge, code_challenge_method, scope, created_at, expires_at
		FROM authorization_codes
		WHERE code = ? AND expires_at > ?`,
		code,
		time.Now().UTC(),
	)
	return scanAuthorizationCode(row)
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, code string) (domain.AuthorizationCode, bool, error) {
	// Single-statement delete-and-return. Two concurrent redemptions of the
	// same code cannot both see a row here; the loser observes zero rows.
	row := r.db.QueryRowContext(ctx, `
		DELETE FROM authorization_codes
		WHERE code = ? AND expires_at > ?
		RETURNING code, client_id, redirect_uri, code_challenge, code_challenge_method, scope, created_at, expires_at`,
		code,
		time.Now().UTC(),
	)

	ac, err := scanAuthorizationCode(row)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, false, nil
		}
		return domain.AuthorizationCode{}, false, err
	}
	return ac, true, nil
}

func (r *authorizationCodesRepo) DeleteAuthorizationCode(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE code = ?`, code)
	return err
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at <= ?`, time.Now().UTC())
	return err
}

func scanAuthorizationCode(row *sql.Row) (domain.AuthorizationCode, error) {
	var ac domain.AuthorizationCode
	err := row.Scan(
		&ac.Code,
		&ac.ClientID,
		&ac.RedirectURI,
		&ac.CodeChallenge,
		&ac.CodeChallengeMethod,
		&ac.Scope,
		&ac.CreatedAt,
		&ac.ExpiresAt,
	)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	return ac, nil
}
