package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
)

type auditEventsRepo struct {
	db *sql.DB
}

func (r *auditEventsRepo) CreateAuditEvent(ctx context.Context, ev domain.AuditEvent) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, kind, success, client_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Kind,
		ev.Success,
		ev.ClientID,
		ev.Detail,
		createdAt,
	)
	return err
}

func (r *auditEventsRepo) ListRecentAuditEvents(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, success, client_id, detail, created_at
		FROM audit_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.Success, &ev.ClientID, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *auditEventsRepo) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	return err
}
