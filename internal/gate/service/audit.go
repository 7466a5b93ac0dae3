package service

import (
	"context"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/domain"
	"github.com/mcpgate/mcpgate/internal/gate/store"
	"github.com/mcpgate/mcpgate/pkg/idx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// AuditService records security-relevant events. Recording is fire-and-forget:
// a storage failure is logged and never propagates to the caller's flow.
type AuditService struct {
	Store store.Store
}

// Record persists an audit event. clientID and detail may be empty.
func (s *AuditService) Record(ctx context.Context, kind string, success bool, clientID, detail string) {
	if s == nil || s.Store == nil {
		return
	}

	event := domain.AuditEvent{
		ID:        idx.New().String(),
		Kind:      kind,
		Success:   success,
		ClientID:  clientID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.Store.AuditEvents().CreateAuditEvent(ctx, event); err != nil {
		slogx.FromContext(ctx).Error("failed to record audit event",
			"error", err,
			"kind", kind,
			"client_id", clientID,
		)
	}
}
