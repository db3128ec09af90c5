package httpapi

import (
	"context"

	"github.com/google/uuid"
)

// audit records a mutation best-effort; failures are logged, never surfaced.
func (s server) audit(ctx context.Context, actorType string, actorID uuid.UUID, action string, data map[string]any) {
	_, err := s.db.Exec(ctx, `
		insert into audit_logs (actor_type, actor_id, action, data)
		values ($1, $2, $3, $4)
	`, actorType, actorID, action, data)
	if err != nil {
		logError(ctx, "audit insert failed", err)
	}
}
