package ports

import (
	"context"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// AuditRepository persists the session audit trail.
type AuditRepository interface {
	InsertSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}
