package ports

import (
	"context"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
)

type Repository interface {
	AppendAuditEntry(ctx context.Context, entry entities.AuditEntry) error
	ListRecentAuditEntries(ctx context.Context, limit int) ([]entities.AuditEntry, error)
	AppendNote(ctx context.Context, note entities.AdminNote) error
	ListNotes(ctx context.Context, resourceType string, resourceID string) ([]entities.AdminNote, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseBody []byte, at time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
