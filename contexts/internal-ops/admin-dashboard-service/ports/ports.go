package ports

import (
	"context"
	"time"

	"showingcover/contexts/internal-ops/admin-dashboard-service/domain/entities"
)

type RoleCount struct {
	Role               string
	SubscriptionStatus string
	Count              int
}

type ProfileStats interface {
	CountProfilesByRole(ctx context.Context) ([]RoleCount, error)
}

// PolicyStats counts policies by derived status.
type PolicyStats interface {
	CountPoliciesByStatus(ctx context.Context) (map[string]int, error)
}

type ClaimStats interface {
	CountClaimsByStatus(ctx context.Context) (map[string]int, error)
}

type AuditFeed interface {
	RecentActions(ctx context.Context, limit int) ([]entities.RecentAction, error)
}

type Clock interface {
	Now() time.Time
}
