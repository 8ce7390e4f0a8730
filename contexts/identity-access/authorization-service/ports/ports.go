package ports

import (
	"context"
	"time"

	"showingcover/contexts/identity-access/authorization-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// TokenVerifier validates a raw bearer token against the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (entities.Identity, error)
}

// SubscriptionSnapshot is the processor's full view of one agent subscription.
type SubscriptionSnapshot struct {
	UserID         string
	SubscriptionID string
	Status         entities.SubscriptionStatus
	StartedAt      *time.Time
	OccurredAt     time.Time
}

// RoleCount is one row of the per-role profile aggregate.
type RoleCount struct {
	Role               entities.Role
	SubscriptionStatus entities.SubscriptionStatus
	Count              int
}

// ProfileRepository is the read/write boundary for the users table.
//
// ApplySubscriptionSnapshot and MarkSubscriptionCancelled are conditional
// single-row updates; they return false when the guard did not match.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (entities.Profile, error)
	ListProfiles(ctx context.Context, userIDs []string) ([]entities.Profile, error)
	CreateProfile(ctx context.Context, profile entities.Profile) (entities.Profile, bool, error)
	ApplySubscriptionSnapshot(ctx context.Context, snapshot SubscriptionSnapshot, now time.Time) (bool, error)
	MarkSubscriptionCancelled(ctx context.Context, userID string, subscriptionID string, now time.Time) (bool, error)
	CountProfilesByRole(ctx context.Context) ([]RoleCount, error)
}
