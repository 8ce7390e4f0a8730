package ports

import (
	"context"
	"time"

	"showingcover/contexts/coverage/policy-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Repository is the write/read boundary for the policies table.
// CreatePolicy returns the existing row and false when a policy with the same
// source event id was already stored.
type Repository interface {
	CreatePolicy(ctx context.Context, policy entities.Policy) (entities.Policy, bool, error)
	GetPolicy(ctx context.Context, policyID string) (entities.Policy, error)
	ListPoliciesByUser(ctx context.Context, userID string) ([]entities.Policy, error)
	ListPoliciesByIDs(ctx context.Context, policyIDs []string) ([]entities.Policy, error)
	ListAllPolicies(ctx context.Context) ([]entities.Policy, error)
}

// SubscriptionLookup reads the owner's current subscription status.
type SubscriptionLookup interface {
	SubscriptionStatus(ctx context.Context, userID string) (string, error)
}

// OwnerDirectory resolves owner emails for the admin listing.
type OwnerDirectory interface {
	OwnerEmails(ctx context.Context, userIDs []string) (map[string]string, error)
}

// ClaimCounter returns claim counts keyed by policy id.
type ClaimCounter interface {
	CountClaimsByPolicy(ctx context.Context, policyIDs []string) (map[string]int, error)
}
