package queries

import (
	"time"

	"showingcover/contexts/coverage/policy-service/domain/entities"
	"showingcover/contexts/coverage/policy-service/domain/services"
	"showingcover/contexts/coverage/policy-service/ports"
)

// PolicyView is a policy with its read-time projection.
type PolicyView struct {
	Policy        entities.Policy
	DerivedStatus entities.DerivedStatus
	ExpiresAt     time.Time
}

type AdminPolicyView struct {
	PolicyView
	OwnerEmail string
	ClaimCount int
}

func project(policy entities.Policy, now time.Time) PolicyView {
	status, expiry := services.DeriveStatus(policy.Status, policy.CreatedAt, now)
	return PolicyView{
		Policy:        policy,
		DerivedStatus: status,
		ExpiresAt:     expiry,
	}
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
