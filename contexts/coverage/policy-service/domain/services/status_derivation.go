package services

import (
	"time"

	"showingcover/contexts/coverage/policy-service/domain/entities"
)

// ExpiryDate returns created_at plus the coverage window.
func ExpiryDate(createdAt time.Time) time.Time {
	return createdAt.UTC().Add(entities.CoverageWindow)
}

// DeriveStatus projects the stored status at instant now. A stored active
// policy is active strictly before its expiry date and expired from it on.
func DeriveStatus(stored entities.Status, createdAt time.Time, now time.Time) (entities.DerivedStatus, time.Time) {
	expiry := ExpiryDate(createdAt)
	switch stored {
	case entities.StatusActive:
		if now.UTC().Before(expiry) {
			return entities.DerivedActive, expiry
		}
		return entities.DerivedExpired, expiry
	case entities.StatusCancelled:
		return entities.DerivedCancelled, expiry
	default:
		return entities.DerivedPending, expiry
	}
}

// InitialStatus picks the stored status for a new policy. Single coverage is
// paid up front; subscription coverage mirrors the owner's subscription.
func InitialStatus(coverage entities.CoverageType, ownerSubscriptionStatus string) entities.Status {
	if coverage == entities.CoverageSingle {
		return entities.StatusActive
	}
	switch ownerSubscriptionStatus {
	case "active":
		return entities.StatusActive
	case "cancelled":
		return entities.StatusCancelled
	default:
		return entities.StatusPending
	}
}
