package services

import (
	"showingcover/contexts/billing/subscription-service/domain/entities"
	domainerrors "showingcover/contexts/billing/subscription-service/domain/errors"
)

// CanSubscribe checks the local preconditions for starting a subscription
// checkout.
func CanSubscribe(subscriber entities.Subscriber) error {
	if !subscriber.IsAgent() {
		return domainerrors.ErrNotAgent
	}
	if subscriber.Status == entities.StatusActive {
		return domainerrors.ErrAlreadyActive
	}
	return nil
}

func CanCancel(subscriber entities.Subscriber) error {
	if !subscriber.IsAgent() {
		return domainerrors.ErrNotAgent
	}
	if subscriber.SubscriptionID == "" || subscriber.Status != entities.StatusActive {
		return domainerrors.ErrNoActiveSubscription
	}
	return nil
}

// SnapshotStatus maps a processor subscription status onto the local
// subscription status. The second result is false for states that carry no
// decision yet, such as an incomplete first payment.
func SnapshotStatus(processorStatus string) (entities.SubscriptionStatus, bool) {
	switch processorStatus {
	case "active", "trialing", "past_due":
		return entities.StatusActive, true
	case "canceled", "unpaid", "incomplete_expired", "paused":
		return entities.StatusCancelled, true
	default:
		return "", false
	}
}
