package ports

import (
	"context"
	"time"

	"showingcover/contexts/billing/subscription-service/domain/entities"
)

type Clock interface {
	Now() time.Time
}

// SubscriberStore reads and conditionally writes the subscription fields of
// a user profile. Implementations return ErrSubscriberNotFound for unknown
// users and ErrNotAgent when the profile role cannot hold a subscription.
type SubscriberStore interface {
	GetSubscriber(ctx context.Context, userID string) (entities.Subscriber, error)
	// ApplySnapshot writes the snapshot unless a strictly newer authoritative
	// event was already applied. It reports whether the row changed.
	ApplySnapshot(ctx context.Context, snapshot entities.SubscriptionSnapshot, occurredAt time.Time, now time.Time) (bool, error)
	// MarkCancelled writes an optimistic cancelled status while the stored
	// subscription id still matches and is active.
	MarkCancelled(ctx context.Context, userID string, subscriptionID string, now time.Time) (bool, error)
}

type CheckoutRequest struct {
	Mode     entities.CheckoutMode
	UserID   string
	Email    string
	Metadata map[string]string
}

type PaymentProcessor interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (entities.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// ParseEvent verifies the webhook signature and translates the payload.
	ParseEvent(payload []byte, signature string) (entities.ProcessorEvent, error)
}

// PolicyOrder asks the coverage ledger for a single-showing policy paid by
// one processor event.
type PolicyOrder struct {
	UserID          string
	PropertyAddress string
	SourceEventID   string
}

type PolicyIssuer interface {
	IssueSinglePolicy(ctx context.Context, order PolicyOrder) (string, error)
}

// EventDedup guards effects that are not idempotent on their own.
// Reserve returns false when the event id was already reserved.
type EventDedup interface {
	Reserve(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, eventID string) error
}
