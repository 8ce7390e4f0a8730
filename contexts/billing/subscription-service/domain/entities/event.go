package entities

import "time"

type EventKind string

const (
	// EventSubscriptionSnapshot carries the processor's full current view of
	// one subscription.
	EventSubscriptionSnapshot EventKind = "subscription_snapshot"
	// EventPaymentCompleted is a paid one-time checkout that buys a policy.
	EventPaymentCompleted EventKind = "payment_completed"
	EventIgnored          EventKind = "ignored"
)

type SubscriptionSnapshot struct {
	UserID         string
	SubscriptionID string
	Status         SubscriptionStatus
	StartedAt      *time.Time
}

type PaymentCompleted struct {
	UserID          string
	PropertyAddress string
	SessionID       string
}

// ProcessorEvent is a verified webhook event translated into billing terms.
type ProcessorEvent struct {
	EventID      string
	Type         string
	Kind         EventKind
	OccurredAt   time.Time
	Subscription SubscriptionSnapshot
	Payment      PaymentCompleted
}

// Outcome reports what ApplyProcessorEvent did with one event.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeStale         Outcome = "stale"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomePolicyCreated Outcome = "policy_created"
)
