package entities

import "time"

const RoleAgent = "agent"

type SubscriptionStatus string

const (
	StatusNone      SubscriptionStatus = "none"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
)

const (
	SyncConfirmed  = "confirmed"
	SyncOptimistic = "optimistic"
)

// Subscriber is the billing view of a user profile.
type Subscriber struct {
	UserID         string
	Email          string
	Role           string
	Status         SubscriptionStatus
	SubscriptionID string
	Sync           string
}

func (s Subscriber) IsAgent() bool {
	return s.Role == RoleAgent
}

// CheckoutMode mirrors the processor's checkout modes.
type CheckoutMode string

const (
	CheckoutSubscription CheckoutMode = "subscription"
	CheckoutPayment      CheckoutMode = "payment"
)

type CheckoutSession struct {
	SessionID string
	URL       string
	Mode      CheckoutMode
	CreatedAt time.Time
}
