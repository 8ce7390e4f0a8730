package errors

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrSubscriberNotFound    = errors.New("subscriber profile not found")
	ErrNotAgent              = errors.New("subscriptions are only available to agents")
	ErrAlreadyActive         = errors.New("subscription already active")
	ErrNoActiveSubscription  = errors.New("no active subscription")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrDependencyUnavailable = errors.New("payment processor unavailable")
)
