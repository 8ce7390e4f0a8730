package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showingcover/contexts/billing/subscription-service/domain/entities"
	domainerrors "showingcover/contexts/billing/subscription-service/domain/errors"
	"showingcover/contexts/billing/subscription-service/domain/services"
	"showingcover/contexts/billing/subscription-service/ports"
)

const module = "billing/subscription-service"

type CancelResult struct {
	SubscriptionID string
	Status         entities.SubscriptionStatus
	Sync           string
	// Applied is false when an authoritative event changed the row between
	// the processor call and the local write.
	Applied bool
}

type Service struct {
	Subscribers ports.SubscriberStore
	Processor   ports.PaymentProcessor
	Policies    ports.PolicyIssuer
	Dedup       ports.EventDedup
	Clock       ports.Clock
	DedupTTL    time.Duration
	Logger      *slog.Logger
}

// Subscribe starts a subscription checkout for an agent without an active
// subscription and returns the processor redirect.
func (s Service) Subscribe(ctx context.Context, userID string) (entities.CheckoutSession, error) {
	subscriber, err := s.loadSubscriber(ctx, userID)
	if err != nil {
		return entities.CheckoutSession{}, err
	}
	if err := services.CanSubscribe(subscriber); err != nil {
		return entities.CheckoutSession{}, err
	}

	session, err := s.Processor.CreateCheckout(ctx, ports.CheckoutRequest{
		Mode:     entities.CheckoutSubscription,
		UserID:   subscriber.UserID,
		Email:    subscriber.Email,
		Metadata: map[string]string{"user_id": subscriber.UserID},
	})
	if err != nil {
		s.logger().Error("subscription checkout failed",
			"event", "subscription_checkout_failed",
			"module", module,
			"layer", "application",
			"user_id", subscriber.UserID,
			"error", err.Error(),
		)
		return entities.CheckoutSession{}, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}

	s.logger().Info("subscription checkout started",
		"event", "subscription_checkout_started",
		"module", module,
		"layer", "application",
		"user_id", subscriber.UserID,
		"session_id", session.SessionID,
	)
	return session, nil
}

// StartPolicyCheckout starts a one-time payment checkout for a single
// showing policy. The policy is created when the completed payment arrives.
func (s Service) StartPolicyCheckout(ctx context.Context, userID string, propertyAddress string) (entities.CheckoutSession, error) {
	address := strings.TrimSpace(propertyAddress)
	if address == "" {
		return entities.CheckoutSession{}, domainerrors.ErrInvalidRequest
	}
	subscriber, err := s.loadSubscriber(ctx, userID)
	if err != nil {
		return entities.CheckoutSession{}, err
	}

	session, err := s.Processor.CreateCheckout(ctx, ports.CheckoutRequest{
		Mode:   entities.CheckoutPayment,
		UserID: subscriber.UserID,
		Email:  subscriber.Email,
		Metadata: map[string]string{
			"user_id":          subscriber.UserID,
			"property_address": address,
			"coverage_type":    "single",
		},
	})
	if err != nil {
		s.logger().Error("policy checkout failed",
			"event", "policy_checkout_failed",
			"module", module,
			"layer", "application",
			"user_id", subscriber.UserID,
			"error", err.Error(),
		)
		return entities.CheckoutSession{}, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}
	return session, nil
}

// Cancel cancels the agent's subscription at the processor and then writes
// an optimistic cancelled status locally.
func (s Service) Cancel(ctx context.Context, userID string) (CancelResult, error) {
	subscriber, err := s.loadSubscriber(ctx, userID)
	if err != nil {
		return CancelResult{}, err
	}
	if err := services.CanCancel(subscriber); err != nil {
		return CancelResult{}, err
	}

	if err := s.Processor.CancelSubscription(ctx, subscriber.SubscriptionID); err != nil {
		s.logger().Error("subscription cancel failed at processor",
			"event", "subscription_cancel_failed",
			"module", module,
			"layer", "application",
			"user_id", subscriber.UserID,
			"subscription_id", subscriber.SubscriptionID,
			"error", err.Error(),
		)
		return CancelResult{}, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}

	applied, err := s.Subscribers.MarkCancelled(ctx, subscriber.UserID, subscriber.SubscriptionID, s.now())
	if err != nil {
		return CancelResult{}, err
	}
	if !applied {
		s.logger().Warn("optimistic cancel skipped after concurrent update",
			"event", "subscription_optimistic_cancel_skipped",
			"module", module,
			"layer", "application",
			"user_id", subscriber.UserID,
			"subscription_id", subscriber.SubscriptionID,
		)
	}

	s.logger().Info("subscription cancelled",
		"event", "subscription_cancelled",
		"module", module,
		"layer", "application",
		"user_id", subscriber.UserID,
		"subscription_id", subscriber.SubscriptionID,
		"optimistic_applied", applied,
	)
	return CancelResult{
		SubscriptionID: subscriber.SubscriptionID,
		Status:         entities.StatusCancelled,
		Sync:           entities.SyncOptimistic,
		Applied:        applied,
	}, nil
}

// HandleWebhook verifies a raw processor delivery and applies it.
func (s Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (entities.ProcessorEvent, entities.Outcome, error) {
	if strings.TrimSpace(signature) == "" {
		return entities.ProcessorEvent{}, "", domainerrors.ErrInvalidSignature
	}
	event, err := s.Processor.ParseEvent(payload, signature)
	if err != nil {
		s.logger().Warn("webhook rejected",
			"event", "payment_webhook_rejected",
			"module", module,
			"layer", "application",
			"error", err.Error(),
		)
		return entities.ProcessorEvent{}, "", fmt.Errorf("%w: %v", domainerrors.ErrInvalidSignature, err)
	}
	outcome, err := s.ApplyProcessorEvent(ctx, event)
	return event, outcome, err
}

// ApplyProcessorEvent is the authoritative write path. Errors are returned
// only when a retry by the processor could succeed.
func (s Service) ApplyProcessorEvent(ctx context.Context, event entities.ProcessorEvent) (entities.Outcome, error) {
	switch event.Kind {
	case entities.EventSubscriptionSnapshot:
		return s.applySnapshot(ctx, event)
	case entities.EventPaymentCompleted:
		return s.issuePolicy(ctx, event)
	default:
		s.logger().Debug("processor event ignored",
			"event", "payment_event_ignored",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"event_type", event.Type,
		)
		return entities.OutcomeIgnored, nil
	}
}

func (s Service) applySnapshot(ctx context.Context, event entities.ProcessorEvent) (entities.Outcome, error) {
	snapshot := event.Subscription
	if strings.TrimSpace(snapshot.UserID) == "" {
		s.logger().Warn("subscription event without user reference",
			"event", "subscription_event_unattributed",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"event_type", event.Type,
		)
		return entities.OutcomeIgnored, nil
	}

	applied, err := s.Subscribers.ApplySnapshot(ctx, snapshot, event.OccurredAt, s.now())
	switch {
	case errors.Is(err, domainerrors.ErrNotAgent), errors.Is(err, domainerrors.ErrSubscriberNotFound):
		s.logger().Warn("subscription event ignored for non-agent user",
			"event", "subscription_event_role_mismatch",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"user_id", snapshot.UserID,
			"error", err.Error(),
		)
		return entities.OutcomeIgnored, nil
	case err != nil:
		s.logger().Error("subscription snapshot apply failed",
			"event", "subscription_snapshot_apply_failed",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"user_id", snapshot.UserID,
			"error", err.Error(),
		)
		return "", err
	}
	if !applied {
		s.logger().Info("stale subscription event skipped",
			"event", "subscription_event_stale",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"user_id", snapshot.UserID,
			"occurred_at", event.OccurredAt.UTC().Format(time.RFC3339),
		)
		return entities.OutcomeStale, nil
	}

	s.logger().Info("subscription snapshot applied",
		"event", "subscription_snapshot_applied",
		"module", module,
		"layer", "application",
		"event_id", event.EventID,
		"user_id", snapshot.UserID,
		"subscription_id", snapshot.SubscriptionID,
		"status", string(snapshot.Status),
	)
	return entities.OutcomeApplied, nil
}

func (s Service) issuePolicy(ctx context.Context, event entities.ProcessorEvent) (entities.Outcome, error) {
	payment := event.Payment
	if strings.TrimSpace(payment.UserID) == "" || strings.TrimSpace(payment.PropertyAddress) == "" {
		s.logger().Warn("payment event missing policy metadata",
			"event", "payment_event_unattributed",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
		)
		return entities.OutcomeIgnored, nil
	}

	reserved, err := s.Dedup.Reserve(ctx, event.EventID, s.dedupTTL())
	if err != nil {
		return "", err
	}
	if !reserved {
		s.logger().Info("duplicate payment event skipped",
			"event", "payment_event_duplicate",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
		)
		return entities.OutcomeDuplicate, nil
	}

	policyID, err := s.Policies.IssueSinglePolicy(ctx, ports.PolicyOrder{
		UserID:          payment.UserID,
		PropertyAddress: payment.PropertyAddress,
		SourceEventID:   event.EventID,
	})
	if err != nil {
		if releaseErr := s.Dedup.Release(ctx, event.EventID); releaseErr != nil {
			s.logger().Error("payment event reservation release failed",
				"event", "payment_event_release_failed",
				"module", module,
				"layer", "application",
				"event_id", event.EventID,
				"error", releaseErr.Error(),
			)
		}
		s.logger().Error("policy issue from payment failed",
			"event", "payment_policy_issue_failed",
			"module", module,
			"layer", "application",
			"event_id", event.EventID,
			"user_id", payment.UserID,
			"error", err.Error(),
		)
		return "", err
	}

	s.logger().Info("policy issued from payment",
		"event", "payment_policy_issued",
		"module", module,
		"layer", "application",
		"event_id", event.EventID,
		"user_id", payment.UserID,
		"policy_id", policyID,
	)
	return entities.OutcomePolicyCreated, nil
}

func (s Service) loadSubscriber(ctx context.Context, userID string) (entities.Subscriber, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.Subscriber{}, domainerrors.ErrInvalidRequest
	}
	return s.Subscribers.GetSubscriber(ctx, strings.TrimSpace(userID))
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) dedupTTL() time.Duration {
	if s.DedupTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.DedupTTL
}

func (s Service) logger() *slog.Logger {
	return ResolveLogger(s.Logger)
}
