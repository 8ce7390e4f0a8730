package stripeadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"showingcover/contexts/billing/subscription-service/domain/entities"
	"showingcover/contexts/billing/subscription-service/domain/services"
	"showingcover/contexts/billing/subscription-service/ports"
)

type CheckoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Subscriptions interface {
	Cancel(id string, params *stripe.SubscriptionCancelParams) (*stripe.Subscription, error)
}

type Config struct {
	SecretKey           string
	WebhookSecret       string
	SubscriptionPriceID string
	PolicyPriceID       string
	SuccessURL          string
	CancelURL           string
}

// Processor adapts the Stripe API to the billing PaymentProcessor port.
type Processor struct {
	Sessions      CheckoutSessions
	Subscriptions Subscriptions
	Config        Config
}

func NewProcessor(cfg Config) *Processor {
	api := client.New(cfg.SecretKey, nil)
	return &Processor{
		Sessions:      api.CheckoutSessions,
		Subscriptions: api.Subscriptions,
		Config:        cfg,
	}
}

func (p *Processor) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (entities.CheckoutSession, error) {
	priceID := p.Config.PolicyPriceID
	if req.Mode == entities.CheckoutSubscription {
		priceID = p.Config.SubscriptionPriceID
	}
	if priceID == "" {
		return entities.CheckoutSession{}, fmt.Errorf("no price configured for %s checkout", req.Mode)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(p.Config.SuccessURL),
		CancelURL:         stripe.String(p.Config.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	if req.Mode == entities.CheckoutSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: copyMetadata(req.Metadata),
		}
	}
	params.Context = ctx

	session, err := p.Sessions.New(params)
	if err != nil {
		return entities.CheckoutSession{}, err
	}
	return entities.CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		Mode:      req.Mode,
		CreatedAt: time.Unix(session.Created, 0).UTC(),
	}, nil
}

func (p *Processor) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := p.Subscriptions.Cancel(subscriptionID, params)
	return err
}

func (p *Processor) ParseEvent(payload []byte, signature string) (entities.ProcessorEvent, error) {
	if p.Config.WebhookSecret == "" {
		return entities.ProcessorEvent{}, errors.New("webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.Config.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return entities.ProcessorEvent{}, err
	}
	return TranslateEvent(event)
}

// TranslateEvent maps a verified Stripe event onto billing terms. Event
// types that carry no billing decision are returned as EventIgnored.
func TranslateEvent(event stripe.Event) (entities.ProcessorEvent, error) {
	out := entities.ProcessorEvent{
		EventID:    event.ID,
		Type:       string(event.Type),
		Kind:       entities.EventIgnored,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data == nil {
		return out, nil
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return entities.ProcessorEvent{}, fmt.Errorf("decode checkout session: %w", err)
		}
		translateCheckout(&out, session)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			return entities.ProcessorEvent{}, fmt.Errorf("decode subscription: %w", err)
		}
		translateSubscription(&out, subscription)
	}
	return out, nil
}

func translateCheckout(out *entities.ProcessorEvent, session stripe.CheckoutSession) {
	userID := session.Metadata["user_id"]
	if userID == "" {
		userID = session.ClientReferenceID
	}

	switch session.Mode {
	case stripe.CheckoutSessionModeSubscription:
		occurredAt := out.OccurredAt
		snapshot := entities.SubscriptionSnapshot{
			UserID:    userID,
			Status:    entities.StatusActive,
			StartedAt: &occurredAt,
		}
		if session.Subscription != nil {
			snapshot.SubscriptionID = session.Subscription.ID
		}
		out.Kind = entities.EventSubscriptionSnapshot
		out.Subscription = snapshot
	case stripe.CheckoutSessionModePayment:
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			return
		}
		out.Kind = entities.EventPaymentCompleted
		out.Payment = entities.PaymentCompleted{
			UserID:          userID,
			PropertyAddress: session.Metadata["property_address"],
			SessionID:       session.ID,
		}
	}
}

func translateSubscription(out *entities.ProcessorEvent, subscription stripe.Subscription) {
	status, ok := services.SnapshotStatus(string(subscription.Status))
	if out.Type == "customer.subscription.deleted" {
		status, ok = entities.StatusCancelled, true
	}
	if !ok {
		return
	}
	snapshot := entities.SubscriptionSnapshot{
		UserID:         subscription.Metadata["user_id"],
		SubscriptionID: subscription.ID,
		Status:         status,
	}
	if subscription.StartDate > 0 {
		started := time.Unix(subscription.StartDate, 0).UTC()
		snapshot.StartedAt = &started
	}
	out.Kind = entities.EventSubscriptionSnapshot
	out.Subscription = snapshot
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ ports.PaymentProcessor = (*Processor)(nil)
