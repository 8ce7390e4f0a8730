package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/coverage/claim-service/adapters/memory"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	"showingcover/contexts/coverage/claim-service/ports"
)

type capturePublisher struct {
	topics []string
	events []ports.EventEnvelope
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if c.err != nil {
		return c.err
	}
	c.topics = append(c.topics, topic)
	c.events = append(c.events, event)
	return nil
}

type policyDirectory map[string]entities.PolicyRef

func (p policyDirectory) GetPolicies(_ context.Context, ids []string) (map[string]entities.PolicyRef, error) {
	out := map[string]entities.PolicyRef{}
	for _, id := range ids {
		if policy, ok := p[id]; ok {
			out[id] = policy
		}
	}
	return out, nil
}

func (p policyDirectory) PoliciesOwnedBy(context.Context, string) ([]string, error) {
	return nil, nil
}

type ownerEmails map[string]string

func (o ownerEmails) OwnerEmails(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		out[id] = o[id]
	}
	return out, nil
}

type stubRenderer struct {
	templates []string
}

func (s *stubRenderer) Render(_ context.Context, template string, vars map[string]any) (ports.RenderedEmail, error) {
	s.templates = append(s.templates, template)
	return ports.RenderedEmail{Subject: template, HTML: vars["PayoutAmount"].(string)}, nil
}

type stubSender struct {
	to   []string
	sent []ports.RenderedEmail
	err  error
}

func (s *stubSender) Send(_ context.Context, to string, email ports.RenderedEmail) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.to = append(s.to, to)
	s.sent = append(s.sent, email)
	return "msg-1", nil
}

func decidedEnvelope(t *testing.T, eventID string, event ports.DecidedEvent) ports.EventEnvelope {
	t.Helper()
	event.EventID = eventID
	event.EventType = ports.ClaimDecidedEventType
	event.PartitionKey = event.ClaimID
	event.OccurredAt = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	envelope, err := event.Envelope()
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	return envelope
}

func TestOutboxRelayPublishesAndMarksSent(t *testing.T) {
	store := memory.NewStore()
	store.Seed(entities.Claim{ClaimID: "claim-1", UserID: "agent-1", Status: entities.StatusPending, MaxPayoutCents: 100000})
	payout := int64(5000)
	_, err := store.TransitionFromPending(context.Background(), ports.TransitionInput{
		ClaimID:     "claim-1",
		To:          entities.StatusApproved,
		PayoutCents: &payout,
		UpdatedAt:   time.Now().UTC(),
		Event: ports.DecidedEvent{
			EventID:      "evt-1",
			EventType:    ports.ClaimDecidedEventType,
			ClaimID:      "claim-1",
			Status:       entities.StatusApproved,
			UserID:       "agent-1",
			PayoutCents:  payout,
			PartitionKey: "claim-1",
		},
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	publisher := &capturePublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay: %v", err)
	}
	if len(publisher.events) != 1 || publisher.topics[0] != ports.ClaimDecidedEventType || publisher.events[0].EventID != "evt-1" {
		t.Fatalf("unexpected published events: %+v", publisher.events)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, %d pending", len(pending))
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("sent rows must not be republished")
	}
}

func TestOutboxRelayKeepsRowOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	store.Seed(entities.Claim{ClaimID: "claim-1", UserID: "agent-1", Status: entities.StatusPending, MaxPayoutCents: 100})
	if _, err := store.TransitionFromPending(context.Background(), ports.TransitionInput{
		ClaimID: "claim-1",
		To:      entities.StatusDenied,
		Event:   ports.DecidedEvent{EventID: "evt-1", EventType: ports.ClaimDecidedEventType, ClaimID: "claim-1", Status: entities.StatusDenied},
	}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	relay := OutboxRelay{Outbox: store, Publisher: &capturePublisher{err: errors.New("broker down")}}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish error")
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("row must stay pending for retry, got %d", len(pending))
	}
}

func TestDecisionNotifierEmailsPolicyOwner(t *testing.T) {
	store := memory.NewStore()
	renderer := &stubRenderer{}
	sender := &stubSender{}
	notifier := DecisionNotifier{
		Dedup:    store,
		Policies: policyDirectory{"pol-1": {PolicyID: "pol-1", UserID: "home-1", Active: true}},
		Owners:   ownerEmails{"home-1": "home@example.com"},
		Renderer: renderer,
		Sender:   sender,
	}

	envelope := decidedEnvelope(t, "evt-1", ports.DecidedEvent{
		ClaimID:     "claim-1",
		Status:      entities.StatusApproved,
		PolicyID:    "pol-1",
		PayoutCents: 100000,
	})
	if err := notifier.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "home@example.com" {
		t.Fatalf("expected email to policy owner, got %v", sender.to)
	}
	if renderer.templates[0] != TemplateClaimApproved || sender.sent[0].HTML != "1000.00" {
		t.Fatalf("unexpected render: %v %+v", renderer.templates, sender.sent)
	}

	if err := notifier.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(sender.to) != 1 {
		t.Fatalf("redelivered event must not send twice, got %d", len(sender.to))
	}
}

func TestDecisionNotifierSwallowsFailures(t *testing.T) {
	renderer := &stubRenderer{}
	sender := &stubSender{err: errors.New("provider down")}
	notifier := DecisionNotifier{
		Owners:   ownerEmails{"agent-1": "agent@example.com"},
		Renderer: renderer,
		Sender:   sender,
	}

	denied := decidedEnvelope(t, "evt-2", ports.DecidedEvent{ClaimID: "claim-2", Status: entities.StatusDenied, UserID: "agent-1", Reason: "fraud"})
	if err := notifier.Handle(context.Background(), denied); err != nil {
		t.Fatalf("send failure must be swallowed: %v", err)
	}
	if renderer.templates[0] != TemplateClaimDenied {
		t.Fatalf("expected denied template, got %v", renderer.templates)
	}

	orphan := decidedEnvelope(t, "evt-3", ports.DecidedEvent{ClaimID: "claim-3", Status: entities.StatusApproved, PolicyID: "pol-gone"})
	notifier.Policies = policyDirectory{}
	if err := notifier.Handle(context.Background(), orphan); err != nil {
		t.Fatalf("unresolved owner must be swallowed: %v", err)
	}
	if len(renderer.templates) != 1 {
		t.Fatalf("unresolved owner must not render, got %v", renderer.templates)
	}
}
