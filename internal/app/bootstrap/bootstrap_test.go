package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	billingentities "showingcover/contexts/billing/subscription-service/domain/entities"
	billingports "showingcover/contexts/billing/subscription-service/ports"
	claimports "showingcover/contexts/coverage/claim-service/ports"
	policyentities "showingcover/contexts/coverage/policy-service/domain/entities"
	jwtadapter "showingcover/contexts/identity-access/authorization-service/adapters/jwt"
	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
	"showingcover/internal/app/bootstrap"
)

const secret = "bootstrap-test-secret"

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(_ context.Context, to string, email claimports.RenderedEmail) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+email.Subject)
	return "msg-" + to, nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type scriptedProcessor struct {
	mu    sync.Mutex
	event billingentities.ProcessorEvent
}

func (p *scriptedProcessor) next(event billingentities.ProcessorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.event = event
}

func (p *scriptedProcessor) CreateCheckout(_ context.Context, req billingports.CheckoutRequest) (billingentities.CheckoutSession, error) {
	return billingentities.CheckoutSession{SessionID: "cs_test", URL: "https://checkout.test/cs_test", CreatedAt: time.Now().UTC()}, nil
}

func (p *scriptedProcessor) CancelSubscription(context.Context, string) error {
	return nil
}

func (p *scriptedProcessor) ParseEvent([]byte, string) (billingentities.ProcessorEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.event, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, userID string, email string) string {
	t.Helper()
	token, err := jwtadapter.HMACVerifier{Secret: []byte(secret)}.Sign(authzentities.Identity{
		UserID: userID,
		Email:  email,
	}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func seed(api *bootstrap.InMemoryAPI, userID string, role authzentities.Role) {
	now := time.Now().UTC()
	api.Modules.Authorization.Store.Seed(authzentities.Profile{
		UserID:    userID,
		Email:     userID + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func post(t *testing.T, handler http.Handler, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Stripe-Signature", "t=1,v1=test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDeniedClaimNotifiesPolicyOwner(t *testing.T) {
	sender := &recordingSender{}
	api, err := bootstrap.NewInMemoryAPI(bootstrap.InMemoryOptions{
		JWTSecret: secret,
		Sender:    sender,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := api.Modules.Claims.Notifier.Start(ctx); err != nil {
		t.Fatalf("start notifier: %v", err)
	}

	seed(api, "owner-1", authzentities.RoleHomeowner)
	seed(api, "admin-1", authzentities.RoleAdmin)
	api.Modules.Policies.Store.Seed(policyentities.Policy{
		PolicyID:        "policy-1",
		UserID:          "owner-1",
		PropertyAddress: "4 Birch Ln",
		CoverageType:    policyentities.CoverageSingle,
		Status:          policyentities.StatusActive,
		CreatedAt:       time.Now().UTC().Add(-time.Hour),
	})
	handler := api.Server.Handler()

	rec := post(t, handler, "/claims", signToken(t, "owner-1", "owner-1@example.com"), map[string]any{
		"policy_id":     "policy-1",
		"incident_date": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"damaged_items": []string{"rug"},
		"description":   "mud tracked across the rug",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("file claim: %d %s", rec.Code, rec.Body.String())
	}
	var filed struct {
		Claim struct {
			ClaimID string `json:"claim_id"`
		} `json:"claim"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &filed); err != nil {
		t.Fatalf("decode claim: %v", err)
	}

	rec = post(t, handler, "/claims/"+filed.Claim.ClaimID+"/deny", signToken(t, "admin-1", "admin-1@example.com"), map[string]any{
		"reason": "pre-existing wear",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("deny claim: %d %s", rec.Code, rec.Body.String())
	}

	audit, err := api.Modules.Audit.Handler.ListAuditLogsHandler(ctx, 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(audit.Items) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.Items))
	}

	if err := api.Modules.Claims.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay outbox: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for sender.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sender.count() != 1 {
		t.Fatalf("expected one decision email, got %d", sender.count())
	}

	// A second relay pass finds nothing left to publish.
	if err := api.Modules.Claims.OutboxRelay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if sender.count() != 1 {
		t.Fatalf("expected no duplicate email, got %d", sender.count())
	}
}

func TestWebhookEventsConvergeSubscriptionState(t *testing.T) {
	processor := &scriptedProcessor{}
	api, err := bootstrap.NewInMemoryAPI(bootstrap.InMemoryOptions{
		JWTSecret: secret,
		Processor: processor,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	seed(api, "agent-1", authzentities.RoleAgent)
	handler := api.Server.Handler()
	started := time.Now().UTC().Add(-time.Hour)

	processor.next(billingentities.ProcessorEvent{
		EventID:    "evt_2",
		Type:       "customer.subscription.updated",
		Kind:       billingentities.EventSubscriptionSnapshot,
		OccurredAt: time.Now().UTC(),
		Subscription: billingentities.SubscriptionSnapshot{
			UserID:         "agent-1",
			SubscriptionID: "sub_1",
			Status:         billingentities.StatusActive,
			StartedAt:      &started,
		},
	})
	if rec := post(t, handler, "/webhooks/payments", "", map[string]any{}); rec.Code != http.StatusOK {
		t.Fatalf("active webhook: %d %s", rec.Code, rec.Body.String())
	}

	// An older cancellation delivered late must not undo the newer state.
	processor.next(billingentities.ProcessorEvent{
		EventID:    "evt_1",
		Type:       "customer.subscription.deleted",
		Kind:       billingentities.EventSubscriptionSnapshot,
		OccurredAt: time.Now().UTC().Add(-time.Minute),
		Subscription: billingentities.SubscriptionSnapshot{
			UserID:         "agent-1",
			SubscriptionID: "sub_1",
			Status:         billingentities.StatusCancelled,
		},
	})
	rec := post(t, handler, "/webhooks/payments", "", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("stale webhook: %d %s", rec.Code, rec.Body.String())
	}
	var outcome struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Outcome != string(billingentities.OutcomeStale) {
		t.Fatalf("expected stale outcome, got %q", outcome.Outcome)
	}

	profile, err := api.Modules.Authorization.Profiles.GetProfile(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.SubscriptionStatus != authzentities.SubscriptionActive || profile.SubscriptionID != "sub_1" {
		t.Fatalf("expected active sub_1, got %s %s", profile.SubscriptionStatus, profile.SubscriptionID)
	}

	payment := billingentities.ProcessorEvent{
		EventID:    "evt_pay",
		Type:       "checkout.session.completed",
		Kind:       billingentities.EventPaymentCompleted,
		OccurredAt: time.Now().UTC(),
		Payment: billingentities.PaymentCompleted{
			UserID:          "agent-1",
			PropertyAddress: "9 Oak Ct",
			SessionID:       "cs_pay",
		},
	}
	for range 2 {
		processor.next(payment)
		if rec := post(t, handler, "/webhooks/payments", "", map[string]any{}); rec.Code != http.StatusOK {
			t.Fatalf("payment webhook: %d %s", rec.Code, rec.Body.String())
		}
	}
	policies, err := api.Modules.Policies.Store.ListPoliciesByUser(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("list policies: %v", err)
	}
	if len(policies) != 1 || policies[0].PropertyAddress != "9 Oak Ct" {
		t.Fatalf("expected one policy from the paid checkout, got %+v", policies)
	}
}
