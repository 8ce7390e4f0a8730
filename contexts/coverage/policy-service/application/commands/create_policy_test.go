package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/coverage/policy-service/adapters/memory"
	"showingcover/contexts/coverage/policy-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type stubSubscriptions map[string]string

func (s stubSubscriptions) SubscriptionStatus(_ context.Context, userID string) (string, error) {
	return s[userID], nil
}

func newUseCase(store *memory.Store) CreatePolicyUseCase {
	return CreatePolicyUseCase{
		Policies:      store,
		Subscriptions: stubSubscriptions{"agent-1": "active", "agent-2": "cancelled"},
		Clock:         fixedClock{now: time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)},
		IDGenerator:   store,
	}
}

func TestCreatePolicyRejectsUnknownCoverage(t *testing.T) {
	store := memory.NewStore()
	_, err := newUseCase(store).Execute(context.Background(), CreatePolicyCommand{
		UserID:          "u-1",
		PropertyAddress: "1 Elm St",
		CoverageType:    "annual",
	})
	if !errors.Is(err, domainerrors.ErrInvalidCoverageType) {
		t.Fatalf("expected invalid coverage type, got %v", err)
	}
	all, _ := store.ListAllPolicies(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no policy stored, got %d", len(all))
	}
}

func TestCreatePolicyStatusByCoverage(t *testing.T) {
	store := memory.NewStore()
	useCase := newUseCase(store)

	cases := []struct {
		user     string
		coverage string
		want     entities.Status
	}{
		{"u-1", "single", entities.StatusActive},
		{"agent-1", "subscription", entities.StatusActive},
		{"agent-2", "subscription", entities.StatusCancelled},
		{"agent-3", "subscription", entities.StatusPending},
	}
	for _, tc := range cases {
		result, err := useCase.Execute(context.Background(), CreatePolicyCommand{
			UserID:          tc.user,
			PropertyAddress: "10 Main St",
			CoverageType:    tc.coverage,
		})
		if err != nil {
			t.Fatalf("%s/%s: create failed: %v", tc.user, tc.coverage, err)
		}
		if result.Policy.Status != tc.want {
			t.Fatalf("%s/%s: expected %s, got %s", tc.user, tc.coverage, tc.want, result.Policy.Status)
		}
	}
}

func TestCreatePolicySourceEventReplay(t *testing.T) {
	store := memory.NewStore()
	useCase := newUseCase(store)
	cmd := CreatePolicyCommand{
		UserID:          "u-1",
		PropertyAddress: "1 Elm St",
		CoverageType:    "single",
		SourceEventID:   "evt_1",
	}
	first, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.Created || first.Policy.PolicyID != second.Policy.PolicyID {
		t.Fatalf("expected replay of %s, got %+v", first.Policy.PolicyID, second)
	}
}
