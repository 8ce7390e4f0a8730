package services

import (
	"errors"
	"testing"

	"showingcover/contexts/billing/subscription-service/domain/entities"
	domainerrors "showingcover/contexts/billing/subscription-service/domain/errors"
)

func TestCanSubscribe(t *testing.T) {
	cases := []struct {
		name       string
		subscriber entities.Subscriber
		want       error
	}{
		{"homeowner", entities.Subscriber{Role: "homeowner", Status: entities.StatusNone}, domainerrors.ErrNotAgent},
		{"active agent", entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusActive}, domainerrors.ErrAlreadyActive},
		{"new agent", entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusNone}, nil},
		{"cancelled agent", entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusCancelled, SubscriptionID: "sub_1"}, nil},
	}
	for _, tc := range cases {
		if err := CanSubscribe(tc.subscriber); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCanCancelRequiresActiveSubscriptionID(t *testing.T) {
	if err := CanCancel(entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusActive}); !errors.Is(err, domainerrors.ErrNoActiveSubscription) {
		t.Fatalf("expected no active subscription without id, got %v", err)
	}
	if err := CanCancel(entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusCancelled, SubscriptionID: "sub_1"}); !errors.Is(err, domainerrors.ErrNoActiveSubscription) {
		t.Fatalf("expected no active subscription when cancelled, got %v", err)
	}
	if err := CanCancel(entities.Subscriber{Role: entities.RoleAgent, Status: entities.StatusActive, SubscriptionID: "sub_1"}); err != nil {
		t.Fatalf("expected cancel allowed, got %v", err)
	}
}

func TestSnapshotStatus(t *testing.T) {
	for processor, want := range map[string]entities.SubscriptionStatus{
		"active":   entities.StatusActive,
		"trialing": entities.StatusActive,
		"past_due": entities.StatusActive,
		"canceled": entities.StatusCancelled,
		"unpaid":   entities.StatusCancelled,
	} {
		got, ok := SnapshotStatus(processor)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", processor, want, got, ok)
		}
	}
	if _, ok := SnapshotStatus("incomplete"); ok {
		t.Fatal("incomplete must not map to a decision")
	}
}
