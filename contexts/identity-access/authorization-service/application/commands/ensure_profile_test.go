package commands

import (
	"context"
	"errors"
	"testing"

	"showingcover/contexts/identity-access/authorization-service/adapters/memory"
	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
)

func TestEnsureProfileCreatesOnceAndReturnsExisting(t *testing.T) {
	store := memory.NewStore()
	useCase := EnsureProfileUseCase{Profiles: store, Clock: store}
	identity := entities.Identity{UserID: "agent-1", Email: "agent@example.com", RoleHint: "agent"}

	first, err := useCase.Execute(context.Background(), identity)
	if err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	if !first.Created || first.Profile.Role != entities.RoleAgent {
		t.Fatalf("expected created agent profile, got %+v", first)
	}
	if first.Profile.SubscriptionStatus != entities.SubscriptionNone {
		t.Fatalf("expected new profile without subscription, got %s", first.Profile.SubscriptionStatus)
	}

	identity.RoleHint = "homeowner"
	second, err := useCase.Execute(context.Background(), identity)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if second.Created || second.Profile.Role != entities.RoleAgent {
		t.Fatalf("expected existing agent profile unchanged, got %+v", second)
	}
}

func TestEnsureProfileRejectsAdminHint(t *testing.T) {
	store := memory.NewStore()
	_, err := EnsureProfileUseCase{Profiles: store}.Execute(context.Background(), entities.Identity{
		UserID:   "user-1",
		Email:    "user@example.com",
		RoleHint: "admin",
	})
	if !errors.Is(err, domainerrors.ErrInvalidRole) {
		t.Fatalf("expected invalid role, got %v", err)
	}
}

func TestEnsureProfileDefaultsToHomeowner(t *testing.T) {
	store := memory.NewStore()
	result, err := EnsureProfileUseCase{Profiles: store}.Execute(context.Background(), entities.Identity{
		UserID: "user-2",
		Email:  "owner@example.com",
	})
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if result.Profile.Role != entities.RoleHomeowner {
		t.Fatalf("expected homeowner, got %s", result.Profile.Role)
	}
}
