package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/coverage/claim-service/adapters/memory"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
)

var filingNow = time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)

func newFileClaim(store *memory.Store) FileClaimUseCase {
	return FileClaimUseCase{
		Claims:     store,
		Authorizer: defaultAuthorizer(),
		Policies: stubPolicies{
			"pol-home-1": {PolicyID: "pol-home-1", UserID: "home-1", PropertyAddress: "1 Elm St", Active: true},
			"pol-home-2": {PolicyID: "pol-home-2", UserID: "home-2", PropertyAddress: "2 Oak Ave", Active: true},
			"pol-old":    {PolicyID: "pol-old", UserID: "home-1", PropertyAddress: "3 Pine Rd", Active: false},
		},
		Idempotency: store,
		Clock:       fixedClock{now: filingNow},
		IDGenerator: store,
	}
}

func baseCommand(actor string, policyID string) FileClaimCommand {
	return FileClaimCommand{
		ActorID:      actor,
		PolicyID:     policyID,
		IncidentDate: filingNow.AddDate(0, 0, -1),
		DamagedItems: []string{"rug", " vase "},
		Description:  "visitor knocked over a vase",
		Files:        []string{"claims/x/01A-photo.jpg"},
	}
}

func TestFileClaimAgentWithoutPolicyOwnsDirectly(t *testing.T) {
	store := memory.NewStore()
	result, err := newFileClaim(store).Execute(context.Background(), baseCommand("agent-1", ""))
	if err != nil {
		t.Fatalf("file claim: %v", err)
	}
	claim := result.Claim
	if claim.UserID != "agent-1" || claim.PolicyID != "" {
		t.Fatalf("expected direct ownership, got user=%q policy=%q", claim.UserID, claim.PolicyID)
	}
	if claim.Status != entities.StatusPending || claim.MaxPayoutCents != 100000 {
		t.Fatalf("unexpected claim: %+v", claim)
	}
	if len(claim.DamagedItems) != 2 || claim.DamagedItems[1] != "vase" {
		t.Fatalf("damaged items not normalized: %v", claim.DamagedItems)
	}
}

func TestFileClaimRequiresActiveSubscriptionWithoutPolicy(t *testing.T) {
	store := memory.NewStore()
	for _, actor := range []string{"agent-2", "home-1", "ghost"} {
		_, err := newFileClaim(store).Execute(context.Background(), baseCommand(actor, ""))
		if !errors.Is(err, domainerrors.ErrForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", actor, err)
		}
	}
	all, _ := store.ListClaims(context.Background())
	if len(all) != 0 {
		t.Fatalf("no claim should be stored, got %d", len(all))
	}
}

func TestFileClaimPolicyOwnerIsPolicyMediated(t *testing.T) {
	store := memory.NewStore()
	result, err := newFileClaim(store).Execute(context.Background(), baseCommand("home-1", "pol-home-1"))
	if err != nil {
		t.Fatalf("file claim: %v", err)
	}
	if result.Claim.UserID != "" || result.Claim.PolicyID != "pol-home-1" {
		t.Fatalf("expected policy-mediated claim, got %+v", result.Claim)
	}
}

func TestFileClaimOnForeignPolicy(t *testing.T) {
	store := memory.NewStore()
	useCase := newFileClaim(store)

	if _, err := useCase.Execute(context.Background(), baseCommand("home-1", "pol-home-2")); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("homeowner on foreign policy: expected forbidden, got %v", err)
	}

	result, err := useCase.Execute(context.Background(), baseCommand("agent-1", "pol-home-2"))
	if err != nil {
		t.Fatalf("agent on foreign policy: %v", err)
	}
	if result.Claim.UserID != "agent-1" || result.Claim.PolicyID != "pol-home-2" {
		t.Fatalf("expected direct agent claim linked to policy, got %+v", result.Claim)
	}
}

func TestFileClaimPolicyChecks(t *testing.T) {
	store := memory.NewStore()
	useCase := newFileClaim(store)

	if _, err := useCase.Execute(context.Background(), baseCommand("home-1", "pol-missing")); !errors.Is(err, domainerrors.ErrPolicyNotFound) {
		t.Fatalf("expected policy not found, got %v", err)
	}
	if _, err := useCase.Execute(context.Background(), baseCommand("home-1", "pol-old")); !errors.Is(err, domainerrors.ErrPolicyInactive) {
		t.Fatalf("expected policy inactive, got %v", err)
	}
}

func TestFileClaimValidation(t *testing.T) {
	store := memory.NewStore()
	useCase := newFileClaim(store)

	future := baseCommand("agent-1", "")
	future.IncidentDate = filingNow.Add(48 * time.Hour)
	if _, err := useCase.Execute(context.Background(), future); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("future incident: expected invalid request, got %v", err)
	}

	empty := baseCommand("agent-1", "")
	empty.DamagedItems = []string{" "}
	if _, err := useCase.Execute(context.Background(), empty); !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("no items: expected invalid request, got %v", err)
	}
}

func TestFileClaimIdempotencyReplay(t *testing.T) {
	store := memory.NewStore()
	useCase := newFileClaim(store)

	cmd := baseCommand("agent-1", "")
	cmd.IdempotencyKey = "key-1"
	first, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first file: %v", err)
	}
	second, err := useCase.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Replayed || second.Claim.ClaimID != first.Claim.ClaimID {
		t.Fatalf("expected replay of %s, got %+v", first.Claim.ClaimID, second)
	}

	changed := cmd
	changed.Description = "different incident"
	if _, err := useCase.Execute(context.Background(), changed); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected key conflict, got %v", err)
	}

	all, _ := store.ListClaims(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected a single stored claim, got %d", len(all))
	}
}

func TestFileClaimWithoutKeyCreatesDuplicates(t *testing.T) {
	store := memory.NewStore()
	useCase := newFileClaim(store)
	for i := 0; i < 2; i++ {
		if _, err := useCase.Execute(context.Background(), baseCommand("agent-1", "")); err != nil {
			t.Fatalf("file %d: %v", i, err)
		}
	}
	all, _ := store.ListClaims(context.Background())
	if len(all) != 2 {
		t.Fatalf("expected two claims without idempotency key, got %d", len(all))
	}
}

func TestPresignEvidence(t *testing.T) {
	evidence := &stubEvidence{}
	useCase := PresignEvidenceUseCase{Evidence: evidence, Authorizer: defaultAuthorizer()}

	if _, err := useCase.Execute(context.Background(), PresignEvidenceCommand{ActorID: "home-1", Filename: "a.exe", ContentType: "application/x-msdownload"}); !errors.Is(err, domainerrors.ErrUnsupportedEvidence) {
		t.Fatalf("expected unsupported evidence, got %v", err)
	}
	if _, err := useCase.Execute(context.Background(), PresignEvidenceCommand{ActorID: "ghost", Filename: "a.png", ContentType: "image/png"}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for missing profile, got %v", err)
	}

	upload, err := useCase.Execute(context.Background(), PresignEvidenceCommand{ActorID: "home-1", Filename: "../../etc/photo.png", ContentType: "IMAGE/PNG"})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if upload.Key != "claims/home-1/01TEST-photo.png" {
		t.Fatalf("unexpected key %q", upload.Key)
	}
	if !upload.ExpiresAt.Equal(time.Date(2026, time.June, 1, 12, 15, 0, 0, time.UTC)) {
		t.Fatalf("expected default 15m ttl, got %s", upload.ExpiresAt)
	}
	if evidence.calls != 1 {
		t.Fatalf("expected one presign call, got %d", evidence.calls)
	}
}
