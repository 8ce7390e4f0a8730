package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/coverage/policy-service/adapters/memory"
	"showingcover/contexts/coverage/policy-service/domain/entities"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type stubOwners struct {
	emails map[string]string
	err    error
}

func (s stubOwners) OwnerEmails(_ context.Context, _ []string) (map[string]string, error) {
	return s.emails, s.err
}

type stubClaims map[string]int

func (s stubClaims) CountClaimsByPolicy(_ context.Context, _ []string) (map[string]int, error) {
	return s, nil
}

func seedPolicies(store *memory.Store, created time.Time) {
	store.Seed(
		entities.Policy{PolicyID: "p-old", UserID: "u-1", PropertyAddress: "1 Elm St", CoverageType: entities.CoverageSingle, Status: entities.StatusActive, CreatedAt: created},
		entities.Policy{PolicyID: "p-new", UserID: "u-1", PropertyAddress: "2 Oak St", CoverageType: entities.CoverageSingle, Status: entities.StatusActive, CreatedAt: created.Add(80 * 24 * time.Hour)},
		entities.Policy{PolicyID: "p-other", UserID: "u-2", PropertyAddress: "3 Ash St", CoverageType: entities.CoverageSubscription, Status: entities.StatusPending, CreatedAt: created.Add(time.Hour)},
	)
}

func TestListForUserNewestFirstWithDerivedStatus(t *testing.T) {
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	seedPolicies(store, created)

	useCase := ListForUserUseCase{Policies: store, Clock: fixedClock{now: created.Add(91 * 24 * time.Hour)}}
	items, err := useCase.Execute(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 policies, got %d", len(items))
	}
	if items[0].Policy.PolicyID != "p-new" || items[1].Policy.PolicyID != "p-old" {
		t.Fatalf("expected newest first, got %s then %s", items[0].Policy.PolicyID, items[1].Policy.PolicyID)
	}
	if items[0].DerivedStatus != entities.DerivedActive {
		t.Fatalf("expected newer policy active, got %s", items[0].DerivedStatus)
	}
	if items[1].DerivedStatus != entities.DerivedExpired {
		t.Fatalf("expected older policy expired, got %s", items[1].DerivedStatus)
	}
	if items[1].Policy.Status != entities.StatusActive {
		t.Fatalf("derivation must not rewrite stored status, got %s", items[1].Policy.Status)
	}
}

func TestListAllJoinsOwnerAndClaimCounts(t *testing.T) {
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	seedPolicies(store, created)

	useCase := ListAllUseCase{
		Policies: store,
		Owners:   stubOwners{emails: map[string]string{"u-1": "one@example.com", "u-2": "two@example.com"}},
		Claims:   stubClaims{"p-old": 2},
		Clock:    fixedClock{now: created.Add(24 * time.Hour)},
	}
	items, err := useCase.Execute(context.Background())
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(items))
	}
	byID := map[string]AdminPolicyView{}
	for _, item := range items {
		byID[item.Policy.PolicyID] = item
	}
	if byID["p-old"].ClaimCount != 2 || byID["p-new"].ClaimCount != 0 {
		t.Fatalf("unexpected claim counts: %+v", byID)
	}
	if byID["p-other"].OwnerEmail != "two@example.com" {
		t.Fatalf("expected owner email joined, got %q", byID["p-other"].OwnerEmail)
	}
	if byID["p-other"].DerivedStatus != entities.DerivedPending {
		t.Fatalf("expected pending passthrough, got %s", byID["p-other"].DerivedStatus)
	}
}

func TestListAllPropagatesEnrichmentFailure(t *testing.T) {
	store := memory.NewStore()
	seedPolicies(store, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	failure := errors.New("directory down")

	_, err := ListAllUseCase{
		Policies: store,
		Owners:   stubOwners{err: failure},
		Claims:   stubClaims{},
	}.Execute(context.Background())
	if !errors.Is(err, failure) {
		t.Fatalf("expected directory failure, got %v", err)
	}
}

func TestStatusCountsUsesDerivedStatus(t *testing.T) {
	created := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	seedPolicies(store, created)

	counts, err := StatusCountsUseCase{Policies: store, Clock: fixedClock{now: created.Add(91 * 24 * time.Hour)}}.Execute(context.Background())
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	if counts[entities.DerivedActive] != 1 || counts[entities.DerivedExpired] != 1 || counts[entities.DerivedPending] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
