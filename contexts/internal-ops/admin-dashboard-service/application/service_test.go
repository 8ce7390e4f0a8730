package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/internal-ops/admin-dashboard-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/admin-dashboard-service/domain/errors"
	"showingcover/contexts/internal-ops/admin-dashboard-service/ports"
)

type stubProfiles struct {
	rows []ports.RoleCount
	err  error
}

func (s stubProfiles) CountProfilesByRole(context.Context) ([]ports.RoleCount, error) {
	return s.rows, s.err
}

type stubCounts map[string]int

func (s stubCounts) CountPoliciesByStatus(context.Context) (map[string]int, error) { return s, nil }
func (s stubCounts) CountClaimsByStatus(context.Context) (map[string]int, error)   { return s, nil }

type stubAudit struct {
	limit int
}

func (s *stubAudit) RecentActions(_ context.Context, limit int) ([]entities.RecentAction, error) {
	s.limit = limit
	return []entities.RecentAction{{AdminID: "admin-1", Action: "approve_claim", ResourceType: "claim", ResourceID: "c-1"}}, nil
}

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func TestOverviewAggregatesSources(t *testing.T) {
	audit := &stubAudit{}
	service := Service{
		Profiles: stubProfiles{rows: []ports.RoleCount{
			{Role: "homeowner", SubscriptionStatus: "none", Count: 4},
			{Role: "agent", SubscriptionStatus: "active", Count: 2},
			{Role: "agent", SubscriptionStatus: "cancelled", Count: 1},
			{Role: "agent", SubscriptionStatus: "none", Count: 3},
			{Role: "admin", SubscriptionStatus: "none", Count: 1},
		}},
		Policies: stubCounts{"active": 5, "expired": 2},
		Claims:   stubCounts{"pending": 3},
		Audit:    audit,
		Clock:    fixedClock{now: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)},
	}

	overview, err := service.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	want := entities.UserTotals{Homeowners: 4, Agents: 6, Admins: 1, ActiveSubscriptions: 2, CancelledSubscriptions: 1}
	if overview.Users != want {
		t.Fatalf("unexpected user totals: %+v", overview.Users)
	}
	if overview.Policies["active"] != 5 || overview.Claims["pending"] != 3 {
		t.Fatalf("unexpected counts: %+v %+v", overview.Policies, overview.Claims)
	}
	if len(overview.RecentActions) != 1 || audit.limit != 10 {
		t.Fatalf("unexpected recent actions: %+v limit=%d", overview.RecentActions, audit.limit)
	}
}

func TestOverviewFailsWhenAnySourceFails(t *testing.T) {
	service := Service{
		Profiles: stubProfiles{err: errors.New("db timeout")},
		Policies: stubCounts{},
		Claims:   stubCounts{},
	}
	_, err := service.Overview(context.Background())
	if !errors.Is(err, domainerrors.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
}
