package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"showingcover/contexts/internal-ops/admin-dashboard-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/admin-dashboard-service/domain/errors"
	"showingcover/contexts/internal-ops/admin-dashboard-service/ports"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	Profiles    ports.ProfileStats
	Policies    ports.PolicyStats
	Claims      ports.ClaimStats
	Audit       ports.AuditFeed
	Clock       ports.Clock
	RecentLimit int
	Logger      *slog.Logger
}

// Overview reads the four sources concurrently. Any failing source fails the
// whole overview.
func (s Service) Overview(ctx context.Context) (entities.Overview, error) {
	var (
		roleCounts []ports.RoleCount
		policies   map[string]int
		claims     map[string]int
		recent     []entities.RecentAction
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rows, err := s.Profiles.CountProfilesByRole(groupCtx)
		roleCounts = rows
		return wrapSource("profiles", err)
	})
	group.Go(func() error {
		counts, err := s.Policies.CountPoliciesByStatus(groupCtx)
		policies = counts
		return wrapSource("policies", err)
	})
	group.Go(func() error {
		counts, err := s.Claims.CountClaimsByStatus(groupCtx)
		claims = counts
		return wrapSource("claims", err)
	})
	if s.Audit != nil {
		group.Go(func() error {
			rows, err := s.Audit.RecentActions(groupCtx, s.recentLimit())
			recent = rows
			return wrapSource("audit", err)
		})
	}
	if err := group.Wait(); err != nil {
		s.logger().Error("admin overview failed",
			"event", "admin_overview_failed",
			"module", "internal-ops/admin-dashboard-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Overview{}, err
	}

	if recent == nil {
		recent = []entities.RecentAction{}
	}
	return entities.Overview{
		GeneratedAt:   s.now(),
		Users:         totalUsers(roleCounts),
		Policies:      policies,
		Claims:        claims,
		RecentActions: recent,
	}, nil
}

func totalUsers(rows []ports.RoleCount) entities.UserTotals {
	var totals entities.UserTotals
	for _, row := range rows {
		switch row.Role {
		case "homeowner":
			totals.Homeowners += row.Count
		case "agent":
			totals.Agents += row.Count
			switch row.SubscriptionStatus {
			case "active":
				totals.ActiveSubscriptions += row.Count
			case "cancelled":
				totals.CancelledSubscriptions += row.Count
			}
		case "admin":
			totals.Admins += row.Count
		}
	}
	return totals
}

func wrapSource(source string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", domainerrors.ErrDependencyUnavailable, source, err)
}

func (s Service) recentLimit() int {
	if s.RecentLimit <= 0 {
		return 10
	}
	return s.RecentLimit
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
