package queries

import (
	"context"
	"sort"
	"strings"

	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"
	"showingcover/contexts/coverage/policy-service/ports"
)

type ListForUserUseCase struct {
	Policies ports.Repository
	Clock    ports.Clock
}

// Execute returns the owner's policies newest first.
func (u ListForUserUseCase) Execute(ctx context.Context, userID string) ([]PolicyView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidPolicyRequest
	}
	policies, err := u.Policies.ListPoliciesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].CreatedAt.After(policies[j].CreatedAt)
	})

	now := resolveNow(u.Clock)
	items := make([]PolicyView, 0, len(policies))
	for _, policy := range policies {
		items = append(items, project(policy, now))
	}
	return items, nil
}
