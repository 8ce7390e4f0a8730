package queries

import (
	"context"

	"showingcover/contexts/coverage/policy-service/domain/entities"
	"showingcover/contexts/coverage/policy-service/ports"
)

// StatusCountsUseCase counts policies by derived status as of now.
type StatusCountsUseCase struct {
	Policies ports.Repository
	Clock    ports.Clock
}

func (u StatusCountsUseCase) Execute(ctx context.Context) (map[entities.DerivedStatus]int, error) {
	policies, err := u.Policies.ListAllPolicies(ctx)
	if err != nil {
		return nil, err
	}
	now := resolveNow(u.Clock)
	counts := map[entities.DerivedStatus]int{}
	for _, policy := range policies {
		counts[project(policy, now).DerivedStatus]++
	}
	return counts, nil
}
