package queries

import (
	"context"
	"strings"

	"showingcover/contexts/coverage/policy-service/ports"
)

// GetPoliciesUseCase loads policies by id with their projection. Unknown ids
// are skipped.
type GetPoliciesUseCase struct {
	Policies ports.Repository
	Clock    ports.Clock
}

func (u GetPoliciesUseCase) Execute(ctx context.Context, policyIDs []string) ([]PolicyView, error) {
	ids := make([]string, 0, len(policyIDs))
	for _, id := range policyIDs {
		if strings.TrimSpace(id) != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []PolicyView{}, nil
	}
	policies, err := u.Policies.ListPoliciesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	now := resolveNow(u.Clock)
	items := make([]PolicyView, 0, len(policies))
	for _, policy := range policies {
		items = append(items, project(policy, now))
	}
	return items, nil
}

// PoliciesOwnedBy returns the ids of every policy the user owns.
func (u GetPoliciesUseCase) PoliciesOwnedBy(ctx context.Context, userID string) ([]string, error) {
	policies, err := u.Policies.ListPoliciesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(policies))
	for _, policy := range policies {
		ids = append(ids, policy.PolicyID)
	}
	return ids, nil
}
