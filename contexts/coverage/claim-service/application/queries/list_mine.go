package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	application "showingcover/contexts/coverage/claim-service/application"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"
)

// ListMineUseCase returns the claims a user owns directly or through one of
// their policies.
type ListMineUseCase struct {
	Claims   ports.ClaimRepository
	Policies ports.PolicyDirectory
	Logger   *slog.Logger
}

func (u ListMineUseCase) Execute(ctx context.Context, userID string) ([]ClaimRow, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	var policyIDs []string
	if u.Policies != nil {
		owned, err := u.Policies.PoliciesOwnedBy(ctx, userID)
		if err != nil {
			return nil, err
		}
		policyIDs = owned
	}

	claims, err := u.Claims.ListClaimsForOwner(ctx, userID, policyIDs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
	return buildRows(ctx, application.ResolveLogger(u.Logger), claims, u.Policies, nil)
}

type CountByPolicyUseCase struct {
	Claims ports.ClaimRepository
}

func (u CountByPolicyUseCase) Execute(ctx context.Context, policyIDs []string) (map[string]int, error) {
	if len(policyIDs) == 0 {
		return map[string]int{}, nil
	}
	return u.Claims.CountClaimsByPolicy(ctx, policyIDs)
}
