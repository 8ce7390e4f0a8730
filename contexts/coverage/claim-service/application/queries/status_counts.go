package queries

import (
	"context"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	"showingcover/contexts/coverage/claim-service/ports"
)

type StatusCountsUseCase struct {
	Claims ports.ClaimRepository
}

func (u StatusCountsUseCase) Execute(ctx context.Context) (map[entities.Status]int, error) {
	claims, err := u.Claims.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[entities.Status]int{
		entities.StatusPending:  0,
		entities.StatusApproved: 0,
		entities.StatusDenied:   0,
	}
	for _, claim := range claims {
		counts[claim.Status]++
	}
	return counts, nil
}
