package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	application "showingcover/contexts/coverage/claim-service/application"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/domain/services"
	"showingcover/contexts/coverage/claim-service/ports"
)

// ClaimRow is the flattened admin view of one claim.
type ClaimRow struct {
	Claim      entities.Claim
	Owner      entities.ResolvedOwner
	OwnerEmail string
}

type ListAllUseCase struct {
	Claims     ports.ClaimRepository
	Policies   ports.PolicyDirectory
	Owners     ports.OwnerDirectory
	Authorizer ports.Authorizer
	Logger     *slog.Logger
}

func (u ListAllUseCase) Execute(ctx context.Context, adminID string) ([]ClaimRow, error) {
	logger := application.ResolveLogger(u.Logger)
	if u.Authorizer == nil {
		return nil, domainerrors.ErrForbidden
	}
	decision, err := u.Authorizer.Authorize(ctx, adminID, ports.CapabilityAdminOnly, "")
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrForbidden, decision.Reason)
	}

	claims, err := u.Claims.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].CreatedAt.After(claims[j].CreatedAt)
	})
	return buildRows(ctx, logger, claims, u.Policies, u.Owners)
}

func buildRows(
	ctx context.Context,
	logger *slog.Logger,
	claims []entities.Claim,
	policyDirectory ports.PolicyDirectory,
	ownerDirectory ports.OwnerDirectory,
) ([]ClaimRow, error) {
	policyIDs := make([]string, 0, len(claims))
	for _, claim := range claims {
		if claim.PolicyID != "" {
			policyIDs = append(policyIDs, claim.PolicyID)
		}
	}
	policies := map[string]entities.PolicyRef{}
	if len(policyIDs) > 0 && policyDirectory != nil {
		loaded, err := policyDirectory.GetPolicies(ctx, policyIDs)
		if err != nil {
			return nil, err
		}
		policies = loaded
	}

	rows := make([]ClaimRow, 0, len(claims))
	ownerIDs := make([]string, 0, len(claims))
	unresolved := 0
	for _, claim := range claims {
		owner := services.ResolveOwner(claim, policies)
		if owner.Kind == entities.OwnerUnresolved {
			unresolved++
		} else {
			ownerIDs = append(ownerIDs, owner.UserID)
		}
		rows = append(rows, ClaimRow{Claim: claim, Owner: owner})
	}
	if unresolved > 0 {
		logger.Warn("claims with unresolved owner",
			"event", "claim_owner_unresolved",
			"module", "coverage/claim-service",
			"layer", "application",
			"count", unresolved,
		)
	}

	if len(ownerIDs) > 0 && ownerDirectory != nil {
		emails, err := ownerDirectory.OwnerEmails(ctx, ownerIDs)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].OwnerEmail = emails[rows[i].Owner.UserID]
		}
	}
	return rows, nil
}
