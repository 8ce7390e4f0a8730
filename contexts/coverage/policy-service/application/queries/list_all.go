package queries

import (
	"context"
	"log/slog"
	"sort"

	application "showingcover/contexts/coverage/policy-service/application"
	"showingcover/contexts/coverage/policy-service/ports"

	"golang.org/x/sync/errgroup"
)

// ListAllUseCase builds the admin policy listing. Owner emails and claim
// counts are independent reads and are fetched concurrently.
type ListAllUseCase struct {
	Policies ports.Repository
	Owners   ports.OwnerDirectory
	Claims   ports.ClaimCounter
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u ListAllUseCase) Execute(ctx context.Context) ([]AdminPolicyView, error) {
	logger := application.ResolveLogger(u.Logger)

	policies, err := u.Policies.ListAllPolicies(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].CreatedAt.After(policies[j].CreatedAt)
	})

	ownerIDs := make([]string, 0, len(policies))
	policyIDs := make([]string, 0, len(policies))
	seenOwners := make(map[string]struct{}, len(policies))
	for _, policy := range policies {
		policyIDs = append(policyIDs, policy.PolicyID)
		if _, ok := seenOwners[policy.UserID]; !ok {
			seenOwners[policy.UserID] = struct{}{}
			ownerIDs = append(ownerIDs, policy.UserID)
		}
	}

	emails := map[string]string{}
	counts := map[string]int{}
	group, groupCtx := errgroup.WithContext(ctx)
	if u.Owners != nil {
		group.Go(func() error {
			result, err := u.Owners.OwnerEmails(groupCtx, ownerIDs)
			if err != nil {
				return err
			}
			emails = result
			return nil
		})
	}
	if u.Claims != nil {
		group.Go(func() error {
			result, err := u.Claims.CountClaimsByPolicy(groupCtx, policyIDs)
			if err != nil {
				return err
			}
			counts = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Error("admin policy listing enrichment failed",
			"event", "policy_list_all_enrichment_failed",
			"module", "coverage/policy-service",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}

	now := resolveNow(u.Clock)
	items := make([]AdminPolicyView, 0, len(policies))
	for _, policy := range policies {
		items = append(items, AdminPolicyView{
			PolicyView: project(policy, now),
			OwnerEmail: emails[policy.UserID],
			ClaimCount: counts[policy.PolicyID],
		})
	}
	return items, nil
}
