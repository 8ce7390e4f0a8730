package bootstrap

import (
	"context"
	"errors"
	"time"

	billingentities "showingcover/contexts/billing/subscription-service/domain/entities"
	billingerrors "showingcover/contexts/billing/subscription-service/domain/errors"
	billingports "showingcover/contexts/billing/subscription-service/ports"
	claimservice "showingcover/contexts/coverage/claim-service"
	claimentities "showingcover/contexts/coverage/claim-service/domain/entities"
	claimports "showingcover/contexts/coverage/claim-service/ports"
	policyservice "showingcover/contexts/coverage/policy-service"
	policycommands "showingcover/contexts/coverage/policy-service/application/commands"
	policyentities "showingcover/contexts/coverage/policy-service/domain/entities"
	policyports "showingcover/contexts/coverage/policy-service/ports"
	authorization "showingcover/contexts/identity-access/authorization-service"
	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	authzports "showingcover/contexts/identity-access/authorization-service/ports"
	dashboardentities "showingcover/contexts/internal-ops/admin-dashboard-service/domain/entities"
	dashboardports "showingcover/contexts/internal-ops/admin-dashboard-service/ports"
	audittrailservice "showingcover/contexts/internal-ops/audit-trail-service"
	auditentities "showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
)

// Bridges adapt one context's use cases to another context's ports. Contexts
// never import each other; the composition root is the only place that sees
// both sides. Module pointers are filled in after construction so mutually
// dependent contexts can be wired in any order.

type claimAuthorizer struct {
	authz *authorization.Module
}

// Authorize turns a forbidden decision into a denied answer. Only failed
// lookups surface as errors.
func (b claimAuthorizer) Authorize(
	ctx context.Context,
	userID string,
	capability string,
	resourceOwnerID string,
) (claimports.AuthorizationDecision, error) {
	decision, err := b.authz.Handler.RequireCapability(ctx, userID, authzentities.Capability(capability), resourceOwnerID)
	if err != nil {
		if errors.Is(err, authzerrors.ErrForbidden) {
			return claimports.AuthorizationDecision{Allowed: false, Reason: decision.Reason}, nil
		}
		return claimports.AuthorizationDecision{}, err
	}
	return claimports.AuthorizationDecision{Allowed: decision.Allowed, Reason: decision.Reason}, nil
}

type policyDirectory struct {
	policies *policyservice.Module
}

func (b policyDirectory) GetPolicies(ctx context.Context, policyIDs []string) (map[string]claimentities.PolicyRef, error) {
	views, err := b.policies.GetPolicies.Execute(ctx, policyIDs)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]claimentities.PolicyRef, len(views))
	for _, view := range views {
		refs[view.Policy.PolicyID] = claimentities.PolicyRef{
			PolicyID:        view.Policy.PolicyID,
			UserID:          view.Policy.UserID,
			PropertyAddress: view.Policy.PropertyAddress,
			Active:          view.DerivedStatus == policyentities.DerivedActive,
		}
	}
	return refs, nil
}

func (b policyDirectory) PoliciesOwnedBy(ctx context.Context, userID string) ([]string, error) {
	return b.policies.GetPolicies.PoliciesOwnedBy(ctx, userID)
}

// ownerDirectory serves both coverage contexts.
type ownerDirectory struct {
	authz *authorization.Module
}

func (b ownerDirectory) OwnerEmails(ctx context.Context, userIDs []string) (map[string]string, error) {
	profiles, err := b.authz.ListProfiles.Execute(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]string, len(profiles))
	for _, profile := range profiles {
		emails[profile.UserID] = profile.Email
	}
	return emails, nil
}

type auditTrail struct {
	audit *audittrailservice.Module
}

func (b auditTrail) AppendAuditEntry(ctx context.Context, entry claimports.AuditEntry) error {
	_, err := b.audit.Service.AppendAuditEntry(ctx, auditentities.AuditEntry{
		AdminID:      entry.AdminID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		CreatedAt:    entry.OccurredAt,
	})
	return err
}

func (b auditTrail) AppendAdminNote(ctx context.Context, note claimports.AdminNote) error {
	_, err := b.audit.Service.AppendNote(ctx, auditentities.AdminNote{
		ResourceType: note.ResourceType,
		ResourceID:   note.ResourceID,
		AdminID:      note.AdminID,
		Note:         note.Note,
		CreatedAt:    note.CreatedAt,
	})
	return err
}

type subscriptionLookup struct {
	authz *authorization.Module
}

func (b subscriptionLookup) SubscriptionStatus(ctx context.Context, userID string) (string, error) {
	profile, err := b.authz.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return string(profile.SubscriptionStatus), nil
}

type claimCounter struct {
	claims *claimservice.Module
}

func (b claimCounter) CountClaimsByPolicy(ctx context.Context, policyIDs []string) (map[string]int, error) {
	return b.claims.CountByPolicy.Execute(ctx, policyIDs)
}

// subscriberStore exposes the subscription columns of user profiles to
// billing.
type subscriberStore struct {
	authz *authorization.Module
}

func (b subscriberStore) GetSubscriber(ctx context.Context, userID string) (billingentities.Subscriber, error) {
	profile, err := b.authz.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return billingentities.Subscriber{}, mapProfileError(err)
	}
	return billingentities.Subscriber{
		UserID:         profile.UserID,
		Email:          profile.Email,
		Role:           string(profile.Role),
		Status:         billingentities.SubscriptionStatus(profile.SubscriptionStatus),
		SubscriptionID: profile.SubscriptionID,
		Sync:           string(profile.SubscriptionSync),
	}, nil
}

func (b subscriberStore) ApplySnapshot(
	ctx context.Context,
	snapshot billingentities.SubscriptionSnapshot,
	occurredAt time.Time,
	now time.Time,
) (bool, error) {
	applied, err := b.authz.Profiles.ApplySubscriptionSnapshot(ctx, authzports.SubscriptionSnapshot{
		UserID:         snapshot.UserID,
		SubscriptionID: snapshot.SubscriptionID,
		Status:         authzentities.SubscriptionStatus(snapshot.Status),
		StartedAt:      snapshot.StartedAt,
		OccurredAt:     occurredAt,
	}, now)
	if err != nil {
		return false, mapProfileError(err)
	}
	return applied, nil
}

func (b subscriberStore) MarkCancelled(ctx context.Context, userID string, subscriptionID string, now time.Time) (bool, error) {
	changed, err := b.authz.Profiles.MarkSubscriptionCancelled(ctx, userID, subscriptionID, now)
	if err != nil {
		return false, mapProfileError(err)
	}
	return changed, nil
}

func mapProfileError(err error) error {
	switch {
	case errors.Is(err, authzerrors.ErrProfileNotFound):
		return billingerrors.ErrSubscriberNotFound
	case errors.Is(err, authzerrors.ErrRoleMismatch):
		return billingerrors.ErrNotAgent
	default:
		return err
	}
}

type policyIssuer struct {
	policies *policyservice.Module
}

func (b policyIssuer) IssueSinglePolicy(ctx context.Context, order billingports.PolicyOrder) (string, error) {
	result, err := b.policies.CreatePolicy.Execute(ctx, policycommands.CreatePolicyCommand{
		UserID:          order.UserID,
		PropertyAddress: order.PropertyAddress,
		CoverageType:    string(policyentities.CoverageSingle),
		SourceEventID:   order.SourceEventID,
	})
	if err != nil {
		return "", err
	}
	return result.Policy.PolicyID, nil
}

type profileStats struct {
	authz *authorization.Module
}

func (b profileStats) CountProfilesByRole(ctx context.Context) ([]dashboardports.RoleCount, error) {
	rows, err := b.authz.Profiles.CountProfilesByRole(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dashboardports.RoleCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, dashboardports.RoleCount{
			Role:               string(row.Role),
			SubscriptionStatus: string(row.SubscriptionStatus),
			Count:              row.Count,
		})
	}
	return out, nil
}

type policyStats struct {
	policies *policyservice.Module
}

func (b policyStats) CountPoliciesByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := b.policies.StatusCounts.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return out, nil
}

type claimStats struct {
	claims *claimservice.Module
}

func (b claimStats) CountClaimsByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := b.claims.StatusCounts.Execute(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return out, nil
}

type auditFeed struct {
	audit *audittrailservice.Module
}

func (b auditFeed) RecentActions(ctx context.Context, limit int) ([]dashboardentities.RecentAction, error) {
	entries, err := b.audit.Service.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dashboardentities.RecentAction, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dashboardentities.RecentAction{
			AdminID:      entry.AdminID,
			Action:       entry.Action,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			OccurredAt:   entry.CreatedAt,
		})
	}
	return out, nil
}

var (
	_ claimports.Authorizer          = claimAuthorizer{}
	_ claimports.PolicyDirectory     = policyDirectory{}
	_ claimports.OwnerDirectory      = ownerDirectory{}
	_ claimports.AuditTrail          = auditTrail{}
	_ policyports.OwnerDirectory     = ownerDirectory{}
	_ policyports.SubscriptionLookup = subscriptionLookup{}
	_ policyports.ClaimCounter       = claimCounter{}
	_ billingports.SubscriberStore   = subscriberStore{}
	_ billingports.PolicyIssuer      = policyIssuer{}
	_ dashboardports.ProfileStats    = profileStats{}
	_ dashboardports.PolicyStats     = policyStats{}
	_ dashboardports.ClaimStats      = claimStats{}
	_ dashboardports.AuditFeed       = auditFeed{}
)
