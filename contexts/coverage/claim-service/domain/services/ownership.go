package services

import "showingcover/contexts/coverage/claim-service/domain/entities"

// ResolveOwner tries the direct user id first and falls back to the owner of
// the linked policy.
func ResolveOwner(claim entities.Claim, policies map[string]entities.PolicyRef) entities.ResolvedOwner {
	resolved := entities.ResolvedOwner{PolicyID: claim.PolicyID}
	policy, hasPolicy := policies[claim.PolicyID]
	if hasPolicy {
		resolved.PropertyAddress = policy.PropertyAddress
	}

	switch {
	case claim.UserID != "":
		resolved.Kind = entities.OwnerDirect
		resolved.UserID = claim.UserID
	case claim.PolicyID != "" && hasPolicy && policy.UserID != "":
		resolved.Kind = entities.OwnerViaPolicy
		resolved.UserID = policy.UserID
	default:
		resolved.Kind = entities.OwnerUnresolved
	}
	return resolved
}
