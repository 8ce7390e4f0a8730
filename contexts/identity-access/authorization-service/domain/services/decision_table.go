package services

import "showingcover/contexts/identity-access/authorization-service/domain/entities"

// Decide evaluates the capability table for one profile. A nil profile means
// the authenticated subject has no user record yet.
func Decide(profile *entities.Profile, capability entities.Capability, resourceOwnerID string) entities.Decision {
	decision := entities.Decision{Capability: capability}
	if profile == nil {
		decision.Reason = entities.ReasonProfileMissing
		return decision
	}
	decision.UserID = profile.UserID
	decision.Role = profile.Role

	switch capability {
	case entities.CapabilityAdminOnly:
		if profile.Role != entities.RoleAdmin {
			decision.Reason = entities.ReasonAdminRequired
			return decision
		}
	case entities.CapabilityAgentSubscription:
		if profile.Role != entities.RoleAgent {
			decision.Reason = entities.ReasonAgentRequired
			return decision
		}
	case entities.CapabilityAgentClaimsFiling:
		if profile.Role != entities.RoleAgent {
			decision.Reason = entities.ReasonAgentRequired
			return decision
		}
		if profile.SubscriptionStatus != entities.SubscriptionActive {
			decision.Reason = entities.ReasonSubscriptionInactive
			if profile.SubscriptionSync == entities.SubscriptionSyncOptimistic {
				decision.Reason = entities.ReasonSubscriptionCancelPending
			}
			return decision
		}
	case entities.CapabilitySelfServiceRead:
		if resourceOwnerID == "" || resourceOwnerID != profile.UserID {
			decision.Reason = entities.ReasonNotResourceOwner
			return decision
		}
	default:
		decision.Reason = "unknown_capability"
		return decision
	}

	decision.Allowed = true
	decision.Reason = entities.ReasonAllowed
	return decision
}
