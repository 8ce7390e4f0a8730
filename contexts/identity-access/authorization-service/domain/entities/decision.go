package entities

type Capability string

const (
	CapabilityAdminOnly         Capability = "admin_only"
	CapabilityAgentSubscription Capability = "agent_subscription"
	CapabilityAgentClaimsFiling Capability = "agent_claims_filing"
	CapabilitySelfServiceRead   Capability = "self_service_read"
)

func (c Capability) Valid() bool {
	switch c {
	case CapabilityAdminOnly, CapabilityAgentSubscription, CapabilityAgentClaimsFiling, CapabilitySelfServiceRead:
		return true
	default:
		return false
	}
}

const (
	ReasonAllowed                   = "allowed"
	ReasonProfileMissing            = "profile_missing"
	ReasonAdminRequired             = "admin_required"
	ReasonAgentRequired             = "agent_required"
	ReasonSubscriptionInactive      = "subscription_inactive"
	ReasonSubscriptionCancelPending = "subscription_cancel_pending"
	ReasonNotResourceOwner          = "not_resource_owner"
)

// Decision is the outcome of one capability check.
type Decision struct {
	UserID     string
	Capability Capability
	Allowed    bool
	Reason     string
	Role       Role
}
