package entities

import (
	"strings"

	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
)

// OwnerKind tags how a claim reaches its owning user.
type OwnerKind string

const (
	OwnerDirect     OwnerKind = "direct"
	OwnerViaPolicy  OwnerKind = "policy"
	OwnerUnresolved OwnerKind = "unresolved"
)

// OwnerRef is the ownership path supplied when a claim is filed.
type OwnerRef struct {
	Kind     OwnerKind
	UserID   string
	PolicyID string
}

func DirectOwner(userID string) OwnerRef {
	return OwnerRef{Kind: OwnerDirect, UserID: strings.TrimSpace(userID)}
}

func ViaPolicy(policyID string) OwnerRef {
	return OwnerRef{Kind: OwnerViaPolicy, PolicyID: strings.TrimSpace(policyID)}
}

func (o OwnerRef) Validate() error {
	switch o.Kind {
	case OwnerDirect:
		if o.UserID == "" {
			return domainerrors.ErrInvalidRequest
		}
	case OwnerViaPolicy:
		if o.PolicyID == "" {
			return domainerrors.ErrInvalidRequest
		}
	default:
		return domainerrors.ErrInvalidRequest
	}
	return nil
}

// PolicyRef is the claim context's view of a coverage policy.
type PolicyRef struct {
	PolicyID        string
	UserID          string
	PropertyAddress string
	Active          bool
}

// ResolvedOwner is the outcome of ownership resolution for one claim.
// Unresolved owners are reported, never dropped.
type ResolvedOwner struct {
	Kind            OwnerKind
	UserID          string
	PolicyID        string
	PropertyAddress string
}
