package entities

import (
	"strings"
	"time"

	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
)

type Role string

const (
	RoleHomeowner Role = "homeowner"
	RoleAgent     Role = "agent"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHomeowner, RoleAgent, RoleAdmin:
		return true
	default:
		return false
	}
}

type SubscriptionStatus string

const (
	SubscriptionNone      SubscriptionStatus = "none"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionNone, SubscriptionActive, SubscriptionCancelled:
		return true
	default:
		return false
	}
}

// SubscriptionSync records where the current subscription value came from.
// Optimistic values are written by the local cancel path and are overwritten
// by the next authoritative processor event.
type SubscriptionSync string

const (
	SubscriptionSyncConfirmed  SubscriptionSync = "confirmed"
	SubscriptionSyncOptimistic SubscriptionSync = "optimistic"
)

// Profile is the persisted user record keyed by the identity provider subject.
type Profile struct {
	UserID              string
	Email               string
	Role                Role
	SubscriptionStatus  SubscriptionStatus
	SubscriptionID      string
	SubscriptionStart   *time.Time
	SubscriptionEventAt *time.Time
	SubscriptionSync    SubscriptionSync
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func NewProfile(userID string, email string, role Role, now time.Time) (Profile, error) {
	profile := Profile{
		UserID:             strings.TrimSpace(userID),
		Email:              strings.TrimSpace(email),
		Role:               role,
		SubscriptionStatus: SubscriptionNone,
		SubscriptionSync:   SubscriptionSyncConfirmed,
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Validate enforces that only agents carry subscription state.
func (p Profile) Validate() error {
	if p.UserID == "" {
		return domainerrors.ErrInvalidUserID
	}
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return domainerrors.ErrInvalidEmail
	}
	if !p.Role.Valid() {
		return domainerrors.ErrInvalidRole
	}
	if !p.SubscriptionStatus.Valid() {
		return domainerrors.ErrInvalidSubscription
	}
	if p.Role != RoleAgent && p.SubscriptionStatus != SubscriptionNone {
		return domainerrors.ErrRoleMismatch
	}
	return nil
}

func (p Profile) HasActiveSubscription() bool {
	return p.Role == RoleAgent && p.SubscriptionStatus == SubscriptionActive
}
