package entities

import (
	"strings"
	"time"

	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

type Claim struct {
	ClaimID        string
	UserID         string
	PolicyID       string
	IncidentDate   time.Time
	DamagedItems   []string
	Description    string
	Files          []string
	Status         Status
	MaxPayoutCents int64
	PayoutCents    *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type NewClaimInput struct {
	ClaimID        string
	Owner          OwnerRef
	PolicyID       string
	IncidentDate   time.Time
	DamagedItems   []string
	Description    string
	Files          []string
	MaxPayoutCents int64
	Now            time.Time
}

// NewClaim builds a pending claim. The owner reference decides which of
// user_id and policy_id carries ownership.
func NewClaim(input NewClaimInput) (Claim, error) {
	if strings.TrimSpace(input.ClaimID) == "" {
		return Claim{}, domainerrors.ErrInvalidRequest
	}
	if err := input.Owner.Validate(); err != nil {
		return Claim{}, err
	}
	if input.IncidentDate.IsZero() || input.IncidentDate.After(input.Now) {
		return Claim{}, domainerrors.ErrInvalidRequest
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Claim{}, domainerrors.ErrInvalidRequest
	}
	items := trimAll(input.DamagedItems)
	if len(items) == 0 {
		return Claim{}, domainerrors.ErrInvalidRequest
	}
	if input.MaxPayoutCents <= 0 {
		return Claim{}, domainerrors.ErrInvalidPayout
	}

	claim := Claim{
		ClaimID:        input.ClaimID,
		PolicyID:       strings.TrimSpace(input.PolicyID),
		IncidentDate:   input.IncidentDate.UTC(),
		DamagedItems:   items,
		Description:    description,
		Files:          trimAll(input.Files),
		Status:         StatusPending,
		MaxPayoutCents: input.MaxPayoutCents,
		CreatedAt:      input.Now.UTC(),
		UpdatedAt:      input.Now.UTC(),
	}
	switch input.Owner.Kind {
	case OwnerDirect:
		claim.UserID = input.Owner.UserID
	case OwnerViaPolicy:
		claim.PolicyID = input.Owner.PolicyID
	}
	return claim, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
