package entities

import (
	"strings"
	"time"

	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"
)

// CoverageWindow is how long a policy stays active after creation.
const CoverageWindow = 90 * 24 * time.Hour

type CoverageType string

const (
	CoverageSingle       CoverageType = "single"
	CoverageSubscription CoverageType = "subscription"
)

func (c CoverageType) Valid() bool {
	return c == CoverageSingle || c == CoverageSubscription
}

// Status is the stored lifecycle value.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// DerivedStatus is what readers see. Active policies past their window read
// as expired; other stored values pass through.
type DerivedStatus string

const (
	DerivedActive    DerivedStatus = "active"
	DerivedExpired   DerivedStatus = "expired"
	DerivedPending   DerivedStatus = "pending"
	DerivedCancelled DerivedStatus = "cancelled"
)

type Policy struct {
	PolicyID        string
	UserID          string
	PropertyAddress string
	CoverageType    CoverageType
	Status          Status
	SourceEventID   string
	CreatedAt       time.Time
}

func NewPolicy(
	policyID string,
	userID string,
	propertyAddress string,
	coverageType CoverageType,
	status Status,
	sourceEventID string,
	now time.Time,
) (Policy, error) {
	if strings.TrimSpace(policyID) == "" ||
		strings.TrimSpace(userID) == "" ||
		strings.TrimSpace(propertyAddress) == "" {
		return Policy{}, domainerrors.ErrInvalidPolicyRequest
	}
	if !coverageType.Valid() {
		return Policy{}, domainerrors.ErrInvalidCoverageType
	}
	return Policy{
		PolicyID:        policyID,
		UserID:          strings.TrimSpace(userID),
		PropertyAddress: strings.TrimSpace(propertyAddress),
		CoverageType:    coverageType,
		Status:          status,
		SourceEventID:   strings.TrimSpace(sourceEventID),
		CreatedAt:       now.UTC(),
	}, nil
}
