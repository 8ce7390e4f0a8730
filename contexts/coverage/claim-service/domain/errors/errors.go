package errors

import "errors"

var (
	ErrInvalidRequest         = errors.New("invalid claim request")
	ErrReasonRequired         = errors.New("denial reason is required")
	ErrInvalidPayout          = errors.New("invalid payout amount")
	ErrClaimNotFound          = errors.New("claim not found")
	ErrPolicyNotFound         = errors.New("policy not found")
	ErrPolicyInactive         = errors.New("policy is not active")
	ErrAlreadyProcessed       = errors.New("claim already processed")
	ErrForbidden              = errors.New("forbidden")
	ErrAuditWriteFailed       = errors.New("audit write failed")
	ErrUnsupportedEvidence    = errors.New("unsupported evidence file")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
	ErrDependencyUnavailable  = errors.New("dependency unavailable")
)
