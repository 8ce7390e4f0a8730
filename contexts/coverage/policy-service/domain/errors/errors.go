package errors

import "errors"

var (
	ErrInvalidPolicyRequest = errors.New("invalid policy request")
	ErrInvalidCoverageType  = errors.New("invalid coverage type")
	ErrPolicyNotFound       = errors.New("policy not found")
	ErrDuplicatePolicy      = errors.New("policy already exists")
)
