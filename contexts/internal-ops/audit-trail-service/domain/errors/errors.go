package errors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAuditWriteFailed    = errors.New("audit write failed")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")
)
