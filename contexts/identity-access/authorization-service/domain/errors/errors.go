package errors

import "errors"

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidCapability   = errors.New("invalid capability")
	ErrInvalidSubscription = errors.New("invalid subscription state")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrRoleMismatch        = errors.New("profile role does not allow subscription state")
)
