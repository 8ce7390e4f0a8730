package entities

import (
	"strings"
	"time"

	domainerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
)

const (
	ResourceClaim  = "claim"
	ResourcePolicy = "policy"
	ResourceUser   = "user"
)

// AuditEntry is an append-only record of one admin action. Entries are never
// updated or deleted.
type AuditEntry struct {
	AuditID      string
	AdminID      string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	CreatedAt    time.Time
}

// AdminNote is free text attached to a resource by an admin.
type AdminNote struct {
	NoteID       string
	ResourceType string
	ResourceID   string
	AdminID      string
	Note         string
	CreatedAt    time.Time
}

func (e AuditEntry) Validate() error {
	if strings.TrimSpace(e.AdminID) == "" {
		return domainerrors.ErrUnauthorized
	}
	if strings.TrimSpace(e.Action) == "" ||
		!ValidResourceType(e.ResourceType) ||
		strings.TrimSpace(e.ResourceID) == "" {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (n AdminNote) Validate() error {
	if strings.TrimSpace(n.AdminID) == "" {
		return domainerrors.ErrUnauthorized
	}
	if !ValidResourceType(n.ResourceType) ||
		strings.TrimSpace(n.ResourceID) == "" ||
		strings.TrimSpace(n.Note) == "" {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func ValidResourceType(value string) bool {
	switch value {
	case ResourceClaim, ResourcePolicy, ResourceUser:
		return true
	default:
		return false
	}
}
