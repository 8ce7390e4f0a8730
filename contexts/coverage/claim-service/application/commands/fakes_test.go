package commands

import (
	"context"
	"errors"
	"sync"
	"time"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	"showingcover/contexts/coverage/claim-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type profile struct {
	role   string
	active bool
}

// stubAuthorizer mirrors the capability table for a fixed set of profiles.
type stubAuthorizer struct {
	profiles map[string]profile
	err      error
}

func (s stubAuthorizer) Authorize(_ context.Context, userID string, capability string, owner string) (ports.AuthorizationDecision, error) {
	if s.err != nil {
		return ports.AuthorizationDecision{}, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return ports.AuthorizationDecision{Reason: "profile_missing"}, nil
	}
	switch capability {
	case ports.CapabilityAdminOnly:
		if p.role != "admin" {
			return ports.AuthorizationDecision{Reason: "admin_required"}, nil
		}
	case ports.CapabilityAgentClaimsFiling:
		if p.role != "agent" {
			return ports.AuthorizationDecision{Reason: "agent_required"}, nil
		}
		if !p.active {
			return ports.AuthorizationDecision{Reason: "subscription_inactive"}, nil
		}
	case ports.CapabilitySelfServiceRead:
		if owner == "" || owner != userID {
			return ports.AuthorizationDecision{Reason: "not_resource_owner"}, nil
		}
	}
	return ports.AuthorizationDecision{Allowed: true, Reason: "allowed"}, nil
}

func defaultAuthorizer() stubAuthorizer {
	return stubAuthorizer{profiles: map[string]profile{
		"admin-1": {role: "admin"},
		"agent-1": {role: "agent", active: true},
		"agent-2": {role: "agent", active: false},
		"home-1":  {role: "homeowner"},
		"home-2":  {role: "homeowner"},
	}}
}

type recordingAudit struct {
	mu        sync.Mutex
	entries   []ports.AuditEntry
	notes     []ports.AdminNote
	failAudit bool
	failNotes bool
}

func (r *recordingAudit) AppendAuditEntry(_ context.Context, entry ports.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAudit {
		return errors.New("audit store down")
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAudit) AppendAdminNote(_ context.Context, note ports.AdminNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNotes {
		return errors.New("notes store down")
	}
	r.notes = append(r.notes, note)
	return nil
}

func (r *recordingAudit) entryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type stubPolicies map[string]entities.PolicyRef

func (s stubPolicies) GetPolicies(_ context.Context, ids []string) (map[string]entities.PolicyRef, error) {
	out := make(map[string]entities.PolicyRef, len(ids))
	for _, id := range ids {
		if policy, ok := s[id]; ok {
			out[id] = policy
		}
	}
	return out, nil
}

func (s stubPolicies) PoliciesOwnedBy(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for id, policy := range s {
		if policy.UserID == userID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type stubEvidence struct {
	calls int
}

func (s *stubEvidence) PresignUpload(_ context.Context, ownerID string, filename string, _ string, ttl time.Duration) (ports.EvidenceUpload, error) {
	s.calls++
	return ports.EvidenceUpload{
		Key:       "claims/" + ownerID + "/01TEST-" + filename,
		URL:       "https://uploads.example/" + filename,
		ExpiresAt: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC).Add(ttl),
	}, nil
}
