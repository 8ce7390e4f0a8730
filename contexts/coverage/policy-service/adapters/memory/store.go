package memory

import (
	"context"
	"sync"
	"time"

	"showingcover/contexts/coverage/policy-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"

	"github.com/google/uuid"
)

// Store is an in-memory adapter for tests and local development wiring.
type Store struct {
	mu       sync.RWMutex
	policies map[string]entities.Policy
	bySource map[string]string
	order    []string
}

func NewStore() *Store {
	return &Store{
		policies: make(map[string]entities.Policy),
		bySource: make(map[string]string),
	}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Seed stores policies as-is, including their created_at.
func (s *Store) Seed(policies ...entities.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, policy := range policies {
		s.putLocked(policy)
	}
}

func (s *Store) CreatePolicy(_ context.Context, policy entities.Policy) (entities.Policy, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if policy.SourceEventID != "" {
		if existingID, ok := s.bySource[policy.SourceEventID]; ok {
			return s.policies[existingID], false, nil
		}
	}
	if _, ok := s.policies[policy.PolicyID]; ok {
		return entities.Policy{}, false, domainerrors.ErrDuplicatePolicy
	}
	s.putLocked(policy)
	return policy, true, nil
}

func (s *Store) putLocked(policy entities.Policy) {
	if _, ok := s.policies[policy.PolicyID]; !ok {
		s.order = append(s.order, policy.PolicyID)
	}
	s.policies[policy.PolicyID] = policy
	if policy.SourceEventID != "" {
		s.bySource[policy.SourceEventID] = policy.PolicyID
	}
}

func (s *Store) GetPolicy(_ context.Context, policyID string) (entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[policyID]
	if !ok {
		return entities.Policy{}, domainerrors.ErrPolicyNotFound
	}
	return policy, nil
}

func (s *Store) ListPoliciesByUser(_ context.Context, userID string) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Policy, 0)
	for _, id := range s.order {
		if policy := s.policies[id]; policy.UserID == userID {
			items = append(items, policy)
		}
	}
	return items, nil
}

func (s *Store) ListPoliciesByIDs(_ context.Context, policyIDs []string) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Policy, 0, len(policyIDs))
	for _, id := range policyIDs {
		if policy, ok := s.policies[id]; ok {
			items = append(items, policy)
		}
	}
	return items, nil
}

func (s *Store) ListAllPolicies(_ context.Context) ([]entities.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Policy, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.policies[id])
	}
	return items, nil
}
