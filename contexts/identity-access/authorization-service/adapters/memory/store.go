package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

// Store is an in-memory adapter implementing the profile repository and clock.
// Conditional updates run under the write lock so they keep the same
// single-row semantics as the postgres adapter.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]entities.Profile

	lookups int
}

func NewStore() *Store {
	return &Store{profiles: make(map[string]entities.Profile)}
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

// Seed inserts or replaces profiles directly. Used by tests and local wiring.
func (s *Store) Seed(profiles ...entities.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range profiles {
		if profile.SubscriptionStatus == "" {
			profile.SubscriptionStatus = entities.SubscriptionNone
		}
		if profile.SubscriptionSync == "" {
			profile.SubscriptionSync = entities.SubscriptionSyncConfirmed
		}
		s.profiles[profile.UserID] = profile
	}
}

// Lookups reports how many profile reads were served.
func (s *Store) Lookups() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups
}

func (s *Store) GetProfile(_ context.Context, userID string) (entities.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	profile, ok := s.profiles[userID]
	if !ok {
		return entities.Profile{}, domainerrors.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) ListProfiles(_ context.Context, userIDs []string) ([]entities.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.profiles[id]; ok {
			items = append(items, profile)
		}
	}
	return items, nil
}

func (s *Store) CreateProfile(_ context.Context, profile entities.Profile) (entities.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[profile.UserID]; ok {
		return existing, false, nil
	}
	s.profiles[profile.UserID] = profile
	return profile, true, nil
}

func (s *Store) ApplySubscriptionSnapshot(_ context.Context, snapshot ports.SubscriptionSnapshot, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[snapshot.UserID]
	if !ok {
		return false, domainerrors.ErrProfileNotFound
	}
	if profile.Role != entities.RoleAgent {
		return false, domainerrors.ErrRoleMismatch
	}
	occurredAt := snapshot.OccurredAt.UTC()
	if profile.SubscriptionEventAt != nil && profile.SubscriptionEventAt.After(occurredAt) {
		return false, nil
	}

	profile.SubscriptionStatus = snapshot.Status
	if snapshot.SubscriptionID != "" {
		profile.SubscriptionID = snapshot.SubscriptionID
	}
	if snapshot.StartedAt != nil {
		started := snapshot.StartedAt.UTC()
		profile.SubscriptionStart = &started
	}
	profile.SubscriptionEventAt = &occurredAt
	profile.SubscriptionSync = entities.SubscriptionSyncConfirmed
	profile.UpdatedAt = now.UTC()
	s.profiles[snapshot.UserID] = profile
	return true, nil
}

func (s *Store) MarkSubscriptionCancelled(_ context.Context, userID string, subscriptionID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return false, domainerrors.ErrProfileNotFound
	}
	if profile.SubscriptionID != subscriptionID || profile.SubscriptionStatus != entities.SubscriptionActive {
		return false, nil
	}
	profile.SubscriptionStatus = entities.SubscriptionCancelled
	profile.SubscriptionSync = entities.SubscriptionSyncOptimistic
	profile.UpdatedAt = now.UTC()
	s.profiles[userID] = profile
	return true, nil
}

func (s *Store) CountProfilesByRole(_ context.Context) ([]ports.RoleCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		role   entities.Role
		status entities.SubscriptionStatus
	}
	counts := make(map[key]int)
	for _, profile := range s.profiles {
		counts[key{role: profile.Role, status: profile.SubscriptionStatus}]++
	}
	items := make([]ports.RoleCount, 0, len(counts))
	for k, count := range counts {
		items = append(items, ports.RoleCount{Role: k.role, SubscriptionStatus: k.status, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Role == items[j].Role {
			return items[i].SubscriptionStatus < items[j].SubscriptionStatus
		}
		return items[i].Role < items[j].Role
	})
	return items, nil
}
