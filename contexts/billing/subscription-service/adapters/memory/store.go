package memory

import (
	"context"
	"sync"
	"time"

	"showingcover/contexts/billing/subscription-service/domain/entities"
	domainerrors "showingcover/contexts/billing/subscription-service/domain/errors"
	"showingcover/contexts/billing/subscription-service/ports"
)

type subscriberRow struct {
	subscriber entities.Subscriber
	eventAt    *time.Time
	startedAt  *time.Time
}

// Store keeps payment event reservations in memory. It also holds a local
// subscriber projection used when the module runs without the identity
// context.
type Store struct {
	mu          sync.Mutex
	subscribers map[string]subscriberRow
	reserved    map[string]time.Time
	clock       func() time.Time
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[string]subscriberRow),
		reserved:    make(map[string]time.Time),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock().UTC()
}

func (s *Store) SeedSubscriber(subscriber entities.Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subscriber.Sync == "" {
		subscriber.Sync = entities.SyncConfirmed
	}
	if subscriber.Status == "" {
		subscriber.Status = entities.StatusNone
	}
	s.subscribers[subscriber.UserID] = subscriberRow{subscriber: subscriber}
}

func (s *Store) GetSubscriber(_ context.Context, userID string) (entities.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.subscribers[userID]
	if !ok {
		return entities.Subscriber{}, domainerrors.ErrSubscriberNotFound
	}
	return row.subscriber, nil
}

func (s *Store) ApplySnapshot(_ context.Context, snapshot entities.SubscriptionSnapshot, occurredAt time.Time, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.subscribers[snapshot.UserID]
	if !ok {
		return false, domainerrors.ErrSubscriberNotFound
	}
	if !row.subscriber.IsAgent() {
		return false, domainerrors.ErrNotAgent
	}
	occurredAt = occurredAt.UTC()
	if row.eventAt != nil && row.eventAt.After(occurredAt) {
		return false, nil
	}

	row.subscriber.Status = snapshot.Status
	if snapshot.SubscriptionID != "" {
		row.subscriber.SubscriptionID = snapshot.SubscriptionID
	}
	if snapshot.StartedAt != nil {
		started := snapshot.StartedAt.UTC()
		row.startedAt = &started
	}
	row.subscriber.Sync = entities.SyncConfirmed
	row.eventAt = &occurredAt
	s.subscribers[snapshot.UserID] = row
	return true, nil
}

func (s *Store) MarkCancelled(_ context.Context, userID string, subscriptionID string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.subscribers[userID]
	if !ok {
		return false, domainerrors.ErrSubscriberNotFound
	}
	if row.subscriber.SubscriptionID != subscriptionID || row.subscriber.Status != entities.StatusActive {
		return false, nil
	}
	row.subscriber.Status = entities.StatusCancelled
	row.subscriber.Sync = entities.SyncOptimistic
	s.subscribers[userID] = row
	return true, nil
}

func (s *Store) Reserve(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	if expiresAt, ok := s.reserved[eventID]; ok && now.Before(expiresAt) {
		return false, nil
	}
	s.reserved[eventID] = now.Add(ttl)
	return true, nil
}

func (s *Store) Release(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, eventID)
	return nil
}

var _ ports.SubscriberStore = (*Store)(nil)
var _ ports.EventDedup = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
