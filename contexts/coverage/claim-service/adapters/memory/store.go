package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	message ports.OutboxMessage
	sentAt  *time.Time
}

// Store is an in-memory adapter for tests and local development wiring.
type Store struct {
	mu          sync.RWMutex
	claims      map[string]entities.Claim
	order       []string
	outbox      []outboxRow
	idempotency map[string]ports.IdempotencyRecord
	dedup       map[string]time.Time
	clock       func() time.Time
}

func NewStore() *Store {
	return &Store{
		claims:      make(map[string]entities.Claim),
		idempotency: make(map[string]ports.IdempotencyRecord),
		dedup:       make(map[string]time.Time),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides Now for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Seed stores claims as-is.
func (s *Store) Seed(claims ...entities.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, claim := range claims {
		if _, ok := s.claims[claim.ClaimID]; !ok {
			s.order = append(s.order, claim.ClaimID)
		}
		s.claims[claim.ClaimID] = cloneClaim(claim)
	}
}

func (s *Store) CreateClaim(_ context.Context, claim entities.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claim.ClaimID]; ok {
		return domainerrors.ErrInvalidRequest
	}
	s.claims[claim.ClaimID] = cloneClaim(claim)
	s.order = append(s.order, claim.ClaimID)
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	return cloneClaim(claim), nil
}

func (s *Store) ListClaims(_ context.Context) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Claim, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, cloneClaim(s.claims[id]))
	}
	return items, nil
}

func (s *Store) ListClaimsForOwner(_ context.Context, userID string, policyIDs []string) ([]entities.Claim, error) {
	owned := make(map[string]struct{}, len(policyIDs))
	for _, id := range policyIDs {
		owned[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Claim, 0)
	for _, id := range s.order {
		claim := s.claims[id]
		_, viaPolicy := owned[claim.PolicyID]
		if claim.UserID == userID || (claim.UserID == "" && claim.PolicyID != "" && viaPolicy) {
			items = append(items, cloneClaim(claim))
		}
	}
	return items, nil
}

func (s *Store) CountClaimsByPolicy(_ context.Context, policyIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(policyIDs))
	for _, id := range policyIDs {
		counts[id] = 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, claim := range s.claims {
		if _, ok := counts[claim.PolicyID]; ok && claim.PolicyID != "" {
			counts[claim.PolicyID]++
		}
	}
	return counts, nil
}

// TransitionFromPending applies the pending guard and the outbox append under
// one lock.
func (s *Store) TransitionFromPending(_ context.Context, input ports.TransitionInput) (entities.Claim, error) {
	envelope, err := input.Event.Envelope()
	if err != nil {
		return entities.Claim{}, err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return entities.Claim{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[input.ClaimID]
	if !ok {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	if claim.Status != entities.StatusPending {
		return entities.Claim{}, domainerrors.ErrAlreadyProcessed
	}
	claim.Status = input.To
	if input.PayoutCents != nil {
		payout := *input.PayoutCents
		claim.PayoutCents = &payout
	}
	claim.UpdatedAt = input.UpdatedAt.UTC()
	s.claims[claim.ClaimID] = claim

	s.outbox = append(s.outbox, outboxRow{message: ports.OutboxMessage{
		OutboxID:     input.Event.EventID,
		EventType:    input.Event.EventType,
		PartitionKey: input.Event.PartitionKey,
		Payload:      payload,
		CreatedAt:    input.UpdatedAt.UTC(),
	}})
	return cloneClaim(claim), nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.sentAt != nil {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			at := sentAt.UTC()
			s.outbox[i].sentAt = &at
			return nil
		}
	}
	return nil
}

// OutboxMessages returns every outbox row, sent or not, in write order.
func (s *Store) OutboxMessages() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		items = append(items, row.message)
	}
	return items
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idempotency[record.Key] = record
	return nil
}

// ReserveEvent reports true when the event id was already reserved and has
// not expired.
func (s *Store) ReserveEvent(_ context.Context, eventID string, _ string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock().UTC()
	if existing, ok := s.dedup[eventID]; ok && existing.After(now) {
		return true, nil
	}
	s.dedup[eventID] = expiresAt
	return false, nil
}

func cloneClaim(claim entities.Claim) entities.Claim {
	claim.DamagedItems = append([]string(nil), claim.DamagedItems...)
	claim.Files = append([]string(nil), claim.Files...)
	if claim.PayoutCents != nil {
		payout := *claim.PayoutCents
		claim.PayoutCents = &payout
	}
	return claim
}

