package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
	"showingcover/contexts/internal-ops/audit-trail-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu          sync.Mutex
	entries     []entities.AuditEntry
	notes       []entities.AdminNote
	idempotency map[string]ports.IdempotencyRecord
	failAudit   error
}

func NewStore() *Store {
	return &Store{
		entries:     make([]entities.AuditEntry, 0, 128),
		notes:       make([]entities.AdminNote, 0, 32),
		idempotency: map[string]ports.IdempotencyRecord{},
	}
}

// FailAuditWrites makes every later AppendAuditEntry return err. Pass nil to
// restore normal behaviour.
func (s *Store) FailAuditWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAudit = err
}

func (s *Store) AppendAuditEntry(_ context.Context, entry entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAudit != nil {
		return s.failAudit
	}
	entry.Details = maps.Clone(entry.Details)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) ListRecentAuditEntries(_ context.Context, limit int) ([]entities.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]entities.AuditEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Entries returns every stored audit entry in append order.
func (s *Store) Entries() []entities.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

func (s *Store) AppendNote(_ context.Context, note entities.AdminNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if note.NoteID == "" {
		return errors.New("note id is required")
	}
	s.notes = append(s.notes, note)
	return nil
}

func (s *Store) ListNotes(_ context.Context, resourceType string, resourceID string) ([]entities.AdminNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.AdminNote, 0)
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].ResourceType == resourceType && s.notes[i].ResourceID == resourceID {
			out = append(out, s.notes[i])
		}
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.idempotency[key]
	if !ok {
		return nil, nil
	}
	if now.After(row.ExpiresAt) {
		delete(s.idempotency, key)
		return nil, nil
	}
	clone := row
	clone.ResponseBody = slices.Clone(row.ResponseBody)
	return &clone, nil
}

func (s *Store) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.idempotency[key]; ok && time.Now().UTC().Before(row.ExpiresAt) {
		if row.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}
	return nil
}

func (s *Store) Complete(_ context.Context, key string, responseBody []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.idempotency[key]
	if !ok {
		return nil
	}
	row.ResponseBody = slices.Clone(responseBody)
	if at.After(row.ExpiresAt) {
		row.ExpiresAt = at.Add(7 * 24 * time.Hour)
	}
	s.idempotency[key] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
