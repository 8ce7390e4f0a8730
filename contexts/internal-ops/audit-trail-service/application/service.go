package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
	"showingcover/contexts/internal-ops/audit-trail-service/ports"
)

const ActionAddAdminNote = "add_admin_note"

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDs            ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// AppendAuditEntry stores one entry. Every failure is returned to the caller.
func (s Service) AppendAuditEntry(ctx context.Context, entry entities.AuditEntry) (entities.AuditEntry, error) {
	if err := entry.Validate(); err != nil {
		return entities.AuditEntry{}, err
	}
	if entry.AuditID == "" {
		id, err := s.IDs.NewID(ctx)
		if err != nil {
			return entities.AuditEntry{}, fmt.Errorf("%w: %v", domainerrors.ErrAuditWriteFailed, err)
		}
		entry.AuditID = id
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.Clock.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	if err := s.Repo.AppendAuditEntry(ctx, entry); err != nil {
		s.logger().Error("audit entry append failed",
			"event", "audit_entry_append_failed",
			"module", "internal-ops/audit-trail-service",
			"layer", "application",
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"error", err.Error(),
		)
		return entities.AuditEntry{}, fmt.Errorf("%w: %v", domainerrors.ErrAuditWriteFailed, err)
	}
	return entry, nil
}

// AppendNote stores an admin note without auditing it.
func (s Service) AppendNote(ctx context.Context, note entities.AdminNote) (entities.AdminNote, error) {
	note.Note = strings.TrimSpace(note.Note)
	if err := note.Validate(); err != nil {
		return entities.AdminNote{}, err
	}
	if note.NoteID == "" {
		id, err := s.IDs.NewID(ctx)
		if err != nil {
			return entities.AdminNote{}, err
		}
		note.NoteID = id
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = s.Clock.Now().UTC()
	}
	if err := s.Repo.AppendNote(ctx, note); err != nil {
		return entities.AdminNote{}, err
	}
	return note, nil
}

type AddNoteInput struct {
	AdminID      string
	ResourceType string
	ResourceID   string
	Note         string
}

// AddNote is the standalone note operation: the note is stored and then
// audited as add_admin_note. A repeated idempotency key returns the stored
// note.
func (s Service) AddNote(ctx context.Context, idempotencyKey string, input AddNoteInput) (entities.AdminNote, error) {
	candidate := entities.AdminNote{
		ResourceType: strings.TrimSpace(input.ResourceType),
		ResourceID:   strings.TrimSpace(input.ResourceID),
		AdminID:      strings.TrimSpace(input.AdminID),
		Note:         strings.TrimSpace(input.Note),
	}
	if err := candidate.Validate(); err != nil {
		return entities.AdminNote{}, err
	}

	now := s.Clock.Now().UTC()
	key := strings.TrimSpace(idempotencyKey)
	if key != "" && s.Idempotency != nil {
		requestHash := hashPayload(input)
		existing, err := s.Idempotency.Get(ctx, key, now)
		if err != nil {
			return entities.AdminNote{}, err
		}
		if existing != nil {
			if existing.RequestHash != requestHash {
				return entities.AdminNote{}, domainerrors.ErrIdempotencyConflict
			}
			if len(existing.ResponseBody) > 0 {
				var cached entities.AdminNote
				if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
					return entities.AdminNote{}, err
				}
				return cached, nil
			}
		}
		if err := s.Idempotency.Reserve(ctx, key, requestHash, now.Add(s.idempotencyTTL())); err != nil {
			return entities.AdminNote{}, err
		}
	}

	candidate.CreatedAt = now
	note, err := s.AppendNote(ctx, candidate)
	if err != nil {
		return entities.AdminNote{}, err
	}
	if _, err := s.AppendAuditEntry(ctx, entities.AuditEntry{
		AdminID:      note.AdminID,
		Action:       ActionAddAdminNote,
		ResourceType: note.ResourceType,
		ResourceID:   note.ResourceID,
		Details: map[string]any{
			"note_id": note.NoteID,
			"note":    note.Note,
		},
		CreatedAt: now,
	}); err != nil {
		return note, err
	}

	if key != "" && s.Idempotency != nil {
		body, err := json.Marshal(note)
		if err != nil {
			return entities.AdminNote{}, err
		}
		if err := s.Idempotency.Complete(ctx, key, body, now); err != nil {
			return entities.AdminNote{}, err
		}
	}
	return note, nil
}

func (s Service) ListRecent(ctx context.Context, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.Repo.ListRecentAuditEntries(ctx, limit)
}

func (s Service) ListNotes(ctx context.Context, resourceType string, resourceID string) ([]entities.AdminNote, error) {
	resourceType = strings.TrimSpace(resourceType)
	resourceID = strings.TrimSpace(resourceID)
	if !entities.ValidResourceType(resourceType) || resourceID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Repo.ListNotes(ctx, resourceType, resourceID)
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func hashPayload(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
