package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"showingcover/contexts/internal-ops/audit-trail-service/adapters/memory"
	"showingcover/contexts/internal-ops/audit-trail-service/domain/entities"
	domainerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
)

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func newService(store *memory.Store) Service {
	return Service{
		Repo:        store,
		Idempotency: store,
		Clock:       fixedClock{now: time.Date(2026, time.July, 4, 9, 30, 0, 0, time.UTC)},
		IDs:         store,
	}
}

func TestAppendAuditEntryAssignsIDAndTimestamp(t *testing.T) {
	store := memory.NewStore()
	entry, err := newService(store).AppendAuditEntry(context.Background(), entities.AuditEntry{
		AdminID:      "admin-1",
		Action:       "approve_claim",
		ResourceType: entities.ResourceClaim,
		ResourceID:   "claim-1",
		Details:      map[string]any{"payout_amount": 1000.0},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.AuditID == "" || entry.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", entry)
	}
	recent, _ := newService(store).ListRecent(context.Background(), 0)
	if len(recent) != 1 || recent[0].Details["payout_amount"] != 1000.0 {
		t.Fatalf("unexpected recent entries: %+v", recent)
	}
}

func TestAppendAuditEntryReportsStoreFailure(t *testing.T) {
	store := memory.NewStore()
	store.FailAuditWrites(errors.New("disk full"))
	_, err := newService(store).AppendAuditEntry(context.Background(), entities.AuditEntry{
		AdminID:      "admin-1",
		Action:       "deny_claim",
		ResourceType: entities.ResourceClaim,
		ResourceID:   "claim-1",
	})
	if !errors.Is(err, domainerrors.ErrAuditWriteFailed) {
		t.Fatalf("expected audit write failure, got %v", err)
	}
}

func TestAppendAuditEntryValidation(t *testing.T) {
	store := memory.NewStore()
	_, err := newService(store).AppendAuditEntry(context.Background(), entities.AuditEntry{
		AdminID:      "admin-1",
		Action:       "approve_claim",
		ResourceType: "invoice",
		ResourceID:   "x",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = newService(store).AppendAuditEntry(context.Background(), entities.AuditEntry{
		Action:       "approve_claim",
		ResourceType: entities.ResourceClaim,
		ResourceID:   "claim-1",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAddNoteIsAuditedAndReplayable(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	input := AddNoteInput{
		AdminID:      "admin-1",
		ResourceType: entities.ResourcePolicy,
		ResourceID:   "pol-1",
		Note:         "  owner called about renewal ",
	}

	first, err := service.AddNote(context.Background(), "note-key", input)
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if first.Note != "owner called about renewal" {
		t.Fatalf("note not trimmed: %q", first.Note)
	}
	second, err := service.AddNote(context.Background(), "note-key", input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.NoteID != first.NoteID {
		t.Fatalf("expected replayed note %s, got %s", first.NoteID, second.NoteID)
	}

	notes, _ := service.ListNotes(context.Background(), entities.ResourcePolicy, "pol-1")
	if len(notes) != 1 {
		t.Fatalf("expected one stored note, got %d", len(notes))
	}
	entries := store.Entries()
	if len(entries) != 1 || entries[0].Action != ActionAddAdminNote || entries[0].Details["note_id"] != first.NoteID {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}

	changed := input
	changed.Note = "different"
	if _, err := service.AddNote(context.Background(), "note-key", changed); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestAddNoteRequiresText(t *testing.T) {
	store := memory.NewStore()
	_, err := newService(store).AddNote(context.Background(), "", AddNoteInput{
		AdminID:      "admin-1",
		ResourceType: entities.ResourceClaim,
		ResourceID:   "claim-1",
		Note:         " ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(store.Entries()) != 0 {
		t.Fatalf("rejected note must not be audited")
	}
}

func TestListNotesValidatesResource(t *testing.T) {
	if _, err := newService(memory.NewStore()).ListNotes(context.Background(), "claim", ""); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
