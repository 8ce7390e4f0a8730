package commands

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"showingcover/contexts/coverage/claim-service/adapters/memory"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"

	"github.com/shopspring/decimal"
)

var decisionNow = time.Date(2026, time.April, 10, 15, 0, 0, 0, time.UTC)

func seedPendingClaim(store *memory.Store, claimID string) {
	store.Seed(entities.Claim{
		ClaimID:        claimID,
		UserID:         "agent-1",
		IncidentDate:   decisionNow.AddDate(0, 0, -3),
		DamagedItems:   []string{"water heater"},
		Description:    "tank burst during showing",
		Status:         entities.StatusPending,
		MaxPayoutCents: 100000,
		CreatedAt:      decisionNow.Add(-time.Hour),
		UpdatedAt:      decisionNow.Add(-time.Hour),
	})
}

func newApprove(store *memory.Store, audit *recordingAudit) ApproveClaimUseCase {
	return ApproveClaimUseCase{
		Claims:      store,
		Authorizer:  defaultAuthorizer(),
		Audit:       audit,
		Clock:       fixedClock{now: decisionNow},
		IDGenerator: store,
	}
}

func newDeny(store *memory.Store, audit *recordingAudit) DenyClaimUseCase {
	return DenyClaimUseCase{
		Claims:      store,
		Authorizer:  defaultAuthorizer(),
		Audit:       audit,
		Clock:       fixedClock{now: decisionNow},
		IDGenerator: store,
	}
}

func TestApproveDefaultsPayoutToMaximum(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")

	result, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{
		ClaimID: "claim-1",
		AdminID: "admin-1",
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Claim.Status != entities.StatusApproved || result.PayoutCents != 100000 {
		t.Fatalf("unexpected result: status=%s payout=%d", result.Claim.Status, result.PayoutCents)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusApproved || stored.PayoutCents == nil || *stored.PayoutCents != 100000 {
		t.Fatalf("stored claim not approved: %+v", stored)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != "approve_claim" || entry.ResourceType != "claim" || entry.ResourceID != "claim-1" || entry.AdminID != "admin-1" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.Details["payout_amount"] != 1000.0 || entry.Details["claim_id"] != "claim-1" {
		t.Fatalf("unexpected audit details: %+v", entry.Details)
	}
	if entry.Details["admin_note"] != nil {
		t.Fatalf("expected nil admin_note, got %v", entry.Details["admin_note"])
	}
	if len(audit.notes) != 0 {
		t.Fatalf("approve without note must not write an admin note")
	}

	outbox := store.OutboxMessages()
	if len(outbox) != 1 || outbox[0].EventType != ports.ClaimDecidedEventType || outbox[0].PartitionKey != "claim-1" {
		t.Fatalf("unexpected outbox: %+v", outbox)
	}
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(outbox[0].Payload, &envelope); err != nil {
		t.Fatalf("decode outbox envelope: %v", err)
	}
	payload, err := ports.DecodeDecidedPayload(envelope)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Status != "approved" || payload.PayoutCents != 100000 || payload.UserID != "agent-1" {
		t.Fatalf("unexpected decided payload: %+v", payload)
	}
}

func TestApproveWithOverrideAndNote(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	payout := decimal.RequireFromString("850.50")

	result, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{
		ClaimID:      "claim-1",
		AdminID:      "admin-1",
		PayoutAmount: &payout,
		AdminNote:    "receipts verified",
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.PayoutCents != 85050 {
		t.Fatalf("expected override payout, got %d", result.PayoutCents)
	}
	if audit.entries[0].Details["payout_amount"] != 850.5 || audit.entries[0].Details["admin_note"] != "receipts verified" {
		t.Fatalf("unexpected audit details: %+v", audit.entries[0].Details)
	}
	if len(audit.notes) != 1 || audit.notes[0].Note != "receipts verified" {
		t.Fatalf("expected admin note, got %+v", audit.notes)
	}
}

func TestApproveRejectsPayoutAboveMaximumWithoutMutation(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	payout := decimal.RequireFromString("1000.01")

	_, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{
		ClaimID:      "claim-1",
		AdminID:      "admin-1",
		PayoutAmount: &payout,
	})
	if !errors.Is(err, domainerrors.ErrInvalidPayout) {
		t.Fatalf("expected invalid payout, got %v", err)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusPending || audit.entryCount() != 0 {
		t.Fatalf("claim must stay pending without audit, status=%s audits=%d", stored.Status, audit.entryCount())
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")

	for _, actor := range []string{"agent-1", "home-1", "ghost"} {
		_, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{ClaimID: "claim-1", AdminID: actor})
		if !errors.Is(err, domainerrors.ErrForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", actor, err)
		}
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusPending || audit.entryCount() != 0 || len(store.OutboxMessages()) != 0 {
		t.Fatalf("forbidden approve must not mutate anything")
	}
}

func TestApproveChecksAdminBeforePayout(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")

	for _, raw := range []string{"12.345", "184467440737096016.16"} {
		payout := decimal.RequireFromString(raw)
		_, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{
			ClaimID:      "claim-1",
			AdminID:      "home-1",
			PayoutAmount: &payout,
		})
		if !errors.Is(err, domainerrors.ErrForbidden) {
			t.Fatalf("%s: expected forbidden for non-admin, got %v", raw, err)
		}
	}
}

func TestApproveRejectsOverflowingPayout(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	// 18446744073709601616 cents wraps to 50000 in an int64.
	payout := decimal.RequireFromString("184467440737096016.16")

	_, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{
		ClaimID:      "claim-1",
		AdminID:      "admin-1",
		PayoutAmount: &payout,
	})
	if !errors.Is(err, domainerrors.ErrInvalidPayout) {
		t.Fatalf("expected invalid payout, got %v", err)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusPending || audit.entryCount() != 0 || len(store.OutboxMessages()) != 0 {
		t.Fatalf("overflowing payout must not mutate anything")
	}
}

func TestDenyRequiresAdmin(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")

	for _, actor := range []string{"agent-1", "home-1", "ghost"} {
		for _, reason := range []string{"not covered", ""} {
			_, err := newDeny(store, audit).Execute(context.Background(), DenyClaimCommand{
				ClaimID: "claim-1",
				AdminID: actor,
				Reason:  reason,
			})
			if !errors.Is(err, domainerrors.ErrForbidden) {
				t.Fatalf("%s with reason %q: expected forbidden, got %v", actor, reason, err)
			}
		}
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusPending || audit.entryCount() != 0 || len(audit.notes) != 0 || len(store.OutboxMessages()) != 0 {
		t.Fatalf("forbidden deny must not mutate anything")
	}
}

func TestApproveAuthorizerFailureIsNotForbidden(t *testing.T) {
	store := memory.NewStore()
	seedPendingClaim(store, "claim-1")
	useCase := newApprove(store, &recordingAudit{})
	useCase.Authorizer = stubAuthorizer{err: errors.New("profile store unreachable")}

	_, err := useCase.Execute(context.Background(), ApproveClaimCommand{ClaimID: "claim-1", AdminID: "admin-1"})
	if err == nil || errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestApproveMissingClaim(t *testing.T) {
	store := memory.NewStore()
	_, err := newApprove(store, &recordingAudit{}).Execute(context.Background(), ApproveClaimCommand{ClaimID: "nope", AdminID: "admin-1"})
	if !errors.Is(err, domainerrors.ErrClaimNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDenyTwiceReportsAlreadyProcessed(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	useCase := newDeny(store, audit)

	first, err := useCase.Execute(context.Background(), DenyClaimCommand{
		ClaimID:   "claim-1",
		AdminID:   "admin-1",
		Reason:    "pre-existing damage",
		AdminNote: "photos predate the showing",
	})
	if err != nil {
		t.Fatalf("first deny: %v", err)
	}
	if first.Claim.Status != entities.StatusDenied {
		t.Fatalf("expected denied, got %s", first.Claim.Status)
	}
	if len(audit.notes) != 1 || audit.notes[0].Note != "pre-existing damage\n\nphotos predate the showing" {
		t.Fatalf("unexpected denial note: %+v", audit.notes)
	}

	_, err = useCase.Execute(context.Background(), DenyClaimCommand{ClaimID: "claim-1", AdminID: "admin-1", Reason: "again"})
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}
	if audit.entryCount() != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", audit.entryCount())
	}
	if audit.entries[0].Details["reason"] != "pre-existing damage" {
		t.Fatalf("unexpected deny details: %+v", audit.entries[0].Details)
	}
}

func TestDenyRequiresReasonBeforeAnyMutation(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")

	_, err := newDeny(store, audit).Execute(context.Background(), DenyClaimCommand{ClaimID: "claim-1", AdminID: "admin-1", Reason: "   "})
	if !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusPending || audit.entryCount() != 0 || len(audit.notes) != 0 {
		t.Fatalf("empty reason must not mutate anything")
	}
}

func TestApproveAfterDenyIsRejected(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	if _, err := newDeny(store, audit).Execute(context.Background(), DenyClaimCommand{ClaimID: "claim-1", AdminID: "admin-1", Reason: "fraud"}); err != nil {
		t.Fatalf("deny: %v", err)
	}
	_, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{ClaimID: "claim-1", AdminID: "admin-1"})
	if !errors.Is(err, domainerrors.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusDenied {
		t.Fatalf("terminal status changed to %s", stored.Status)
	}
}

func TestConcurrentApprovesSucceedOnce(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{}
	seedPendingClaim(store, "claim-1")
	useCase := newApprove(store, audit)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		processed int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := useCase.Execute(context.Background(), ApproveClaimCommand{ClaimID: "claim-1", AdminID: "admin-1"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainerrors.ErrAlreadyProcessed):
				processed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || processed != attempts-1 {
		t.Fatalf("expected 1 success and %d already processed, got %d/%d", attempts-1, successes, processed)
	}
	if audit.entryCount() != 1 || len(store.OutboxMessages()) != 1 {
		t.Fatalf("expected one audit entry and one outbox row, got %d/%d", audit.entryCount(), len(store.OutboxMessages()))
	}
}

func TestAuditFailureIsReportedAfterCommit(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{failAudit: true}
	seedPendingClaim(store, "claim-1")

	result, err := newApprove(store, audit).Execute(context.Background(), ApproveClaimCommand{ClaimID: "claim-1", AdminID: "admin-1"})
	if !errors.Is(err, domainerrors.ErrAuditWriteFailed) {
		t.Fatalf("expected audit write failure, got %v", err)
	}
	if result.Claim.Status != entities.StatusApproved {
		t.Fatalf("expected committed claim in result, got %s", result.Claim.Status)
	}
	stored, _ := store.GetClaim(context.Background(), "claim-1")
	if stored.Status != entities.StatusApproved {
		t.Fatalf("transition must stay committed, got %s", stored.Status)
	}
}

func TestNoteFailureDoesNotFailDenial(t *testing.T) {
	store := memory.NewStore()
	audit := &recordingAudit{failNotes: true}
	seedPendingClaim(store, "claim-1")

	if _, err := newDeny(store, audit).Execute(context.Background(), DenyClaimCommand{ClaimID: "claim-1", AdminID: "admin-1", Reason: "duplicate"}); err != nil {
		t.Fatalf("deny should succeed despite note failure: %v", err)
	}
	if audit.entryCount() != 1 {
		t.Fatalf("audit entry must still be written")
	}
}
