package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "showingcover/contexts/coverage/claim-service/application"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/domain/services"
	"showingcover/contexts/coverage/claim-service/ports"

	"github.com/shopspring/decimal"
)

const (
	auditActionApprove = "approve_claim"
	auditActionDeny    = "deny_claim"
	resourceTypeClaim  = "claim"
)

type ApproveClaimCommand struct {
	ClaimID string
	AdminID string
	// PayoutAmount overrides the claim's maximum payout when set.
	PayoutAmount *decimal.Decimal
	AdminNote    string
}

type DenyClaimCommand struct {
	ClaimID   string
	AdminID   string
	Reason    string
	AdminNote string
}

type DecisionResult struct {
	Claim       entities.Claim
	PayoutCents int64
}

// ApproveClaimUseCase moves a pending claim to approved.
type ApproveClaimUseCase struct {
	Claims      ports.ClaimRepository
	Authorizer  ports.Authorizer
	Audit       ports.AuditTrail
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute runs, in order: admin authorization, pending check, payout
// validation, conditional transition with outbox event, best-effort admin note,
// mandatory audit entry. An audit failure is returned even though the
// transition has been committed.
func (u ApproveClaimUseCase) Execute(ctx context.Context, cmd ApproveClaimCommand) (DecisionResult, error) {
	if strings.TrimSpace(cmd.ClaimID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return DecisionResult{}, domainerrors.ErrInvalidRequest
	}
	flow := adjudication{
		claims:      u.Claims,
		authorizer:  u.Authorizer,
		audit:       u.Audit,
		clock:       u.Clock,
		idGenerator: u.IDGenerator,
		logger:      application.ResolveLogger(u.Logger),
	}

	if err := flow.authorize(ctx, cmd.ClaimID, cmd.AdminID); err != nil {
		return DecisionResult{}, err
	}
	claim, err := flow.loadPending(ctx, cmd.ClaimID)
	if err != nil {
		return DecisionResult{}, err
	}
	payout, err := services.ResolvePayout(cmd.PayoutAmount, claim.MaxPayoutCents)
	if err != nil {
		return DecisionResult{}, err
	}

	note := strings.TrimSpace(cmd.AdminNote)
	updated, err := flow.commit(ctx, claim, entities.StatusApproved, &payout, "", cmd.AdminID)
	if err != nil {
		return DecisionResult{}, err
	}
	if note != "" {
		flow.appendNote(ctx, updated.ClaimID, cmd.AdminID, note)
	}

	err = flow.appendAudit(ctx, ports.AuditEntry{
		AdminID:      cmd.AdminID,
		Action:       auditActionApprove,
		ResourceType: resourceTypeClaim,
		ResourceID:   updated.ClaimID,
		Details: map[string]any{
			"claim_id":      updated.ClaimID,
			"payout_amount": services.Amount(payout).InexactFloat64(),
			"admin_note":    optionalText(note),
		},
	})
	return DecisionResult{Claim: updated, PayoutCents: payout}, err
}

// DenyClaimUseCase moves a pending claim to denied. A reason is mandatory.
type DenyClaimUseCase struct {
	Claims      ports.ClaimRepository
	Authorizer  ports.Authorizer
	Audit       ports.AuditTrail
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u DenyClaimUseCase) Execute(ctx context.Context, cmd DenyClaimCommand) (DecisionResult, error) {
	if strings.TrimSpace(cmd.ClaimID) == "" || strings.TrimSpace(cmd.AdminID) == "" {
		return DecisionResult{}, domainerrors.ErrInvalidRequest
	}
	flow := adjudication{
		claims:      u.Claims,
		authorizer:  u.Authorizer,
		audit:       u.Audit,
		clock:       u.Clock,
		idGenerator: u.IDGenerator,
		logger:      application.ResolveLogger(u.Logger),
	}
	if err := flow.authorize(ctx, cmd.ClaimID, cmd.AdminID); err != nil {
		return DecisionResult{}, err
	}
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return DecisionResult{}, domainerrors.ErrReasonRequired
	}

	claim, err := flow.loadPending(ctx, cmd.ClaimID)
	if err != nil {
		return DecisionResult{}, err
	}

	note := strings.TrimSpace(cmd.AdminNote)
	updated, err := flow.commit(ctx, claim, entities.StatusDenied, nil, reason, cmd.AdminID)
	if err != nil {
		return DecisionResult{}, err
	}
	flow.appendNote(ctx, updated.ClaimID, cmd.AdminID, services.DenialNoteText(reason, note))

	err = flow.appendAudit(ctx, ports.AuditEntry{
		AdminID:      cmd.AdminID,
		Action:       auditActionDeny,
		ResourceType: resourceTypeClaim,
		ResourceID:   updated.ClaimID,
		Details: map[string]any{
			"claim_id":   updated.ClaimID,
			"reason":     reason,
			"admin_note": optionalText(note),
		},
	})
	return DecisionResult{Claim: updated}, err
}

type adjudication struct {
	claims      ports.ClaimRepository
	authorizer  ports.Authorizer
	audit       ports.AuditTrail
	clock       ports.Clock
	idGenerator ports.IDGenerator
	logger      *slog.Logger
}

func (a adjudication) authorize(ctx context.Context, claimID string, adminID string) error {
	if err := requireCapability(ctx, a.authorizer, adminID, ports.CapabilityAdminOnly, ""); err != nil {
		a.logger.Warn("claim decision not authorized",
			"event", "claim_decision_forbidden",
			"module", "coverage/claim-service",
			"layer", "application",
			"claim_id", claimID,
			"admin_id", adminID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (a adjudication) loadPending(ctx context.Context, claimID string) (entities.Claim, error) {
	claim, err := a.claims.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Claim{}, err
	}
	if err := services.EnsurePending(claim); err != nil {
		return entities.Claim{}, err
	}
	return claim, nil
}

func (a adjudication) commit(
	ctx context.Context,
	claim entities.Claim,
	to entities.Status,
	payout *int64,
	reason string,
	adminID string,
) (entities.Claim, error) {
	now := a.now()
	eventID, err := a.idGenerator.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	event := ports.DecidedEvent{
		EventID:      eventID,
		EventType:    ports.ClaimDecidedEventType,
		ClaimID:      claim.ClaimID,
		Status:       to,
		UserID:       claim.UserID,
		PolicyID:     claim.PolicyID,
		Reason:       reason,
		AdminID:      adminID,
		PartitionKey: claim.ClaimID,
		OccurredAt:   now,
	}
	if payout != nil {
		event.PayoutCents = *payout
	}

	updated, err := a.claims.TransitionFromPending(ctx, ports.TransitionInput{
		ClaimID:     claim.ClaimID,
		To:          to,
		PayoutCents: payout,
		UpdatedAt:   now,
		Event:       event,
	})
	if err != nil {
		a.logger.Warn("claim transition rejected",
			"event", "claim_transition_rejected",
			"module", "coverage/claim-service",
			"layer", "application",
			"claim_id", claim.ClaimID,
			"target_status", string(to),
			"error", err.Error(),
		)
		return entities.Claim{}, err
	}

	a.logger.Info("claim transitioned",
		"event", "claim_transitioned",
		"module", "coverage/claim-service",
		"layer", "application",
		"claim_id", updated.ClaimID,
		"status", string(updated.Status),
		"admin_id", adminID,
	)
	return updated, nil
}

func (a adjudication) appendNote(ctx context.Context, claimID string, adminID string, text string) {
	if a.audit == nil {
		return
	}
	err := a.audit.AppendAdminNote(ctx, ports.AdminNote{
		ResourceType: resourceTypeClaim,
		ResourceID:   claimID,
		AdminID:      adminID,
		Note:         text,
		CreatedAt:    a.now(),
	})
	if err != nil {
		a.logger.Warn("admin note write failed",
			"event", "claim_admin_note_failed",
			"module", "coverage/claim-service",
			"layer", "application",
			"claim_id", claimID,
			"admin_id", adminID,
			"error", err.Error(),
		)
	}
}

func (a adjudication) appendAudit(ctx context.Context, entry ports.AuditEntry) error {
	entry.OccurredAt = a.now()
	var err error
	if a.audit == nil {
		err = errors.New("no audit trail configured")
	} else {
		err = a.audit.AppendAuditEntry(ctx, entry)
	}
	if err != nil {
		a.logger.Error("audit append failed after claim transition",
			"event", "claim_audit_append_failed",
			"module", "coverage/claim-service",
			"layer", "application",
			"claim_id", entry.ResourceID,
			"action", entry.Action,
			"admin_id", entry.AdminID,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrAuditWriteFailed, err)
	}
	return nil
}

func (a adjudication) now() time.Time {
	if a.clock == nil {
		return time.Now().UTC()
	}
	return a.clock.Now().UTC()
}

func optionalText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
