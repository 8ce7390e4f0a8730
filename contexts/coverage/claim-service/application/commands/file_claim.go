package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "showingcover/contexts/coverage/claim-service/application"
	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	"showingcover/contexts/coverage/claim-service/ports"
)

type FileClaimCommand struct {
	ActorID        string
	PolicyID       string
	IncidentDate   time.Time
	DamagedItems   []string
	Description    string
	Files          []string
	IdempotencyKey string
}

type FileClaimResult struct {
	Claim    entities.Claim
	Replayed bool
}

// FileClaimUseCase creates a pending claim.
//
// Claims without a policy are owned directly by the filing agent and need an
// active subscription. Claims against a policy are policy-mediated when the
// actor owns the policy; an agent with an active subscription may also file
// against someone else's policy and then owns the claim directly.
type FileClaimUseCase struct {
	Claims         ports.ClaimRepository
	Policies       ports.PolicyDirectory
	Authorizer     ports.Authorizer
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	MaxPayoutCents int64
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u FileClaimUseCase) Execute(ctx context.Context, cmd FileClaimCommand) (FileClaimResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.ActorID) == "" {
		return FileClaimResult{}, domainerrors.ErrInvalidRequest
	}
	now := u.now()
	key := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashFileClaim(cmd)

	if key != "" && u.Idempotency != nil {
		record, found, err := u.Idempotency.Get(ctx, key, now)
		if err != nil {
			return FileClaimResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				logger.Warn("idempotency key conflict",
					"event", "claim_file_idempotency_conflict",
					"module", "coverage/claim-service",
					"layer", "application",
					"actor_id", cmd.ActorID,
				)
				return FileClaimResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			claim, err := u.Claims.GetClaim(ctx, record.ClaimID)
			if err != nil {
				return FileClaimResult{}, err
			}
			return FileClaimResult{Claim: claim, Replayed: true}, nil
		}
	}

	owner, err := u.resolveOwner(ctx, cmd)
	if err != nil {
		logger.Warn("claim filing rejected",
			"event", "claim_file_rejected",
			"module", "coverage/claim-service",
			"layer", "application",
			"actor_id", cmd.ActorID,
			"policy_id", cmd.PolicyID,
			"error", err.Error(),
		)
		return FileClaimResult{}, err
	}

	claimID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return FileClaimResult{}, err
	}
	claim, err := entities.NewClaim(entities.NewClaimInput{
		ClaimID:        claimID,
		Owner:          owner,
		PolicyID:       cmd.PolicyID,
		IncidentDate:   cmd.IncidentDate,
		DamagedItems:   cmd.DamagedItems,
		Description:    cmd.Description,
		Files:          cmd.Files,
		MaxPayoutCents: u.maxPayout(),
		Now:            now,
	})
	if err != nil {
		return FileClaimResult{}, err
	}
	if err := u.Claims.CreateClaim(ctx, claim); err != nil {
		logger.Error("claim create failed",
			"event", "claim_file_write_failed",
			"module", "coverage/claim-service",
			"layer", "application",
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return FileClaimResult{}, err
	}

	if key != "" && u.Idempotency != nil {
		if err := u.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: requestHash,
			ClaimID:     claim.ClaimID,
			ExpiresAt:   now.Add(u.idempotencyTTL()),
		}); err != nil {
			return FileClaimResult{}, err
		}
	}

	logger.Info("claim filed",
		"event", "claim_filed",
		"module", "coverage/claim-service",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"owner_kind", string(owner.Kind),
		"policy_id", claim.PolicyID,
	)
	return FileClaimResult{Claim: claim}, nil
}

func (u FileClaimUseCase) resolveOwner(ctx context.Context, cmd FileClaimCommand) (entities.OwnerRef, error) {
	policyID := strings.TrimSpace(cmd.PolicyID)
	if policyID == "" {
		if err := requireCapability(ctx, u.Authorizer, cmd.ActorID, ports.CapabilityAgentClaimsFiling, ""); err != nil {
			return entities.OwnerRef{}, err
		}
		return entities.DirectOwner(cmd.ActorID), nil
	}

	if u.Policies == nil {
		return entities.OwnerRef{}, domainerrors.ErrPolicyNotFound
	}
	policies, err := u.Policies.GetPolicies(ctx, []string{policyID})
	if err != nil {
		return entities.OwnerRef{}, err
	}
	policy, ok := policies[policyID]
	if !ok {
		return entities.OwnerRef{}, domainerrors.ErrPolicyNotFound
	}
	if !policy.Active {
		return entities.OwnerRef{}, domainerrors.ErrPolicyInactive
	}

	ownerErr := requireCapability(ctx, u.Authorizer, cmd.ActorID, ports.CapabilitySelfServiceRead, policy.UserID)
	if ownerErr == nil {
		return entities.ViaPolicy(policyID), nil
	}
	if !errors.Is(ownerErr, domainerrors.ErrForbidden) {
		return entities.OwnerRef{}, ownerErr
	}
	if err := requireCapability(ctx, u.Authorizer, cmd.ActorID, ports.CapabilityAgentClaimsFiling, ""); err != nil {
		return entities.OwnerRef{}, err
	}
	return entities.DirectOwner(cmd.ActorID), nil
}

func (u FileClaimUseCase) maxPayout() int64 {
	if u.MaxPayoutCents <= 0 {
		return 100000
	}
	return u.MaxPayoutCents
}

func (u FileClaimUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u FileClaimUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func hashFileClaim(cmd FileClaimCommand) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		cmd.ActorID,
		cmd.PolicyID,
		cmd.IncidentDate.UTC().Format(time.RFC3339),
		strings.Join(cmd.DamagedItems, ","),
		cmd.Description,
		strings.Join(cmd.Files, ","),
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
