package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "showingcover/contexts/coverage/policy-service/application"
	"showingcover/contexts/coverage/policy-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/policy-service/domain/errors"
	"showingcover/contexts/coverage/policy-service/domain/services"
	"showingcover/contexts/coverage/policy-service/ports"
)

type CreatePolicyCommand struct {
	UserID          string
	PropertyAddress string
	CoverageType    string
	// SourceEventID ties the policy to the payment event that paid for it.
	SourceEventID string
}

type CreatePolicyResult struct {
	Policy  entities.Policy
	Created bool
}

type CreatePolicyUseCase struct {
	Policies      ports.Repository
	Subscriptions ports.SubscriptionLookup
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func (u CreatePolicyUseCase) Execute(ctx context.Context, cmd CreatePolicyCommand) (CreatePolicyResult, error) {
	logger := application.ResolveLogger(u.Logger)

	coverage := entities.CoverageType(strings.ToLower(strings.TrimSpace(cmd.CoverageType)))
	if !coverage.Valid() {
		return CreatePolicyResult{}, domainerrors.ErrInvalidCoverageType
	}
	if strings.TrimSpace(cmd.UserID) == "" || strings.TrimSpace(cmd.PropertyAddress) == "" {
		return CreatePolicyResult{}, domainerrors.ErrInvalidPolicyRequest
	}

	subscriptionStatus := ""
	if coverage == entities.CoverageSubscription {
		if u.Subscriptions == nil {
			return CreatePolicyResult{}, domainerrors.ErrInvalidPolicyRequest
		}
		status, err := u.Subscriptions.SubscriptionStatus(ctx, cmd.UserID)
		if err != nil {
			logger.Error("policy subscription lookup failed",
				"event", "policy_subscription_lookup_failed",
				"module", "coverage/policy-service",
				"layer", "application",
				"user_id", cmd.UserID,
				"error", err.Error(),
			)
			return CreatePolicyResult{}, err
		}
		subscriptionStatus = status
	}

	policyID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreatePolicyResult{}, err
	}
	policy, err := entities.NewPolicy(
		policyID,
		cmd.UserID,
		cmd.PropertyAddress,
		coverage,
		services.InitialStatus(coverage, subscriptionStatus),
		cmd.SourceEventID,
		u.now(),
	)
	if err != nil {
		return CreatePolicyResult{}, err
	}

	stored, created, err := u.Policies.CreatePolicy(ctx, policy)
	if err != nil {
		logger.Error("policy create failed",
			"event", "policy_create_failed",
			"module", "coverage/policy-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"error", err.Error(),
		)
		return CreatePolicyResult{}, err
	}

	logger.Info("policy created",
		"event", "policy_created",
		"module", "coverage/policy-service",
		"layer", "application",
		"policy_id", stored.PolicyID,
		"user_id", stored.UserID,
		"coverage_type", string(stored.CoverageType),
		"status", string(stored.Status),
		"replayed", !created,
	)
	return CreatePolicyResult{Policy: stored, Created: created}, nil
}

func (u CreatePolicyUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
