package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "showingcover/contexts/identity-access/authorization-service/application"
	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/domain/services"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

type AuthorizeQuery struct {
	UserID          string
	Capability      entities.Capability
	ResourceOwnerID string
}

// AuthorizeUseCase re-reads the profile on every call and applies the
// decision table. A denied decision is returned together with ErrForbidden.
type AuthorizeUseCase struct {
	Profiles ports.ProfileRepository
	Logger   *slog.Logger
}

func (u AuthorizeUseCase) Execute(ctx context.Context, query AuthorizeQuery) (entities.Decision, error) {
	if strings.TrimSpace(query.UserID) == "" {
		return entities.Decision{}, domainerrors.ErrInvalidUserID
	}
	if !query.Capability.Valid() {
		return entities.Decision{}, domainerrors.ErrInvalidCapability
	}

	logger := application.ResolveLogger(u.Logger)

	var profile *entities.Profile
	loaded, err := u.Profiles.GetProfile(ctx, query.UserID)
	switch {
	case err == nil:
		profile = &loaded
	case errors.Is(err, domainerrors.ErrProfileNotFound):
		profile = nil
	default:
		logger.Error("authorize profile lookup failed",
			"event", "authz_profile_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"capability", string(query.Capability),
			"error", err.Error(),
		)
		return entities.Decision{}, err
	}

	decision := services.Decide(profile, query.Capability, query.ResourceOwnerID)
	decision.UserID = query.UserID
	if !decision.Allowed {
		logger.Warn("authorization denied",
			"event", "authz_denied",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"capability", string(query.Capability),
			"reason", decision.Reason,
		)
		return decision, fmt.Errorf("%w: %s", domainerrors.ErrForbidden, decision.Reason)
	}
	return decision, nil
}
