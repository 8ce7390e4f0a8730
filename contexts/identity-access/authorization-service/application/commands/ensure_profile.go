package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "showingcover/contexts/identity-access/authorization-service/application"
	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

type EnsureProfileResult struct {
	Profile entities.Profile
	Created bool
}

// EnsureProfileUseCase creates the user record the first time an identity is
// seen. Existing rows are returned unchanged.
type EnsureProfileUseCase struct {
	Profiles ports.ProfileRepository
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (u EnsureProfileUseCase) Execute(ctx context.Context, identity entities.Identity) (EnsureProfileResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(identity.UserID) == "" {
		return EnsureProfileResult{}, domainerrors.ErrInvalidUserID
	}

	existing, err := u.Profiles.GetProfile(ctx, identity.UserID)
	if err == nil {
		return EnsureProfileResult{Profile: existing}, nil
	}
	if !errors.Is(err, domainerrors.ErrProfileNotFound) {
		return EnsureProfileResult{}, err
	}

	role, err := signupRole(identity.RoleHint)
	if err != nil {
		return EnsureProfileResult{}, err
	}
	profile, err := entities.NewProfile(identity.UserID, identity.Email, role, u.now())
	if err != nil {
		return EnsureProfileResult{}, err
	}

	stored, created, err := u.Profiles.CreateProfile(ctx, profile)
	if err != nil {
		logger.Error("profile create failed",
			"event", "authz_profile_create_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", identity.UserID,
			"error", err.Error(),
		)
		return EnsureProfileResult{}, err
	}
	if created {
		logger.Info("profile created",
			"event", "authz_profile_created",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", stored.UserID,
			"role", string(stored.Role),
		)
	}
	return EnsureProfileResult{Profile: stored, Created: created}, nil
}

func (u EnsureProfileUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

// signupRole maps the sign-up hint to a role. Admin is never self-assigned.
func signupRole(hint string) (entities.Role, error) {
	switch entities.Role(strings.ToLower(strings.TrimSpace(hint))) {
	case "", entities.RoleHomeowner:
		return entities.RoleHomeowner, nil
	case entities.RoleAgent:
		return entities.RoleAgent, nil
	default:
		return "", domainerrors.ErrInvalidRole
	}
}
