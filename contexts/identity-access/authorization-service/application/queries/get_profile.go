package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

type GetProfileUseCase struct {
	Profiles ports.ProfileRepository
}

// Execute returns the caller's own profile. A missing row is Forbidden, not
// NotFound, so a signed-in user without a profile cannot enumerate the store.
func (u GetProfileUseCase) Execute(ctx context.Context, userID string) (entities.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.Profile{}, domainerrors.ErrInvalidUserID
	}
	profile, err := u.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, domainerrors.ErrProfileNotFound) {
		return entities.Profile{}, fmt.Errorf("%w: %s", domainerrors.ErrForbidden, entities.ReasonProfileMissing)
	}
	return profile, err
}

type ListProfilesUseCase struct {
	Profiles ports.ProfileRepository
}

func (u ListProfilesUseCase) Execute(ctx context.Context, userIDs []string) ([]entities.Profile, error) {
	ids := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []entities.Profile{}, nil
	}
	return u.Profiles.ListProfiles(ctx, ids)
}
