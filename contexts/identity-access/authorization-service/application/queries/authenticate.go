package queries

import (
	"context"
	"fmt"
	"log/slog"

	application "showingcover/contexts/identity-access/authorization-service/application"
	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	"showingcover/contexts/identity-access/authorization-service/domain/services"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

// AuthenticateUseCase turns an Authorization header into a verified identity.
// It never touches the profile store.
type AuthenticateUseCase struct {
	Verifier ports.TokenVerifier
	Logger   *slog.Logger
}

func (u AuthenticateUseCase) Execute(ctx context.Context, authorizationHeader string) (entities.Identity, error) {
	logger := application.ResolveLogger(u.Logger)

	token, ok := services.ParseBearer(authorizationHeader)
	if !ok {
		return entities.Identity{}, fmt.Errorf("%w: bearer token is required", domainerrors.ErrUnauthenticated)
	}
	if u.Verifier == nil {
		return entities.Identity{}, fmt.Errorf("%w: no token verifier configured", domainerrors.ErrUnauthenticated)
	}

	identity, err := u.Verifier.Verify(ctx, token)
	if err != nil {
		logger.Warn("bearer token rejected",
			"event", "authz_token_rejected",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Identity{}, fmt.Errorf("%w: %v", domainerrors.ErrUnauthenticated, err)
	}
	if identity.UserID == "" {
		return entities.Identity{}, fmt.Errorf("%w: token subject is empty", domainerrors.ErrUnauthenticated)
	}
	return identity, nil
}
