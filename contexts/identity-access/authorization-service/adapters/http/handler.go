package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "showingcover/contexts/identity-access/authorization-service/application"
	"showingcover/contexts/identity-access/authorization-service/application/commands"
	"showingcover/contexts/identity-access/authorization-service/application/queries"
	"showingcover/contexts/identity-access/authorization-service/domain/entities"
	httptransport "showingcover/contexts/identity-access/authorization-service/transport/http"
)

type Handler struct {
	Authenticate  queries.AuthenticateUseCase
	Authorize     queries.AuthorizeUseCase
	GetProfile    queries.GetProfileUseCase
	EnsureProfile commands.EnsureProfileUseCase
	Logger        *slog.Logger
}

// AuthenticateRequest resolves the bearer header into a verified identity.
func (h Handler) AuthenticateRequest(ctx context.Context, authorizationHeader string) (entities.Identity, error) {
	return h.Authenticate.Execute(ctx, authorizationHeader)
}

// RequireCapability runs the decision table for one request.
func (h Handler) RequireCapability(
	ctx context.Context,
	userID string,
	capability entities.Capability,
	resourceOwnerID string,
) (entities.Decision, error) {
	return h.Authorize.Execute(ctx, queries.AuthorizeQuery{
		UserID:          userID,
		Capability:      capability,
		ResourceOwnerID: resourceOwnerID,
	})
}

// EnsureProfileHandler godoc
// @Summary Create the caller's profile on first sign-in
// @Description Creates the user record from the verified token. Existing profiles are returned unchanged.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ProfileResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /profile [post]
func (h Handler) EnsureProfileHandler(ctx context.Context, identity entities.Identity) (httptransport.ProfileResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.EnsureProfile.Execute(ctx, identity)
	if err != nil {
		logger.Error("ensure profile request failed",
			"event", "http_ensure_profile_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", identity.UserID,
			"error", err.Error(),
		)
		return httptransport.ProfileResponse{}, err
	}
	resp := mapProfile(result.Profile)
	resp.Created = result.Created
	return resp, nil
}

// GetMyProfileHandler godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ProfileResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /profile/me [get]
func (h Handler) GetMyProfileHandler(ctx context.Context, userID string) (httptransport.ProfileResponse, error) {
	profile, err := h.GetProfile.Execute(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return mapProfile(profile), nil
}

func mapProfile(profile entities.Profile) httptransport.ProfileResponse {
	resp := httptransport.ProfileResponse{
		UserID:             profile.UserID,
		Email:              profile.Email,
		Role:               string(profile.Role),
		SubscriptionStatus: string(profile.SubscriptionStatus),
		SubscriptionID:     profile.SubscriptionID,
		CreatedAt:          profile.CreatedAt.UTC().Format(time.RFC3339),
	}
	if profile.Role == entities.RoleAgent {
		resp.SubscriptionSync = string(profile.SubscriptionSync)
	}
	if profile.SubscriptionStart != nil {
		resp.SubscriptionStart = profile.SubscriptionStart.UTC().Format(time.RFC3339)
	}
	return resp
}
