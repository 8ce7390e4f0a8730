package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "showingcover/contexts/coverage/policy-service/application"
	"showingcover/contexts/coverage/policy-service/application/queries"
	httptransport "showingcover/contexts/coverage/policy-service/transport/http"
)

type Handler struct {
	ListForUser queries.ListForUserUseCase
	ListAll     queries.ListAllUseCase
	Logger      *slog.Logger
}

// ListMyPoliciesHandler godoc
// @Summary List the caller's policies
// @Description Returns the caller's policies newest first with derived status and expiry date.
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListPoliciesResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /policies [get]
func (h Handler) ListMyPoliciesHandler(ctx context.Context, userID string) (httptransport.ListPoliciesResponse, error) {
	items, err := h.ListForUser.Execute(ctx, userID)
	if err != nil {
		application.ResolveLogger(h.Logger).Error("list policies request failed",
			"event", "http_list_policies_failed",
			"module", "coverage/policy-service",
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.ListPoliciesResponse{}, err
	}
	resp := httptransport.ListPoliciesResponse{Items: make([]httptransport.PolicyDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, mapPolicy(item))
	}
	return resp, nil
}

// ListAllPoliciesHandler godoc
// @Summary List all policies
// @Description Admin listing with owner email and claim count per policy.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListAdminPoliciesResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /admin/policies [get]
func (h Handler) ListAllPoliciesHandler(ctx context.Context) (httptransport.ListAdminPoliciesResponse, error) {
	items, err := h.ListAll.Execute(ctx)
	if err != nil {
		return httptransport.ListAdminPoliciesResponse{}, err
	}
	resp := httptransport.ListAdminPoliciesResponse{Items: make([]httptransport.AdminPolicyDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.AdminPolicyDTO{
			PolicyDTO:  mapPolicy(item.PolicyView),
			OwnerEmail: item.OwnerEmail,
			ClaimCount: item.ClaimCount,
		})
	}
	return resp, nil
}

func mapPolicy(view queries.PolicyView) httptransport.PolicyDTO {
	return httptransport.PolicyDTO{
		PolicyID:        view.Policy.PolicyID,
		UserID:          view.Policy.UserID,
		PropertyAddress: view.Policy.PropertyAddress,
		CoverageType:    string(view.Policy.CoverageType),
		Status:          string(view.DerivedStatus),
		StoredStatus:    string(view.Policy.Status),
		CreatedAt:       view.Policy.CreatedAt.UTC().Format(time.RFC3339),
		ExpiryDate:      view.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
