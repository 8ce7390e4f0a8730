package http

import (
	"context"
	"time"

	"showingcover/contexts/internal-ops/admin-dashboard-service/application"
	httptransport "showingcover/contexts/internal-ops/admin-dashboard-service/transport/http"
)

type Handler struct {
	Service application.Service
}

// OverviewHandler godoc
// @Summary Admin overview
// @Description User, policy and claim totals with the latest audited admin actions.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.OverviewResponse
// @Failure 403 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /admin/overview [get]
func (h Handler) OverviewHandler(ctx context.Context) (httptransport.OverviewResponse, error) {
	overview, err := h.Service.Overview(ctx)
	if err != nil {
		return httptransport.OverviewResponse{}, err
	}
	resp := httptransport.OverviewResponse{
		GeneratedAt: overview.GeneratedAt.Format(time.RFC3339),
		Users: httptransport.UserTotalsDTO{
			Homeowners:             overview.Users.Homeowners,
			Agents:                 overview.Users.Agents,
			Admins:                 overview.Users.Admins,
			ActiveSubscriptions:    overview.Users.ActiveSubscriptions,
			CancelledSubscriptions: overview.Users.CancelledSubscriptions,
		},
		Policies:      overview.Policies,
		Claims:        overview.Claims,
		RecentActions: make([]httptransport.RecentActionDTO, 0, len(overview.RecentActions)),
	}
	for _, action := range overview.RecentActions {
		resp.RecentActions = append(resp.RecentActions, httptransport.RecentActionDTO{
			AdminID:      action.AdminID,
			Action:       action.Action,
			ResourceType: action.ResourceType,
			ResourceID:   action.ResourceID,
			OccurredAt:   action.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
