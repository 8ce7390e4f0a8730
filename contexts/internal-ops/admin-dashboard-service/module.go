package admindashboardservice

import (
	"log/slog"

	httpadapter "showingcover/contexts/internal-ops/admin-dashboard-service/adapters/http"
	"showingcover/contexts/internal-ops/admin-dashboard-service/application"
	"showingcover/contexts/internal-ops/admin-dashboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
}

type Dependencies struct {
	Profiles    ports.ProfileStats
	Policies    ports.PolicyStats
	Claims      ports.ClaimStats
	Audit       ports.AuditFeed
	Clock       ports.Clock
	RecentLimit int
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Service: application.Service{
				Profiles:    deps.Profiles,
				Policies:    deps.Policies,
				Claims:      deps.Claims,
				Audit:       deps.Audit,
				Clock:       deps.Clock,
				RecentLimit: deps.RecentLimit,
				Logger:      deps.Logger,
			},
		},
	}
}
