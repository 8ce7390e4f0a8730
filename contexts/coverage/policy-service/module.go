package policyservice

import (
	"log/slog"

	httpadapter "showingcover/contexts/coverage/policy-service/adapters/http"
	"showingcover/contexts/coverage/policy-service/adapters/memory"
	"showingcover/contexts/coverage/policy-service/application/commands"
	"showingcover/contexts/coverage/policy-service/application/queries"
	"showingcover/contexts/coverage/policy-service/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	CreatePolicy commands.CreatePolicyUseCase
	GetPolicies  queries.GetPoliciesUseCase
	StatusCounts queries.StatusCountsUseCase
	Store        *memory.Store
}

type Dependencies struct {
	Repository    ports.Repository
	Subscriptions ports.SubscriptionLookup
	Owners        ports.OwnerDirectory
	Claims        ports.ClaimCounter
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			ListForUser: queries.ListForUserUseCase{
				Policies: deps.Repository,
				Clock:    deps.Clock,
			},
			ListAll: queries.ListAllUseCase{
				Policies: deps.Repository,
				Owners:   deps.Owners,
				Claims:   deps.Claims,
				Clock:    deps.Clock,
				Logger:   deps.Logger,
			},
			Logger: deps.Logger,
		},
		CreatePolicy: commands.CreatePolicyUseCase{
			Policies:      deps.Repository,
			Subscriptions: deps.Subscriptions,
			Clock:         deps.Clock,
			IDGenerator:   deps.IDGenerator,
			Logger:        deps.Logger,
		},
		GetPolicies: queries.GetPoliciesUseCase{
			Policies: deps.Repository,
			Clock:    deps.Clock,
		},
		StatusCounts: queries.StatusCountsUseCase{
			Policies: deps.Repository,
			Clock:    deps.Clock,
		},
	}
}

// NewInMemoryModule wires memory adapters. Cross-context ports stay nil
// unless the caller sets them on the returned use cases.
func NewInMemoryModule(deps Dependencies) Module {
	store := memory.NewStore()
	deps.Repository = store
	if deps.Clock == nil {
		deps.Clock = store
	}
	deps.IDGenerator = store
	module := NewModule(deps)
	module.Store = store
	return module
}
