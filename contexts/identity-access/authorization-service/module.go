package authorization

import (
	"log/slog"

	httpadapter "showingcover/contexts/identity-access/authorization-service/adapters/http"
	jwtadapter "showingcover/contexts/identity-access/authorization-service/adapters/jwt"
	"showingcover/contexts/identity-access/authorization-service/adapters/memory"
	"showingcover/contexts/identity-access/authorization-service/application/commands"
	"showingcover/contexts/identity-access/authorization-service/application/queries"
	"showingcover/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
type Module struct {
	Handler      httpadapter.Handler
	Profiles     ports.ProfileRepository
	ListProfiles queries.ListProfilesUseCase
	Store        *memory.Store
}

// Dependencies captures all runtime ports required by NewModule.
type Dependencies struct {
	Profiles ports.ProfileRepository
	Verifier ports.TokenVerifier
	Clock    ports.Clock
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	handler := httpadapter.Handler{
		Authenticate: queries.AuthenticateUseCase{
			Verifier: deps.Verifier,
			Logger:   deps.Logger,
		},
		Authorize: queries.AuthorizeUseCase{
			Profiles: deps.Profiles,
			Logger:   deps.Logger,
		},
		GetProfile: queries.GetProfileUseCase{
			Profiles: deps.Profiles,
		},
		EnsureProfile: commands.EnsureProfileUseCase{
			Profiles: deps.Profiles,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
		Logger: deps.Logger,
	}

	return Module{
		Handler:      handler,
		Profiles:     deps.Profiles,
		ListProfiles: queries.ListProfilesUseCase{Profiles: deps.Profiles},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and an HS256 verifier for the given secret.
func NewInMemoryModule(logger *slog.Logger, jwtSecret string) Module {
	store := memory.NewStore()
	verifier := jwtadapter.HMACVerifier{Secret: []byte(jwtSecret)}
	module := NewModule(Dependencies{
		Profiles: store,
		Verifier: verifier,
		Clock:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
