package subscriptionservice

import (
	"log/slog"
	"time"

	httpadapter "showingcover/contexts/billing/subscription-service/adapters/http"
	"showingcover/contexts/billing/subscription-service/adapters/memory"
	"showingcover/contexts/billing/subscription-service/application"
	"showingcover/contexts/billing/subscription-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Subscribers ports.SubscriberStore
	Processor   ports.PaymentProcessor
	Policies    ports.PolicyIssuer
	Dedup       ports.EventDedup
	Clock       ports.Clock
	DedupTTL    time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Subscribers: deps.Subscribers,
		Processor:   deps.Processor,
		Policies:    deps.Policies,
		Dedup:       deps.Dedup,
		Clock:       deps.Clock,
		DedupTTL:    deps.DedupTTL,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service},
		Service: service,
	}
}

// NewInMemoryModule backs event dedup with memory. Subscribers fall back to
// the in-memory projection when the caller does not bridge a profile store.
func NewInMemoryModule(deps Dependencies) Module {
	store := memory.NewStore()
	deps.Dedup = store
	if deps.Subscribers == nil {
		deps.Subscribers = store
	}
	if deps.Clock == nil {
		deps.Clock = store
	}
	module := NewModule(deps)
	module.Store = store
	return module
}
