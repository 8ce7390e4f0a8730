package claimservice

import (
	"log/slog"
	"time"

	httpadapter "showingcover/contexts/coverage/claim-service/adapters/http"
	"showingcover/contexts/coverage/claim-service/adapters/memory"
	"showingcover/contexts/coverage/claim-service/application/commands"
	"showingcover/contexts/coverage/claim-service/application/queries"
	"showingcover/contexts/coverage/claim-service/application/workers"
	"showingcover/contexts/coverage/claim-service/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	CountByPolicy queries.CountByPolicyUseCase
	StatusCounts  queries.StatusCountsUseCase
	OutboxRelay   workers.OutboxRelay
	Notifier      workers.DecisionNotifier
	Store         *memory.Store
}

type Dependencies struct {
	Claims      ports.ClaimRepository
	Outbox      ports.OutboxRepository
	Idempotency ports.IdempotencyStore
	Dedup       ports.EventDedupStore

	Policies   ports.PolicyDirectory
	Owners     ports.OwnerDirectory
	Authorizer ports.Authorizer
	Audit      ports.AuditTrail
	Evidence   ports.EvidenceStore

	Publisher  ports.EventPublisher
	Subscriber ports.EventSubscriber
	Renderer   ports.EmailRenderer
	Sender     ports.EmailSender

	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	MaxPayoutCents int64
	UploadTTL      time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			FileClaim: commands.FileClaimUseCase{
				Claims:         deps.Claims,
				Policies:       deps.Policies,
				Authorizer:     deps.Authorizer,
				Idempotency:    deps.Idempotency,
				Clock:          deps.Clock,
				IDGenerator:    deps.IDGenerator,
				MaxPayoutCents: deps.MaxPayoutCents,
				Logger:         deps.Logger,
			},
			PresignEvidence: commands.PresignEvidenceUseCase{
				Evidence:   deps.Evidence,
				Authorizer: deps.Authorizer,
				UploadTTL:  deps.UploadTTL,
			},
			Approve: commands.ApproveClaimUseCase{
				Claims:      deps.Claims,
				Authorizer:  deps.Authorizer,
				Audit:       deps.Audit,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			Deny: commands.DenyClaimUseCase{
				Claims:      deps.Claims,
				Authorizer:  deps.Authorizer,
				Audit:       deps.Audit,
				Clock:       deps.Clock,
				IDGenerator: deps.IDGenerator,
				Logger:      deps.Logger,
			},
			ListAll: queries.ListAllUseCase{
				Claims:     deps.Claims,
				Policies:   deps.Policies,
				Owners:     deps.Owners,
				Authorizer: deps.Authorizer,
				Logger:     deps.Logger,
			},
			ListMine: queries.ListMineUseCase{
				Claims:   deps.Claims,
				Policies: deps.Policies,
				Logger:   deps.Logger,
			},
			Logger: deps.Logger,
		},
		CountByPolicy: queries.CountByPolicyUseCase{Claims: deps.Claims},
		StatusCounts:  queries.StatusCountsUseCase{Claims: deps.Claims},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Notifier: workers.DecisionNotifier{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Policies:   deps.Policies,
			Owners:     deps.Owners,
			Renderer:   deps.Renderer,
			Sender:     deps.Sender,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule backs claims, outbox, idempotency and dedup with one
// memory store. Cross-context ports come from deps.
func NewInMemoryModule(deps Dependencies) Module {
	store := memory.NewStore()
	deps.Claims = store
	deps.Outbox = store
	deps.Idempotency = store
	deps.Dedup = store
	if deps.Clock == nil {
		deps.Clock = store
	}
	deps.IDGenerator = store
	module := NewModule(deps)
	module.Store = store
	return module
}
