package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	subscriptionservice "showingcover/contexts/billing/subscription-service"
	billingpostgres "showingcover/contexts/billing/subscription-service/adapters/postgres"
	billingredis "showingcover/contexts/billing/subscription-service/adapters/redis"
	stripeadapter "showingcover/contexts/billing/subscription-service/adapters/stripe"
	billingports "showingcover/contexts/billing/subscription-service/ports"
	claimservice "showingcover/contexts/coverage/claim-service"
	emailadapter "showingcover/contexts/coverage/claim-service/adapters/email"
	claimpostgres "showingcover/contexts/coverage/claim-service/adapters/postgres"
	s3adapter "showingcover/contexts/coverage/claim-service/adapters/s3"
	claimports "showingcover/contexts/coverage/claim-service/ports"
	policyservice "showingcover/contexts/coverage/policy-service"
	policypostgres "showingcover/contexts/coverage/policy-service/adapters/postgres"
	authorization "showingcover/contexts/identity-access/authorization-service"
	jwtadapter "showingcover/contexts/identity-access/authorization-service/adapters/jwt"
	authzpostgres "showingcover/contexts/identity-access/authorization-service/adapters/postgres"
	admindashboardservice "showingcover/contexts/internal-ops/admin-dashboard-service"
	audittrailservice "showingcover/contexts/internal-ops/audit-trail-service"
	auditpostgres "showingcover/contexts/internal-ops/audit-trail-service/adapters/postgres"
	"showingcover/internal/platform/config"
	"showingcover/internal/platform/db"
	"showingcover/internal/platform/httpserver"
	"showingcover/internal/platform/messaging"
)

const (
	noteIdempotencyTTL = 7 * 24 * time.Hour
	recentActionsLimit = 20
)

// externals are the clients built once per process and injected into the
// contexts that talk to outside systems.
type externals struct {
	Processor  billingports.PaymentProcessor
	Dedup      billingports.EventDedup
	Evidence   claimports.EvidenceStore
	Publisher  claimports.EventPublisher
	Subscriber claimports.EventSubscriber
	Renderer   claimports.EmailRenderer
	Sender     claimports.EmailSender
}

type limits struct {
	MaxPayoutCents  int64
	UploadTTL       time.Duration
	DedupTTL        time.Duration
	OutboxBatchSize int
}

func limitsFromConfig(cfg config.Config) limits {
	return limits{
		MaxPayoutCents:  cfg.ClaimMaxPayoutCents,
		UploadTTL:       cfg.EvidenceUploadTTL,
		DedupTTL:        cfg.PaymentEventDedupTTL,
		OutboxBatchSize: cfg.OutboxBatchSize,
	}
}

// buildPostgresModules wires every context against one gorm handle.
func buildPostgresModules(
	cfg config.Config,
	pg *db.Postgres,
	ext externals,
	lim limits,
	logger *slog.Logger,
) (httpserver.Modules, error) {
	verifier, err := jwtadapter.NewHMACVerifier(cfg.JWTSecret, cfg.JWTAudience)
	if err != nil {
		return httpserver.Modules{}, err
	}

	var (
		authz    authorization.Module
		policies policyservice.Module
		claims   claimservice.Module
		audit    audittrailservice.Module
	)

	authz = authorization.NewModule(authorization.Dependencies{
		Profiles: authzpostgres.NewRepository(pg.DB, logger),
		Verifier: verifier,
		Clock:    authzpostgres.SystemClock{},
		Logger:   logger,
	})

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	audit = audittrailservice.NewModule(audittrailservice.Dependencies{
		Repository:     auditRepo,
		Idempotency:    auditRepo,
		Clock:          auditpostgres.SystemClock{},
		IDs:            auditpostgres.UUIDGenerator{},
		IdempotencyTTL: noteIdempotencyTTL,
		Logger:         logger,
	})

	policies = policyservice.NewModule(policyservice.Dependencies{
		Repository:    policypostgres.NewRepository(pg.DB, logger),
		Subscriptions: subscriptionLookup{authz: &authz},
		Owners:        ownerDirectory{authz: &authz},
		Claims:        claimCounter{claims: &claims},
		Clock:         policypostgres.SystemClock{},
		IDGenerator:   policypostgres.UUIDGenerator{},
		Logger:        logger,
	})

	claimRepo := claimpostgres.NewRepository(pg.DB, logger)
	claims = claimservice.NewModule(claimservice.Dependencies{
		Claims:         claimRepo,
		Outbox:         claimRepo,
		Idempotency:    claimRepo,
		Dedup:          claimRepo,
		Policies:       policyDirectory{policies: &policies},
		Owners:         ownerDirectory{authz: &authz},
		Authorizer:     claimAuthorizer{authz: &authz},
		Audit:          auditTrail{audit: &audit},
		Evidence:       ext.Evidence,
		Publisher:      ext.Publisher,
		Subscriber:     ext.Subscriber,
		Renderer:       ext.Renderer,
		Sender:         ext.Sender,
		Clock:          claimpostgres.SystemClock{},
		IDGenerator:    claimpostgres.UUIDGenerator{},
		MaxPayoutCents: lim.MaxPayoutCents,
		UploadTTL:      lim.UploadTTL,
		Logger:         logger,
	})
	claims.OutboxRelay.BatchSize = lim.OutboxBatchSize

	dedup := ext.Dedup
	if dedup == nil {
		dedup = billingpostgres.NewEventDedup(pg.DB, logger)
	}
	billing := subscriptionservice.NewModule(subscriptionservice.Dependencies{
		Subscribers: subscriberStore{authz: &authz},
		Processor:   ext.Processor,
		Policies:    policyIssuer{policies: &policies},
		Dedup:       dedup,
		Clock:       billingpostgres.SystemClock{},
		DedupTTL:    lim.DedupTTL,
		Logger:      logger,
	})

	return httpserver.Modules{
		Authorization: authz,
		Policies:      policies,
		Claims:        claims,
		Audit:         audit,
		Dashboard:     buildDashboard(&authz, &policies, &claims, &audit, logger),
		Billing:       billing,
	}, nil
}

// buildMemoryModules wires every context against in-memory stores. Billing
// keeps its own dedup store but reads and writes subscriptions through the
// authorization profiles so both views stay in one place.
func buildMemoryModules(jwtSecret string, ext externals, lim limits, logger *slog.Logger) httpserver.Modules {
	var (
		authz    authorization.Module
		policies policyservice.Module
		claims   claimservice.Module
		audit    audittrailservice.Module
	)

	authz = authorization.NewInMemoryModule(logger, jwtSecret)
	audit = audittrailservice.NewInMemoryModule(logger)
	policies = policyservice.NewInMemoryModule(policyservice.Dependencies{
		Subscriptions: subscriptionLookup{authz: &authz},
		Owners:        ownerDirectory{authz: &authz},
		Claims:        claimCounter{claims: &claims},
		Logger:        logger,
	})
	claims = claimservice.NewInMemoryModule(claimservice.Dependencies{
		Policies:       policyDirectory{policies: &policies},
		Owners:         ownerDirectory{authz: &authz},
		Authorizer:     claimAuthorizer{authz: &authz},
		Audit:          auditTrail{audit: &audit},
		Evidence:       ext.Evidence,
		Publisher:      ext.Publisher,
		Subscriber:     ext.Subscriber,
		Renderer:       ext.Renderer,
		Sender:         ext.Sender,
		MaxPayoutCents: lim.MaxPayoutCents,
		UploadTTL:      lim.UploadTTL,
		Logger:         logger,
	})
	claims.OutboxRelay.BatchSize = lim.OutboxBatchSize

	billing := subscriptionservice.NewInMemoryModule(subscriptionservice.Dependencies{
		Subscribers: subscriberStore{authz: &authz},
		Processor:   ext.Processor,
		Policies:    policyIssuer{policies: &policies},
		DedupTTL:    lim.DedupTTL,
		Logger:      logger,
	})

	return httpserver.Modules{
		Authorization: authz,
		Policies:      policies,
		Claims:        claims,
		Audit:         audit,
		Dashboard:     buildDashboard(&authz, &policies, &claims, &audit, logger),
		Billing:       billing,
	}
}

func buildDashboard(
	authz *authorization.Module,
	policies *policyservice.Module,
	claims *claimservice.Module,
	audit *audittrailservice.Module,
	logger *slog.Logger,
) admindashboardservice.Module {
	return admindashboardservice.NewModule(admindashboardservice.Dependencies{
		Profiles:    profileStats{authz: authz},
		Policies:    policyStats{policies: policies},
		Claims:      claimStats{claims: claims},
		Audit:       auditFeed{audit: audit},
		RecentLimit: recentActionsLimit,
		Logger:      logger,
	})
}

// buildExternals creates the outside-world clients from configuration.
// Missing credentials fall back to local stand-ins so a development process
// can start without any third-party account.
func buildExternals(ctx context.Context, cfg config.Config, logger *slog.Logger) (externals, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	ext := externals{
		Processor: stripeadapter.NewProcessor(stripeadapter.Config{
			SecretKey:           cfg.StripeSecretKey,
			WebhookSecret:       cfg.StripeWebhookSecret,
			SubscriptionPriceID: cfg.StripeSubscriptionPriceID,
			PolicyPriceID:       cfg.StripePolicyPriceID,
			SuccessURL:          cfg.CheckoutSuccessURL,
			CancelURL:           cfg.CheckoutCancelURL,
		}),
	}

	renderer, err := emailadapter.NewTemplateRenderer()
	if err != nil {
		return externals{}, closeAll, fmt.Errorf("load email templates: %w", err)
	}
	ext.Renderer = renderer
	if strings.TrimSpace(cfg.ResendAPIKey) != "" {
		ext.Sender = emailadapter.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		logger.Warn("resend api key not set, decision emails are logged only",
			"event", "bootstrap_email_log_sender",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		ext.Sender = emailadapter.LogSender{Logger: logger}
	}

	if cfg.StoreDriver == config.StorePostgres {
		evidence, err := s3adapter.NewEvidenceStore(ctx, cfg.EvidenceRegion, cfg.EvidenceEndpoint, cfg.EvidenceBucket)
		if err != nil {
			return externals{}, closeAll, fmt.Errorf("load s3 config: %w", err)
		}
		ext.Evidence = evidence
	} else {
		ext.Evidence = s3adapter.NewLocalEvidenceStore(cfg.EvidenceEndpoint, cfg.EvidenceBucket)
	}

	// Redis only backs payment dedup for the postgres store; memory mode keeps
	// dedup in process.
	if cfg.StoreDriver == config.StorePostgres && strings.TrimSpace(cfg.RedisURL) != "" {
		dedup, err := billingredis.NewEventDedup(cfg.RedisURL)
		if err != nil {
			return externals{}, closeAll, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, dedup.Close)
		ext.Dedup = dedup
	}

	if cfg.EnableKafka {
		bus, err := messaging.NewKafkaBus(cfg.KafkaBrokers, logger)
		if err != nil {
			return externals{}, closeAll, fmt.Errorf("create kafka bus: %w", err)
		}
		closers = append(closers, bus.Close)
		ext.Publisher = bus
		ext.Subscriber = bus
	} else {
		bus := messaging.NewBus(logger)
		ext.Publisher = bus
		ext.Subscriber = bus
	}

	return ext, closeAll, nil
}
