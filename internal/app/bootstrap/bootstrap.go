package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stripeadapter "showingcover/contexts/billing/subscription-service/adapters/stripe"
	billingports "showingcover/contexts/billing/subscription-service/ports"
	emailadapter "showingcover/contexts/coverage/claim-service/adapters/email"
	s3adapter "showingcover/contexts/coverage/claim-service/adapters/s3"
	claimworkers "showingcover/contexts/coverage/claim-service/application/workers"
	claimports "showingcover/contexts/coverage/claim-service/ports"
	"showingcover/internal/platform/config"
	"showingcover/internal/platform/db"
	"showingcover/internal/platform/httpserver"
	"showingcover/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	closeExt func() error
	// inline is set for the memory store, where no separate worker process
	// can see the outbox.
	inline       *relayLoop
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	closeExt func() error
	relay    relayLoop
	logger   *slog.Logger
}

type relayLoop struct {
	outboxRelay  claimworkers.OutboxRelay
	notifier     claimworkers.DecisionNotifier
	pollInterval time.Duration
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	ext, closeExt, err := buildExternals(ctx, cfg, logger)
	if err != nil {
		_ = closeExt()
		return nil, err
	}

	app := &APIApp{
		closeExt:     closeExt,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}

	var modules httpserver.Modules
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			_ = closeExt()
			return nil, err
		}
		app.postgres = pg
		if err := pg.Migrate(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		modules, err = buildPostgresModules(cfg, pg, ext, limitsFromConfig(cfg), logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	default:
		logger.Warn("memory store selected, state is lost on restart",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		modules = buildMemoryModules(cfg.JWTSecret, ext, limitsFromConfig(cfg), logger)
		app.inline = &relayLoop{
			outboxRelay:  modules.Claims.OutboxRelay,
			notifier:     modules.Claims.Notifier,
			pollInterval: cfg.OutboxPollInterval,
		}
	}

	app.server = httpserver.New(modules, httpserver.Options{
		Addr:          normalizeAddr(cfg.HTTPPort),
		EnableSwagger: cfg.EnableSwagger,
	}, logger)
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if cfg.StoreDriver != config.StorePostgres || strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("worker requires STORE_DRIVER=postgres and POSTGRES_DSN")
	}

	ext, closeExt, err := buildExternals(ctx, cfg, logger)
	if err != nil {
		_ = closeExt()
		return nil, err
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		_ = closeExt()
		return nil, err
	}

	modules, err := buildPostgresModules(cfg, pg, ext, limitsFromConfig(cfg), logger)
	if err != nil {
		_ = pg.Close()
		_ = closeExt()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		closeExt: closeExt,
		relay: relayLoop{
			outboxRelay:  modules.Claims.OutboxRelay,
			notifier:     modules.Claims.Notifier,
			pollInterval: cfg.OutboxPollInterval,
		},
		logger: logger,
	}, nil
}

// InMemoryOptions replaces outside clients for tests and local tooling. Nil
// fields get local stand-ins.
type InMemoryOptions struct {
	JWTSecret      string
	Processor      billingports.PaymentProcessor
	Evidence       claimports.EvidenceStore
	Sender         claimports.EmailSender
	MaxPayoutCents int64
	EnableSwagger  bool
	Logger         *slog.Logger
}

// InMemoryAPI is a fully wired API over memory stores. Modules exposes each
// context's store for seeding.
type InMemoryAPI struct {
	Server  *httpserver.Server
	Modules httpserver.Modules
	Bus     *messaging.Bus
}

func NewInMemoryAPI(opts InMemoryOptions) (*InMemoryAPI, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	renderer, err := emailadapter.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	bus := messaging.NewBus(logger)
	ext := externals{
		Processor:  opts.Processor,
		Evidence:   opts.Evidence,
		Publisher:  bus,
		Subscriber: bus,
		Renderer:   renderer,
		Sender:     opts.Sender,
	}
	if ext.Processor == nil {
		ext.Processor = stripeadapter.NewProcessor(stripeadapter.Config{})
	}
	if ext.Evidence == nil {
		ext.Evidence = s3adapter.NewLocalEvidenceStore("", "claim-evidence")
	}
	if ext.Sender == nil {
		ext.Sender = emailadapter.LogSender{Logger: logger}
	}
	maxPayout := opts.MaxPayoutCents
	if maxPayout <= 0 {
		maxPayout = 100000
	}

	modules := buildMemoryModules(opts.JWTSecret, ext, limits{
		MaxPayoutCents:  maxPayout,
		UploadTTL:       15 * time.Minute,
		DedupTTL:        30 * 24 * time.Hour,
		OutboxBatchSize: 100,
	}, logger)
	return &InMemoryAPI{
		Server:  httpserver.New(modules, httpserver.Options{EnableSwagger: opts.EnableSwagger}, logger),
		Modules: modules,
		Bus:     bus,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	if a.inline != nil {
		if err := a.inline.notifier.Start(ctx); err != nil {
			return err
		}
		go a.inline.runLenient(ctx, a.logger)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
	}()
	return a.server.Start()
}

func (a *APIApp) Close() error {
	var errs []error
	if a.closeExt != nil {
		errs = append(errs, a.closeExt())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.relay.notifier.Start(ctx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.relay.interval().String(),
	)

	ticker := time.NewTicker(w.relay.interval())
	defer ticker.Stop()
	for {
		if err := w.relay.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.closeExt != nil {
		errs = append(errs, w.closeExt())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

// runLenient relays until ctx ends. Relay failures are logged and retried on
// the next tick so the API keeps serving.
func (l relayLoop) runLenient(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(l.interval())
	defer ticker.Stop()
	for {
		if err := l.outboxRelay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error("inline outbox relay failed",
				"event", "bootstrap_inline_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (l relayLoop) interval() time.Duration {
	if l.pollInterval <= 0 {
		return 2 * time.Second
	}
	return l.pollInterval
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
