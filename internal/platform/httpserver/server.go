package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	subscriptionservice "showingcover/contexts/billing/subscription-service"
	claimservice "showingcover/contexts/coverage/claim-service"
	policyservice "showingcover/contexts/coverage/policy-service"
	authorization "showingcover/contexts/identity-access/authorization-service"
	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
	admindashboardservice "showingcover/contexts/internal-ops/admin-dashboard-service"
	audittrailservice "showingcover/contexts/internal-ops/audit-trail-service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "showingcover/internal/platform/httpserver/docs"
)

// Modules are the wired contexts the server routes to.
type Modules struct {
	Authorization authorization.Module
	Policies      policyservice.Module
	Claims        claimservice.Module
	Audit         audittrailservice.Module
	Dashboard     admindashboardservice.Module
	Billing       subscriptionservice.Module
}

type Options struct {
	Addr          string
	EnableSwagger bool
}

type Server struct {
	mux     *http.ServeMux
	http    *http.Server
	logger  *slog.Logger
	addr    string
	modules Modules
}

func New(modules Modules, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		modules: modules,
	}
	s.registerRoutes(opts.EnableSwagger)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) registerRoutes(enableSwagger bool) {
	if enableSwagger {
		s.mux.Handle("/swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /profile", s.handleEnsureProfile)
	s.mux.HandleFunc("GET /profile/me", s.handleGetMyProfile)

	s.mux.HandleFunc("POST /claims", s.handleFileClaim)
	s.mux.HandleFunc("POST /claims/uploads", s.handlePresignUpload)
	s.mux.HandleFunc("GET /claims/me", s.handleListMyClaims)
	s.mux.HandleFunc("GET /claims", s.handleListAllClaims)
	s.mux.HandleFunc("POST /claims/{claim_id}/approve", s.handleApproveClaim)
	s.mux.HandleFunc("POST /claims/{claim_id}/deny", s.handleDenyClaim)

	s.mux.HandleFunc("GET /policies", s.handleListMyPolicies)
	s.mux.HandleFunc("POST /policies/checkout", s.handleStartPolicyCheckout)
	s.mux.HandleFunc("GET /admin/policies", s.handleListAllPolicies)

	s.mux.HandleFunc("POST /agent/subscribe", s.handleSubscribe)
	s.mux.HandleFunc("POST /agent/cancel-subscription", s.handleCancelSubscription)
	s.mux.HandleFunc("POST /webhooks/payments", s.handlePaymentWebhook)

	s.mux.HandleFunc("GET /admin/overview", s.handleAdminOverview)
	s.mux.HandleFunc("GET /admin/audit-logs", s.handleListAuditLogs)
	s.mux.HandleFunc("GET /admin/notes", s.handleListNotes)
	s.mux.HandleFunc("POST /admin/notes", s.handleAddNote)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticate resolves the bearer token. It writes the 401 itself and
// reports false when the request must stop.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (authzentities.Identity, bool) {
	identity, err := s.modules.Authorization.Handler.AuthenticateRequest(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeProfileDomainError(w, err)
		return authzentities.Identity{}, false
	}
	return identity, true
}

// requireAdmin authenticates and checks admin_only for routes whose module
// does not authorize on its own.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return "", false
	}
	if _, err := s.modules.Authorization.Handler.RequireCapability(
		r.Context(),
		identity.UserID,
		authzentities.CapabilityAdminOnly,
		"",
	); err != nil {
		writeProfileDomainError(w, err)
		return "", false
	}
	return identity.UserID, true
}

const maxJSONBody = 1 << 20

// decodeJSON reads a bounded JSON body. An empty body leaves target unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
