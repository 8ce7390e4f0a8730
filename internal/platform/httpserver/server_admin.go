package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	dashboarderrors "showingcover/contexts/internal-ops/admin-dashboard-service/domain/errors"
	auditerrors "showingcover/contexts/internal-ops/audit-trail-service/domain/errors"
	audithttp "showingcover/contexts/internal-ops/audit-trail-service/transport/http"
)

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	resp, err := s.modules.Dashboard.Handler.OverviewHandler(r.Context())
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeAdminError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	resp, err := s.modules.Audit.Handler.ListAuditLogsHandler(r.Context(), limit)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	query := r.URL.Query()
	resp, err := s.modules.Audit.Handler.ListNotesHandler(r.Context(), query.Get("resource_type"), query.Get("resource_id"))
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	adminID, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}
	var req audithttp.AddNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAdminError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Audit.Handler.AddNoteHandler(
		r.Context(),
		adminID,
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		req,
	)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeAdminDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrInvalidInput):
		writeAdminError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, auditerrors.ErrUnauthorized):
		writeAdminError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, auditerrors.ErrIdempotencyConflict):
		writeAdminError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, auditerrors.ErrAuditWriteFailed):
		writeAdminError(w, http.StatusInternalServerError, "AUDIT_WRITE_FAILED", err.Error())
	case errors.Is(err, dashboarderrors.ErrDependencyUnavailable):
		writeAdminError(w, http.StatusServiceUnavailable, "dependency_unavailable", err.Error())
	default:
		writeAdminError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAdminError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
