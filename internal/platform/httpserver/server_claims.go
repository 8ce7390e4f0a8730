package httpserver

import (
	"errors"
	"net/http"
	"strings"

	claimerrors "showingcover/contexts/coverage/claim-service/domain/errors"
	claimhttp "showingcover/contexts/coverage/claim-service/transport/http"
)

func (s *Server) handleFileClaim(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req claimhttp.FileClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.modules.Claims.Handler.FileClaimHandler(
		r.Context(),
		identity.UserID,
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		req,
	)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req claimhttp.PresignUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Claims.Handler.PresignUploadHandler(r.Context(), identity.UserID, req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMyClaims(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Claims.Handler.ListMyClaimsHandler(r.Context(), identity.UserID)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Admin claim routes only authenticate here; the claim use cases run the
// admin_only check themselves before touching any row.
func (s *Server) handleListAllClaims(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Claims.Handler.ListAllClaimsHandler(r.Context(), identity.UserID)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req claimhttp.ApproveClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Claims.Handler.ApproveClaimHandler(r.Context(), identity.UserID, r.PathValue("claim_id"), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDenyClaim(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req claimhttp.DenyClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Claims.Handler.DenyClaimHandler(r.Context(), identity.UserID, r.PathValue("claim_id"), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeClaimDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claimerrors.ErrAlreadyProcessed):
		writeClaimError(w, http.StatusBadRequest, "ALREADY_PROCESSED", err.Error())
	case errors.Is(err, claimerrors.ErrAuditWriteFailed):
		writeClaimError(w, http.StatusInternalServerError, "AUDIT_WRITE_FAILED", err.Error())
	case errors.Is(err, claimerrors.ErrInvalidRequest),
		errors.Is(err, claimerrors.ErrReasonRequired),
		errors.Is(err, claimerrors.ErrInvalidPayout),
		errors.Is(err, claimerrors.ErrUnsupportedEvidence),
		errors.Is(err, claimerrors.ErrPolicyInactive):
		writeClaimError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, claimerrors.ErrClaimNotFound):
		writeClaimError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, claimerrors.ErrPolicyNotFound):
		writeClaimError(w, http.StatusNotFound, "policy_not_found", err.Error())
	case errors.Is(err, claimerrors.ErrForbidden):
		writeClaimError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, claimerrors.ErrIdempotencyKeyConflict):
		writeClaimError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, claimerrors.ErrDependencyUnavailable):
		writeClaimError(w, http.StatusBadGateway, "upstream_failure", err.Error())
	default:
		writeClaimError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeClaimError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, claimhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
