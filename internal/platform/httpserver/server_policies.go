package httpserver

import (
	"errors"
	"net/http"

	policyerrors "showingcover/contexts/coverage/policy-service/domain/errors"
	policyhttp "showingcover/contexts/coverage/policy-service/transport/http"
)

func (s *Server) handleListMyPolicies(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Policies.Handler.ListMyPoliciesHandler(r.Context(), identity.UserID)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAllPolicies(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	resp, err := s.modules.Policies.Handler.ListAllPoliciesHandler(r.Context())
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePolicyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policyerrors.ErrInvalidPolicyRequest),
		errors.Is(err, policyerrors.ErrInvalidCoverageType):
		writePolicyError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, policyerrors.ErrPolicyNotFound):
		writePolicyError(w, http.StatusNotFound, "policy_not_found", err.Error())
	case errors.Is(err, policyerrors.ErrDuplicatePolicy):
		writePolicyError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePolicyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePolicyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, policyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
