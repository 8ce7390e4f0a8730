package httpserver

import (
	"errors"
	"net/http"

	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
	authzerrors "showingcover/contexts/identity-access/authorization-service/domain/errors"
	authzhttp "showingcover/contexts/identity-access/authorization-service/transport/http"
)

func (s *Server) handleEnsureProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Authorization.Handler.EnsureProfileHandler(r.Context(), identity)
	if err != nil {
		writeProfileDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMyProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if _, err := s.modules.Authorization.Handler.RequireCapability(
		r.Context(),
		identity.UserID,
		authzentities.CapabilitySelfServiceRead,
		identity.UserID,
	); err != nil {
		writeProfileDomainError(w, err)
		return
	}
	resp, err := s.modules.Authorization.Handler.GetMyProfileHandler(r.Context(), identity.UserID)
	if err != nil {
		writeProfileDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeProfileDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authzerrors.ErrUnauthenticated):
		writeProfileError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
	case errors.Is(err, authzerrors.ErrForbidden):
		writeProfileError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, authzerrors.ErrProfileNotFound):
		writeProfileError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, authzerrors.ErrInvalidUserID),
		errors.Is(err, authzerrors.ErrInvalidEmail),
		errors.Is(err, authzerrors.ErrInvalidRole),
		errors.Is(err, authzerrors.ErrInvalidCapability),
		errors.Is(err, authzerrors.ErrInvalidSubscription),
		errors.Is(err, authzerrors.ErrRoleMismatch):
		writeProfileError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		writeProfileError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProfileError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, authzhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
