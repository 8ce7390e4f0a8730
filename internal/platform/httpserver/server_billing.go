package httpserver

import (
	"errors"
	"io"
	"net/http"

	billingerrors "showingcover/contexts/billing/subscription-service/domain/errors"
	billinghttp "showingcover/contexts/billing/subscription-service/transport/http"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 1 << 16

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Billing.Handler.SubscribeHandler(r.Context(), identity.UserID)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Billing.Handler.CancelSubscriptionHandler(r.Context(), identity.UserID)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartPolicyCheckout(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req billinghttp.PolicyCheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBillingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Billing.Handler.StartPolicyCheckoutHandler(r.Context(), identity.UserID, req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePaymentWebhook needs the raw body for signature verification, so it
// never goes through decodeJSON.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeBillingError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload is too large")
		return
	}
	resp, err := s.modules.Billing.Handler.PaymentWebhookHandler(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if !errors.Is(err, billingerrors.ErrInvalidSignature) {
			s.logger.Error("payment webhook failed",
				"event", "http_payment_webhook_failed",
				"module", "internal/platform/httpserver",
				"layer", "transport",
				"error", err.Error(),
			)
		}
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBillingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billingerrors.ErrInvalidRequest):
		writeBillingError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, billingerrors.ErrInvalidSignature):
		writeBillingError(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
	case errors.Is(err, billingerrors.ErrSubscriberNotFound):
		writeBillingError(w, http.StatusForbidden, "profile_missing", err.Error())
	case errors.Is(err, billingerrors.ErrNotAgent):
		writeBillingError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, billingerrors.ErrAlreadyActive),
		errors.Is(err, billingerrors.ErrNoActiveSubscription):
		writeBillingError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, billingerrors.ErrDependencyUnavailable):
		writeBillingError(w, http.StatusBadGateway, "upstream_failure", err.Error())
	default:
		writeBillingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBillingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, billinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
