package httpadapter

import (
	"context"

	"showingcover/contexts/billing/subscription-service/application"
	"showingcover/contexts/billing/subscription-service/domain/entities"
	httptransport "showingcover/contexts/billing/subscription-service/transport/http"
)

type Handler struct {
	Service application.Service
}

// SubscribeHandler godoc
// @Summary Start an agent subscription
// @Description Creates a subscription checkout for an agent without an active subscription.
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.CheckoutResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /agent/subscribe [post]
func (h Handler) SubscribeHandler(ctx context.Context, userID string) (httptransport.CheckoutResponse, error) {
	session, err := h.Service.Subscribe(ctx, userID)
	if err != nil {
		return httptransport.CheckoutResponse{}, err
	}
	return toCheckoutResponse(session), nil
}

// CancelSubscriptionHandler godoc
// @Summary Cancel the agent subscription
// @Description Cancels at the processor and marks the local status as an optimistic cancel.
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.CancelSubscriptionResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /agent/cancel-subscription [post]
func (h Handler) CancelSubscriptionHandler(ctx context.Context, userID string) (httptransport.CancelSubscriptionResponse, error) {
	result, err := h.Service.Cancel(ctx, userID)
	if err != nil {
		return httptransport.CancelSubscriptionResponse{}, err
	}
	return httptransport.CancelSubscriptionResponse{
		SubscriptionID:     result.SubscriptionID,
		SubscriptionStatus: string(result.Status),
		Sync:               result.Sync,
	}, nil
}

// StartPolicyCheckoutHandler godoc
// @Summary Buy a single showing policy
// @Tags policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.PolicyCheckoutRequest true "Property"
// @Success 200 {object} httptransport.CheckoutResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /policies/checkout [post]
func (h Handler) StartPolicyCheckoutHandler(
	ctx context.Context,
	userID string,
	req httptransport.PolicyCheckoutRequest,
) (httptransport.CheckoutResponse, error) {
	session, err := h.Service.StartPolicyCheckout(ctx, userID, req.PropertyAddress)
	if err != nil {
		return httptransport.CheckoutResponse{}, err
	}
	return toCheckoutResponse(session), nil
}

// PaymentWebhookHandler godoc
// @Summary Payment processor webhook
// @Description Verifies the Stripe-Signature header and reconciles the event.
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} httptransport.WebhookResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /webhooks/payments [post]
func (h Handler) PaymentWebhookHandler(
	ctx context.Context,
	payload []byte,
	signature string,
) (httptransport.WebhookResponse, error) {
	event, outcome, err := h.Service.HandleWebhook(ctx, payload, signature)
	if err != nil {
		return httptransport.WebhookResponse{}, err
	}
	return httptransport.WebhookResponse{
		Received: true,
		EventID:  event.EventID,
		Outcome:  string(outcome),
	}, nil
}

func toCheckoutResponse(session entities.CheckoutSession) httptransport.CheckoutResponse {
	return httptransport.CheckoutResponse{
		SessionID: session.SessionID,
		URL:       session.URL,
		Mode:      string(session.Mode),
	}
}
