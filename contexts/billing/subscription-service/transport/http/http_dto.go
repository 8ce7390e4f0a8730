package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Mode      string `json:"mode"`
}

type PolicyCheckoutRequest struct {
	PropertyAddress string `json:"property_address"`
}

type CancelSubscriptionResponse struct {
	SubscriptionID     string `json:"subscription_id"`
	SubscriptionStatus string `json:"subscription_status"`
	Sync               string `json:"subscription_sync"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	EventID  string `json:"event_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}
