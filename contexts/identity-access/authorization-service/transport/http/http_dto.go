package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProfileResponse struct {
	UserID             string `json:"user_id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	SubscriptionStatus string `json:"subscription_status"`
	SubscriptionID     string `json:"subscription_id,omitempty"`
	SubscriptionStart  string `json:"subscription_start,omitempty"`
	SubscriptionSync   string `json:"subscription_sync,omitempty"`
	CreatedAt          string `json:"created_at"`
	Created            bool   `json:"created,omitempty"`
}
