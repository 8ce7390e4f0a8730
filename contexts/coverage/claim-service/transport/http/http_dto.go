package httptransport

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FileClaimRequest struct {
	PolicyID     string   `json:"policy_id,omitempty"`
	IncidentDate string   `json:"incident_date"`
	DamagedItems []string `json:"damaged_items"`
	Description  string   `json:"description"`
	Files        []string `json:"files,omitempty"`
}

type PresignUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type PresignUploadResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	ExpiresAt string `json:"expires_at"`
}

type ApproveClaimRequest struct {
	// PayoutAmount accepts a JSON number or string, e.g. 850.50 or "850.50".
	PayoutAmount *decimal.Decimal `json:"payout_amount,omitempty" swaggertype:"string"`
	AdminNote    string           `json:"admin_note,omitempty"`
}

type DenyClaimRequest struct {
	Reason    string `json:"reason"`
	AdminNote string `json:"admin_note,omitempty"`
}

type ClaimDTO struct {
	ClaimID         string   `json:"claim_id"`
	UserID          string   `json:"user_id,omitempty"`
	PolicyID        string   `json:"policy_id,omitempty"`
	IncidentDate    string   `json:"incident_date"`
	DamagedItems    []string `json:"damaged_items"`
	Description     string   `json:"description"`
	Files           []string `json:"files"`
	Status          string   `json:"status"`
	MaxPayoutAmount string   `json:"max_payout_amount"`
	PayoutAmount    string   `json:"payout_amount,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type FileClaimResponse struct {
	Claim    ClaimDTO `json:"claim"`
	Replayed bool     `json:"replayed,omitempty"`
}

type ClaimRowDTO struct {
	ClaimDTO
	OwnerResolution string `json:"owner_resolution"`
	OwnerUserID     string `json:"owner_user_id,omitempty"`
	OwnerEmail      string `json:"owner_email,omitempty"`
	PropertyAddress string `json:"property_address,omitempty"`
}

type ListClaimsResponse struct {
	Items []ClaimRowDTO `json:"items"`
}

type DecisionResponse struct {
	Claim        ClaimDTO `json:"claim"`
	PayoutAmount string   `json:"payout_amount,omitempty"`
}
