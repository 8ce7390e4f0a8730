package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PolicyDTO struct {
	PolicyID        string `json:"policy_id"`
	UserID          string `json:"user_id"`
	PropertyAddress string `json:"property_address"`
	CoverageType    string `json:"coverage_type"`
	Status          string `json:"status"`
	StoredStatus    string `json:"stored_status"`
	CreatedAt       string `json:"created_at"`
	ExpiryDate      string `json:"expiry_date"`
}

type ListPoliciesResponse struct {
	Items []PolicyDTO `json:"items"`
}

type AdminPolicyDTO struct {
	PolicyDTO
	OwnerEmail string `json:"owner_email"`
	ClaimCount int    `json:"claim_count"`
}

type ListAdminPoliciesResponse struct {
	Items []AdminPolicyDTO `json:"items"`
}
