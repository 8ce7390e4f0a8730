package httpserver_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	policyentities "showingcover/contexts/coverage/policy-service/domain/entities"
	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
)

func TestClaimDecisionRoutesRejectNonAdmins(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedProfile("owner-1", authzentities.RoleHomeowner)

	rec := api.do(http.MethodGet, "/claims", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("list all claims: expected 403, got %d", rec.Code)
	}

	bodies := []map[string]any{
		{},
		{"payout_amount": "12.345"},
		{"payout_amount": "184467440737096016.16"},
	}
	for _, body := range bodies {
		rec := api.do(http.MethodPost, "/claims/claim-1/approve", token, body)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("approve %v: expected 403, got %d", body, rec.Code)
		}
	}

	for _, reason := range []string{"no", ""} {
		rec := api.do(http.MethodPost, "/claims/claim-1/deny", token, map[string]any{"reason": reason})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("deny with reason %q: expected 403, got %d", reason, rec.Code)
		}
	}
}

func TestApproveClaimOnlyOnce(t *testing.T) {
	api := newTestAPI(t)
	ownerToken := api.seedProfile("owner-1", authzentities.RoleHomeowner)
	adminToken := api.seedProfile("admin-1", authzentities.RoleAdmin)
	api.api.Modules.Policies.Store.Seed(policyentities.Policy{
		PolicyID:        "policy-1",
		UserID:          "owner-1",
		PropertyAddress: "12 Elm St",
		CoverageType:    policyentities.CoverageSingle,
		Status:          policyentities.StatusActive,
		CreatedAt:       time.Now().UTC().Add(-24 * time.Hour),
	})

	rec := api.do(http.MethodPost, "/claims", ownerToken, map[string]any{
		"policy_id":     "policy-1",
		"incident_date": time.Now().UTC().Add(-2 * time.Hour).Format(time.DateOnly),
		"damaged_items": []string{"vase"},
		"description":   "knocked over during a showing",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("file claim: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var filed struct {
		Claim struct {
			ClaimID string `json:"claim_id"`
			Status  string `json:"status"`
		} `json:"claim"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &filed); err != nil {
		t.Fatalf("decode claim: %v", err)
	}
	if filed.Claim.Status != "pending" {
		t.Fatalf("expected pending claim, got %s", filed.Claim.Status)
	}

	path := "/claims/" + filed.Claim.ClaimID + "/approve"
	rec = api.do(http.MethodPost, path, adminToken, map[string]any{"payout_amount": "500.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodPost, path, adminToken, map[string]any{"payout_amount": "500.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second approve: expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "ALREADY_PROCESSED" {
		t.Fatalf("expected ALREADY_PROCESSED, got %s", code)
	}

	rec = api.do(http.MethodPost, "/claims/missing/deny", adminToken, map[string]any{"reason": "duplicate"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deny missing: expected 404, got %d", rec.Code)
	}
}
