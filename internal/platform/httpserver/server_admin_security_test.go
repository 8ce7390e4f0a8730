package httpserver_test

import (
	"net/http"
	"testing"

	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
)

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedProfile("owner-1", authzentities.RoleHomeowner)

	for _, path := range []string{"/admin/overview", "/admin/audit-logs", "/admin/policies"} {
		rec := api.do(http.MethodGet, path, token, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("GET %s: expected 403, got %d", path, rec.Code)
		}
	}
}

func TestAdminOverviewForAdmin(t *testing.T) {
	api := newTestAPI(t)
	token := api.seedProfile("admin-1", authzentities.RoleAdmin)

	rec := api.do(http.MethodGet, "/admin/overview", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = api.do(http.MethodGet, "/admin/audit-logs?limit=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}
