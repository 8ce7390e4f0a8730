package httpserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtadapter "showingcover/contexts/identity-access/authorization-service/adapters/jwt"
	authzentities "showingcover/contexts/identity-access/authorization-service/domain/entities"
	"showingcover/internal/app/bootstrap"
)

const testSecret = "httpserver-test-secret"

type testAPI struct {
	t       *testing.T
	api     *bootstrap.InMemoryAPI
	handler http.Handler
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	api, err := bootstrap.NewInMemoryAPI(bootstrap.InMemoryOptions{
		JWTSecret: testSecret,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("build api: %v", err)
	}
	return testAPI{t: t, api: api, handler: api.Server.Handler()}
}

func (a testAPI) token(userID string, email string, roleHint string) string {
	a.t.Helper()
	signed, err := jwtadapter.HMACVerifier{Secret: []byte(testSecret)}.Sign(authzentities.Identity{
		UserID:   userID,
		Email:    email,
		RoleHint: roleHint,
	}, time.Now().Add(time.Hour))
	if err != nil {
		a.t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (a testAPI) seedProfile(userID string, role authzentities.Role) string {
	now := time.Now().UTC()
	email := userID + "@example.com"
	a.api.Modules.Authorization.Store.Seed(authzentities.Profile{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return a.token(userID, email, "")
}

func (a testAPI) do(method string, path string, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return payload.Code
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
