package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	domainauth "github.com/Nsralla/HRNexus-AI-assistant/internal/domain/auth"
	pkgauth "github.com/Nsralla/HRNexus-AI-assistant/pkg/auth"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/sqlite"
)

func authRouter(t *testing.T) *chi.Mux {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-key")

	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	h := NewAuthHandler(domainauth.NewService(db))
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	return r
}

func TestRegisterEndpoint(t *testing.T) {
	r := authRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"password123","displayName":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	claims, err := pkgauth.ParseJWT(resp.Token)
	if err != nil {
		t.Fatalf("returned token does not parse: %v", err)
	}
	if claims.UserID != resp.UserID {
		t.Errorf("token user %q != response user %q", claims.UserID, resp.UserID)
	}

	// Duplicate email → 409.
	rec = doJSON(t, r, http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","password":"password456"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	r := authRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing email", `{"password":"password123"}`},
		{"missing password", `{"email":"a@b.com"}`},
		{"short password", `{"email":"a@b.com","password":"short"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/auth/register", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	r := authRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/auth/register",
		`{"email":"bob@example.com","password":"password123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/auth/login",
		`{"email":"bob@example.com","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/auth/login",
		`{"email":"bob@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"password123"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", rec.Code)
	}
}
