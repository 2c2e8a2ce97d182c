package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("analyst-1", "analyst", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT error: %v", err)
	}
	if claims["sub"] != "analyst-1" || claims["role"] != "analyst" {
		t.Fatalf("claims = %v, want sub/role preserved", claims)
	}
}

func TestValidateJWTRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT("analyst-1", "analyst", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("expired token validated, want error")
	}
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateJWT("analyst-1", "analyst", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("token validated with wrong secret, want error")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := RequireAuth(next)

	r := httptest.NewRequest(http.MethodGet, "/rules", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", w.Code)
	}

	token, err := GenerateJWT("analyst-1", "analyst", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/rules", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200", w.Code)
	}
}

func TestIsAdminMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := IsAdmin(next)

	analystToken, err := GenerateJWT("analyst-1", "analyst", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}
	r := httptest.NewRequest(http.MethodPut, "/thresholds/ONLINE", nil)
	r.Header.Set("Authorization", "Bearer "+analystToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("analyst status = %d, want 403", w.Code)
	}

	adminToken, err := GenerateJWT("admin-1", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}
	r = httptest.NewRequest(http.MethodPut, "/thresholds/ONLINE", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", w.Code)
	}
}
