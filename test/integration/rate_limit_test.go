package integration

import (
	"net/http"
	"testing"

	"github.com/Treosha1991/jobapp-backend-2026/internal/config"
)

func TestAuthRateLimitKicksIn(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{
		cfgOverride: func(cfg *config.Config) {
			cfg.AuthRateLimitPerMin = 3
		},
	})

	body := map[string]string{"email": "nobody@example.com", "password": "wrong-password-1"}
	for i := 0; i < 3; i++ {
		resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", body, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/auth/login", body, "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the auth quota, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %+v", env.Error)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on limited responses")
	}
}

func TestVacancyListNotThrottledByAuthQuota(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{
		cfgOverride: func(cfg *config.Config) {
			cfg.AuthRateLimitPerMin = 1
		},
	})

	// Burn the auth quota, then confirm the public board still answers.
	s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "x@example.com", "password": "p"}, "")
	s.doJSON(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "x@example.com", "password": "p"}, "")

	resp, _ := s.doJSON(t, http.MethodGet, "/api/v1/vacancies", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public listing should use the api quota, got %d", resp.StatusCode)
	}
}
