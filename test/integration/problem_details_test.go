package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestErrorEnvelopeIsDefault(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})

	resp, env := s.doJSON(t, http.MethodGet, "/api/v1/auth/me", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json content type, got %q", got)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected envelope UNAUTHORIZED, got %#v", env.Error)
	}
}

func TestProblemJSONNegotiation(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})

	cases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
		wantTitle  string
	}{
		{"unauthorized", http.MethodGet, "/api/v1/auth/me", http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
		{"not_found", http.MethodGet, "/api/v1/vacancies/999999", http.StatusNotFound, "NOT_FOUND", "Not Found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, s.baseURL+tc.path, nil)
			if err != nil {
				t.Fatalf("build request: %v", err)
			}
			req.Header.Set("Accept", "application/problem+json")
			resp, err := s.client.Do(req)
			if err != nil {
				t.Fatalf("do request: %v", err)
			}
			defer resp.Body.Close()
			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected status %d, got %d body=%q", tc.wantStatus, resp.StatusCode, raw)
			}
			if got := resp.Header.Get("Content-Type"); got != "application/problem+json" {
				t.Fatalf("expected application/problem+json, got %q body=%q", got, raw)
			}
			var p struct {
				Type      string `json:"type"`
				Title     string `json:"title"`
				Status    int    `json:"status"`
				Detail    string `json:"detail"`
				Instance  string `json:"instance"`
				Code      string `json:"code"`
				RequestID string `json:"request_id"`
			}
			if err := json.Unmarshal(raw, &p); err != nil {
				t.Fatalf("decode problem details: %v body=%q", err, raw)
			}
			if p.Status != tc.wantStatus || p.Code != tc.wantCode || p.Title != tc.wantTitle {
				t.Fatalf("unexpected problem fields: %+v", p)
			}
			if p.Instance != tc.path {
				t.Fatalf("unexpected instance field: %q", p.Instance)
			}
			wantType := "urn:problem:jobapp:" + strings.ToLower(strings.ReplaceAll(tc.wantCode, "_", "-"))
			if p.Type != wantType {
				t.Fatalf("unexpected type field: %q want %q", p.Type, wantType)
			}
			if p.RequestID == "" {
				t.Fatal("expected request_id in problem details")
			}
			if p.Detail == "" {
				t.Fatal("expected detail in problem details")
			}
		})
	}
}
