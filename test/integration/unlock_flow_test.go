package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
)

func approvedVacancy(t *testing.T, s *apiTestServer) (uint, string) {
	t.Helper()

	ownerToken, _ := s.registerUser(t, "owner@example.com")
	s.verifyPhone(t, ownerToken, "+48500100200")
	vacancyID := s.createVacancy(t, ownerToken)
	staffToken := s.registerStaff(t, "mod@example.com")
	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/moderation/vacancies/"+itoa(vacancyID)+"/approve", nil, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: status=%d", resp.StatusCode)
	}
	return vacancyID, staffToken
}

func TestUnlockTwoStepFlow(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, _ := approvedVacancy(t, s)

	seekerToken, _ := s.registerUser(t, "seeker@example.com")
	base := "/api/v1/vacancies/" + itoa(vacancyID)

	// Contacts are locked before any unlock.
	resp, env := s.doJSON(t, http.MethodGet, base+"/contacts", nil, seekerToken)
	if resp.StatusCode != http.StatusForbidden || env.Error == nil || env.Error.Code != "CONTACTS_LOCKED" {
		t.Fatalf("expected CONTACTS_LOCKED, got status=%d error=%+v", resp.StatusCode, env.Error)
	}

	// The public detail payload never carries contact fields.
	resp, env = s.doJSON(t, http.MethodGet, base, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail: status=%d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if _, leaked := raw["phone"]; leaked {
		t.Fatal("contact fields must not appear in the public payload")
	}

	resp, env = s.doJSON(t, http.MethodPost, base+"/unlock/request", nil, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request unlock: status=%d", resp.StatusCode)
	}
	var grant struct {
		AlreadyUnlocked bool   `json:"already_unlocked"`
		Token           string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &grant); err != nil {
		t.Fatalf("decode grant: %v", err)
	}
	if grant.AlreadyUnlocked || grant.Token == "" {
		t.Fatalf("expected fresh token grant, got %+v", grant)
	}

	resp, env = s.doJSON(t, http.MethodPost, base+"/unlock/confirm", map[string]string{"token": grant.Token}, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm unlock: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var contacts domain.ContactDetails
	if err := json.Unmarshal(env.Data, &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if contacts.Phone != "+48500100200" {
		t.Fatalf("expected revealed phone, got %+v", contacts)
	}

	// Replaying the same token fails; the unlock itself is durable.
	resp, env = s.doJSON(t, http.MethodPost, base+"/unlock/confirm", map[string]string{"token": grant.Token}, seekerToken)
	if resp.StatusCode != http.StatusBadRequest || env.Error == nil || env.Error.Code != "INVALID_OR_EXPIRED_TOKEN" {
		t.Fatalf("expected INVALID_OR_EXPIRED_TOKEN on replay, got status=%d error=%+v", resp.StatusCode, env.Error)
	}
	resp, _ = s.doJSON(t, http.MethodGet, base+"/contacts", nil, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contacts after unlock: status=%d", resp.StatusCode)
	}

	// A second request short-circuits without minting a token.
	resp, env = s.doJSON(t, http.MethodPost, base+"/unlock/request", nil, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-request unlock: status=%d", resp.StatusCode)
	}
	// The token field is omitted when already unlocked, so clear the stale
	// value from the first decode before reusing the struct.
	grant.AlreadyUnlocked, grant.Token = false, ""
	if err := json.Unmarshal(env.Data, &grant); err != nil {
		t.Fatalf("decode grant: %v", err)
	}
	if !grant.AlreadyUnlocked || grant.Token != "" {
		t.Fatalf("expected already-unlocked grant, got %+v", grant)
	}
}

func TestDirectUnlockLegacyPath(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, _ := approvedVacancy(t, s)

	seekerToken, _ := s.registerUser(t, "seeker@example.com")
	base := "/api/v1/vacancies/" + itoa(vacancyID)

	for i := 0; i < 2; i++ {
		resp, env := s.doJSON(t, http.MethodPost, base+"/unlock", nil, seekerToken)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("direct unlock #%d: status=%d", i+1, resp.StatusCode)
		}
		var contacts domain.ContactDetails
		if err := json.Unmarshal(env.Data, &contacts); err != nil {
			t.Fatalf("decode contacts: %v", err)
		}
		if contacts.Phone != "+48500100200" {
			t.Fatalf("expected revealed phone, got %+v", contacts)
		}
	}

	var count int64
	if err := s.db.Model(&domain.UnlockedContact{}).Count(&count).Error; err != nil {
		t.Fatalf("count unlocks: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one durable unlock row, got %d", count)
	}
}

func TestContactsStayUnlockedAfterVacancyExpires(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, _ := approvedVacancy(t, s)

	seekerToken, _ := s.registerUser(t, "seeker@example.com")
	base := "/api/v1/vacancies/" + itoa(vacancyID)

	resp, _ := s.doJSON(t, http.MethodPost, base+"/unlock", nil, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("direct unlock: status=%d", resp.StatusCode)
	}

	// Push the listing past its deadline; the unlock already granted must
	// keep working.
	expired := time.Now().Add(-time.Hour)
	if err := s.db.Model(&domain.Vacancy{}).Where("id = ?", vacancyID).
		Update("expires_at", expired).Error; err != nil {
		t.Fatalf("expire vacancy: %v", err)
	}

	resp, env := s.doJSON(t, http.MethodGet, base+"/contacts", nil, seekerToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contacts after expiry: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var contacts domain.ContactDetails
	if err := json.Unmarshal(env.Data, &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if contacts.Phone != "+48500100200" {
		t.Fatalf("expected revealed phone, got %+v", contacts)
	}

	// A fresh unlock request against the expired listing is still refused.
	strangerToken, _ := s.registerUser(t, "late@example.com")
	resp, env = s.doJSON(t, http.MethodPost, base+"/unlock/request", nil, strangerToken)
	if resp.StatusCode != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for expired listing, got status=%d error=%+v", resp.StatusCode, env.Error)
	}
}

func TestUnlockUnknownVacancy(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	seekerToken, _ := s.registerUser(t, "seeker@example.com")

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/vacancies/9999/unlock/request", nil, seekerToken)
	if resp.StatusCode != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got status=%d error=%+v", resp.StatusCode, env.Error)
	}
}
