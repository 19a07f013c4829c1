package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
)

func fileComplaint(t *testing.T, s *apiTestServer, token string, vacancyID uint, reason string) uint {
	t.Helper()

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/vacancies/"+itoa(vacancyID)+"/complaints",
		map[string]string{"reason": reason, "message": "looks wrong"}, token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("file complaint: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var res struct {
		Complaint *domain.Complaint `json:"complaint"`
		Status    string            `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode complaint result: %v", err)
	}
	if res.Status != "saved" || res.Complaint == nil || res.Complaint.ID == 0 {
		t.Fatalf("unexpected file result: %+v", res)
	}
	return res.Complaint.ID
}

func TestComplaintRejectActionResolvesAll(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, staffToken := approvedVacancy(t, s)

	aliceToken, _ := s.registerUser(t, "alice@example.com")
	bobToken, _ := s.registerUser(t, "bob@example.com")
	complaintID := fileComplaint(t, s, aliceToken, vacancyID, domain.ComplaintReasonFraud)
	fileComplaint(t, s, bobToken, vacancyID, domain.ComplaintReasonSpam)

	// Unknown reasons are refused outright.
	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/vacancies/"+itoa(vacancyID)+"/complaints",
		map[string]string{"reason": "ugly_logo"}, aliceToken)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown reason, got %d error=%+v", resp.StatusCode, env.Error)
	}

	// The staff overview groups both reports under the one vacancy.
	resp, env = s.doJSON(t, http.MethodGet, "/api/v1/moderation/complaints", nil, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview: status=%d", resp.StatusCode)
	}
	var rows []repository.VacancyComplaintAggregate
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(rows) != 1 || rows[0].VacancyID != vacancyID || rows[0].ComplaintsCount != 2 || rows[0].OpenCount != 2 {
		t.Fatalf("unexpected overview rows: %+v", rows)
	}

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/moderation/complaints/"+itoa(complaintID)+"/action",
		map[string]any{
			"action":           "reject",
			"note":             "confirmed fraud",
			"rejection_reason": "fraud",
			"resolve_all":      true,
		}, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply action: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var result repository.ModerationActionResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode action result: %v", err)
	}
	if result.ResolvedComplaints != 2 {
		t.Fatalf("expected both open complaints resolved, got %d", result.ResolvedComplaints)
	}
	if !result.Before.IsApproved || result.Before.IsRejected {
		t.Fatalf("before snapshot should show the approved vacancy: %+v", result.Before)
	}
	if !result.After.IsRejected || result.After.RejectionReason != "fraud" {
		t.Fatalf("after snapshot should show the rejection: %+v", result.After)
	}

	// The vacancy itself is now rejected and off the public board.
	var vacancy domain.Vacancy
	if err := s.db.First(&vacancy, vacancyID).Error; err != nil {
		t.Fatalf("load vacancy: %v", err)
	}
	if vacancy.IsApproved || !vacancy.IsRejected || vacancy.RejectionReason != "fraud" {
		t.Fatalf("vacancy not rejected: approved=%v rejected=%v reason=%q",
			vacancy.IsApproved, vacancy.IsRejected, vacancy.RejectionReason)
	}

	// Every action leaves exactly one append-only audit row with snapshots.
	var logs []domain.ComplaintActionLog
	if err := s.db.Find(&logs).Error; err != nil {
		t.Fatalf("load action logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(logs))
	}
	log := logs[0]
	if log.ComplaintID != complaintID || log.VacancyID != vacancyID || log.Action != "reject" {
		t.Fatalf("unexpected audit row: %+v", log)
	}
	if !log.BeforeState.IsApproved || !log.AfterState.IsRejected || log.AfterState.RejectionReason != "fraud" {
		t.Fatalf("audit snapshots wrong: before=%+v after=%+v", log.BeforeState, log.AfterState)
	}

	// Resolved complaints drop out of the open count.
	resp, env = s.doJSON(t, http.MethodGet, "/api/v1/moderation/complaints", nil, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview after action: status=%d", resp.StatusCode)
	}
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(rows) != 1 || rows[0].OpenCount != 0 {
		t.Fatalf("expected zero open complaints after resolve_all: %+v", rows)
	}
}

func TestComplaintActionResolvesAllByDefault(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, staffToken := approvedVacancy(t, s)

	aliceToken, _ := s.registerUser(t, "alice@example.com")
	bobToken, _ := s.registerUser(t, "bob@example.com")
	complaintID := fileComplaint(t, s, aliceToken, vacancyID, domain.ComplaintReasonFraud)
	fileComplaint(t, s, bobToken, vacancyID, domain.ComplaintReasonSpam)

	// No resolve_all in the payload: the decision still settles every
	// open complaint against the vacancy.
	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/moderation/complaints/"+itoa(complaintID)+"/action",
		map[string]any{"action": "hide"}, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply action: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var result repository.ModerationActionResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode action result: %v", err)
	}
	if result.ResolvedComplaints != 2 {
		t.Fatalf("expected both complaints resolved by default, got %d", result.ResolvedComplaints)
	}

	// An explicit false narrows the action to the triggering complaint.
	carolToken, _ := s.registerUser(t, "carol@example.com")
	daveToken, _ := s.registerUser(t, "dave@example.com")
	thirdID := fileComplaint(t, s, carolToken, vacancyID, domain.ComplaintReasonOther)
	fileComplaint(t, s, daveToken, vacancyID, domain.ComplaintReasonWrongInfo)

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/moderation/complaints/"+itoa(thirdID)+"/action",
		map[string]any{"action": "hide", "resolve_all": false}, staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply narrowed action: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode action result: %v", err)
	}
	if result.ResolvedComplaints != 1 {
		t.Fatalf("expected only the triggering complaint resolved, got %d", result.ResolvedComplaints)
	}
}

func TestComplaintActionRequiresStaff(t *testing.T) {
	s := newAPITestServer(t, apiTestServerOptions{})
	vacancyID, _ := approvedVacancy(t, s)

	aliceToken, _ := s.registerUser(t, "alice@example.com")
	complaintID := fileComplaint(t, s, aliceToken, vacancyID, domain.ComplaintReasonSpam)

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/moderation/complaints/"+itoa(complaintID)+"/action",
		map[string]any{"action": "hide"}, aliceToken)
	if resp.StatusCode != http.StatusForbidden || env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for non-staff, got status=%d error=%+v", resp.StatusCode, env.Error)
	}

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/moderation/complaints/"+itoa(complaintID)+"/action",
		map[string]any{"action": "escalate"}, s.registerStaff(t, "mod2@example.com"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d error=%+v", resp.StatusCode, env.Error)
	}
}
