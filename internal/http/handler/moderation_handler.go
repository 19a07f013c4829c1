package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Treosha1991/jobapp-backend-2026/internal/http/middleware"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/response"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

// ModerationHandler serves the staff-only moderation queue and decisions.
// All routes behind it require middleware.RequireStaff.
type ModerationHandler struct {
	vacancySvc *service.VacancyService
}

func NewModerationHandler(vacancySvc *service.VacancyService) *ModerationHandler {
	return &ModerationHandler{vacancySvc: vacancySvc}
}

func (h *ModerationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	list, err := h.vacancySvc.PendingQueue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve", func(id uint) error {
		_, err := h.vacancySvc.Approve(r.Context(), id)
		return err
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	h.decide(w, r, "reject", func(id uint) error {
		_, err := h.vacancySvc.Reject(r.Context(), id, req.Reason)
		return err
	})
}

func (h *ModerationHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "resubmit", func(id uint) error {
		_, err := h.vacancySvc.Resubmit(r.Context(), id)
		return err
	})
}

func (h *ModerationHandler) decide(w http.ResponseWriter, r *http.Request, action string, fn func(id uint) error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	id, ok := pathID(r, "vacancy_id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid vacancy id", nil)
		return
	}
	if err := fn(id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "moderation." + action,
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "vacancy",
		TargetID:    strconv.FormatUint(uint64(id), 10),
		Action:      action,
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "applied", "action": action})
}
