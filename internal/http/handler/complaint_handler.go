package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Treosha1991/jobapp-backend-2026/internal/http/middleware"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/response"
	"github.com/Treosha1991/jobapp-backend-2026/internal/observability"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

type ComplaintHandler struct {
	complaintSvc *service.ComplaintService
}

func NewComplaintHandler(complaintSvc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: complaintSvc}
}

type fileComplaintRequest struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (h *ComplaintHandler) File(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	vacancyID, ok := pathID(r, "vacancy_id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid vacancy id", nil)
		return
	}
	var req fileComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	res, err := h.complaintSvc.File(r.Context(), identity.UserID, vacancyID, req.Reason, req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, res)
}

// Overview is the staff dashboard: complaint counts grouped per vacancy.
func (h *ComplaintHandler) Overview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.complaintSvc.Overview(r.Context(), repository.ComplaintAggregateFilter{
		Status: q.Get("status"),
		Reason: q.Get("reason"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, rows)
}

type applyActionRequest struct {
	Action          string `json:"action"`
	Note            string `json:"note"`
	RejectionReason string `json:"rejection_reason"`
	// ResolveAll defaults to true when the field is absent: one decision
	// settles every open complaint against the vacancy unless the
	// moderator explicitly narrows it.
	ResolveAll *bool `json:"resolve_all"`
}

func (h *ComplaintHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	complaintID, ok := pathID(r, "complaint_id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid complaint id", nil)
		return
	}
	var req applyActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	resolveAll := req.ResolveAll == nil || *req.ResolveAll
	res, err := h.complaintSvc.ApplyAction(r.Context(), identity.UserID, complaintID, req.Action, req.Note, req.RejectionReason, resolveAll)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "complaint.action",
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "complaint",
		TargetID:    strconv.FormatUint(uint64(complaintID), 10),
		Action:      req.Action,
		Outcome:     "success",
	}, "resolved_complaints", res.ResolvedComplaints)
	response.JSON(w, r, http.StatusOK, res)
}
