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

type VacancyHandler struct {
	vacancySvc *service.VacancyService
	unlockSvc  *service.UnlockService
}

func NewVacancyHandler(vacancySvc *service.VacancyService, unlockSvc *service.UnlockService) *VacancyHandler {
	return &VacancyHandler{vacancySvc: vacancySvc, unlockSvc: unlockSvc}
}

// List is the public catalogue: approved, unexpired listings only.
func (h *VacancyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := h.vacancySvc.PublicList(r.Context(), repository.VacancyListQuery{
		Page:           repository.PageRequest{Page: page, PageSize: pageSize},
		Country:        q.Get("country"),
		City:           q.Get("city"),
		Category:       q.Get("category"),
		EmploymentType: q.Get("employment_type"),
		Source:         q.Get("source"),
		Search:         q.Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *VacancyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "vacancy_id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid vacancy id", nil)
		return
	}
	v, err := h.vacancySvc.Detail(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, v)
}

func (h *VacancyHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	var in service.VacancyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	v, err := h.vacancySvc.Create(r.Context(), identity.UserID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "vacancy.create",
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "vacancy",
		TargetID:    strconv.FormatUint(uint64(v.ID), 10),
		Action:      "create",
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusCreated, v)
}

func (h *VacancyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	list, err := h.vacancySvc.Mine(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

type editSaveRequest struct {
	service.VacancyPatch
	Submit bool `json:"submit"`
}

func (h *VacancyHandler) EditSave(w http.ResponseWriter, r *http.Request) {
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
	var req editSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	v, err := h.vacancySvc.EditSave(r.Context(), identity.UserID, id, req.VacancyPatch, req.Submit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	action := "edit_save"
	if req.Submit {
		action = "edit_submit"
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "vacancy.edit",
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "vacancy",
		TargetID:    strconv.FormatUint(uint64(id), 10),
		Action:      action,
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusOK, v)
}

func (h *VacancyHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("photo")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing photo file", nil)
		return
	}
	defer file.Close()

	url, err := h.vacancySvc.AttachPhoto(r.Context(), identity.UserID, id, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"photo_url": url})
}

// RequestUnlock starts the two-step contact reveal.
func (h *VacancyHandler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
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
	grant, err := h.unlockSvc.RequestUnlock(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, grant)
}

type confirmUnlockRequest struct {
	Token string `json:"token"`
}

func (h *VacancyHandler) ConfirmUnlock(w http.ResponseWriter, r *http.Request) {
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
	var req confirmUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing unlock token", nil)
		return
	}
	contacts, err := h.unlockSvc.ConfirmUnlock(r.Context(), identity.UserID, id, req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "vacancy.unlock",
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "vacancy",
		TargetID:    strconv.FormatUint(uint64(id), 10),
		Action:      "confirm_unlock",
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusOK, contacts)
}

// DirectUnlock is the legacy one-step reveal kept for old clients.
func (h *VacancyHandler) DirectUnlock(w http.ResponseWriter, r *http.Request) {
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
	contacts, err := h.unlockSvc.DirectUnlock(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "vacancy.unlock",
		ActorUserID: observability.ActorUserID(identity.UserID),
		TargetType:  "vacancy",
		TargetID:    strconv.FormatUint(uint64(id), 10),
		Action:      "direct_unlock",
		Outcome:     "success",
	})
	response.JSON(w, r, http.StatusOK, contacts)
}

func (h *VacancyHandler) Contacts(w http.ResponseWriter, r *http.Request) {
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
	contacts, err := h.unlockSvc.Contacts(r.Context(), identity.UserID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, contacts)
}
