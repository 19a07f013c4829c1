package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/http/response"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

// writeServiceError maps service and repository errors onto the API error
// taxonomy. Anything unrecognized is an internal error; the raw message
// never leaks to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid input", verr.Fields)
		return
	}
	var terr *service.ThrottledError
	if errors.As(err, &terr) {
		if terr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(terr.RetryAfter.Seconds())))
		}
		response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "code requested too soon", nil)
		return
	}

	switch {
	case errors.Is(err, repository.ErrVacancyNotFound),
		errors.Is(err, repository.ErrComplaintNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, domain.ErrVacancyEditing):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "vacancy is currently being edited", nil)
	case errors.Is(err, repository.ErrModerationRace):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "concurrent moderation decision, retry", nil)
	case errors.Is(err, service.ErrContactsLocked):
		response.Error(w, r, http.StatusForbidden, "CONTACTS_LOCKED", "contacts_locked", nil)
	case errors.Is(err, service.ErrPhoneNotVerified):
		response.Error(w, r, http.StatusForbidden, "PHONE_UNVERIFIED", "verify your phone number first", nil)
	case errors.Is(err, service.ErrReporterEmailRequired):
		response.Error(w, r, http.StatusForbidden, "EMAIL_REQUIRED", "email_auth_required", nil)
	case errors.Is(err, service.ErrNotVacancyOwner):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "you do not own this listing", nil)
	case errors.Is(err, repository.ErrUnlockTokenNotFound),
		errors.Is(err, repository.ErrUnlockTokenExpired),
		errors.Is(err, service.ErrCodeInvalid),
		errors.Is(err, service.ErrCodeExpired):
		response.Error(w, r, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN", "token is invalid or expired", nil)
	case errors.Is(err, service.ErrTooManyAttempts),
		errors.Is(err, service.ErrCodeThrottled):
		response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts", nil)
	case errors.Is(err, service.ErrDeliveryFailed):
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "delivery provider unavailable", nil)
	case errors.Is(err, service.ErrInvalidPurpose),
		errors.Is(err, service.ErrUnknownComplaintReason),
		errors.Is(err, service.ErrUnknownComplaintAction):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrFileTooBig),
		errors.Is(err, service.ErrInvalidFileType):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func pathID(r *http.Request, param string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
