package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Treosha1991/jobapp-backend-2026/internal/domain"
	"github.com/Treosha1991/jobapp-backend-2026/internal/repository"
	"github.com/Treosha1991/jobapp-backend-2026/internal/service"
)

func TestWriteServiceErrorTaxonomy(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{repository.ErrVacancyNotFound, http.StatusNotFound, "NOT_FOUND"},
		{repository.ErrComplaintNotFound, http.StatusNotFound, "NOT_FOUND"},
		{repository.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrVacancyEditing, http.StatusConflict, "CONFLICT"},
		{repository.ErrModerationRace, http.StatusConflict, "CONFLICT"},
		{service.ErrContactsLocked, http.StatusForbidden, "CONTACTS_LOCKED"},
		{service.ErrPhoneNotVerified, http.StatusForbidden, "PHONE_UNVERIFIED"},
		{service.ErrNotVacancyOwner, http.StatusForbidden, "FORBIDDEN"},
		{service.ErrReporterEmailRequired, http.StatusForbidden, "EMAIL_REQUIRED"},
		{repository.ErrUnlockTokenNotFound, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN"},
		{repository.ErrUnlockTokenExpired, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN"},
		{service.ErrCodeInvalid, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN"},
		{service.ErrCodeExpired, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN"},
		{service.ErrTooManyAttempts, http.StatusTooManyRequests, "RATE_LIMITED"},
		{service.ErrCodeThrottled, http.StatusTooManyRequests, "RATE_LIMITED"},
		{service.ErrDeliveryFailed, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY"},
		{service.ErrInvalidPurpose, http.StatusBadRequest, "BAD_REQUEST"},
		{service.ErrUnknownComplaintReason, http.StatusBadRequest, "BAD_REQUEST"},
		{service.ErrUnknownComplaintAction, http.StatusBadRequest, "BAD_REQUEST"},
		{service.ErrFileTooBig, http.StatusBadRequest, "BAD_REQUEST"},
		{service.ErrInvalidFileType, http.StatusBadRequest, "BAD_REQUEST"},
		{errors.New("database on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode+"/"+tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/x", nil)

			// Wrapping must not break the mapping.
			writeServiceError(w, r, fmt.Errorf("op failed: %w", tt.err))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var env struct {
				Success bool `json:"success"`
				Error   struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Success {
				t.Fatal("error envelope must not claim success")
			}
			if env.Error.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, env.Error.Code)
			}
		})
	}
}

func TestWriteServiceErrorValidationFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/x", nil)

	writeServiceError(w, r, &service.ValidationError{Fields: map[string]string{"title": "required"}})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Error.Code != "BAD_REQUEST" || env.Error.Details["title"] != "required" {
		t.Fatalf("expected field details, got %+v", env.Error)
	}
}

func TestWriteServiceErrorThrottledSetsRetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/x", nil)

	writeServiceError(w, r, &service.ThrottledError{RetryAfter: 30 * time.Second})

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After 30, got %q", got)
	}
}

func TestWriteServiceErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	writeServiceError(w, r, errors.New("pq: connection refused on 10.1.2.3"))

	body := w.Body.String()
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(body, "10.1.2.3") || strings.Contains(body, "pq:") {
		t.Fatalf("internal detail leaked: %q", body)
	}
}
