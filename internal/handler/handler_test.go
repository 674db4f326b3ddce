package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/service"
)

func TestHandler_NotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Error != "resource not found" || response.Code != CodeNotFound {
		t.Errorf("unexpected error body: %+v", response)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	var response dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Error != "method not allowed" {
		t.Errorf("unexpected error message: %s", response.Error)
	}
}

func TestHandleServiceError(t *testing.T) {
	backend := errors.New("dial tcp 10.0.0.5:5432: connection refused")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"validation", service.NewValidationError("duration", "duration must be a number"), http.StatusBadRequest, CodeValidation, "duration"},
		{"wrapped validation", fmt.Errorf("create: %w", service.NewValidationError("name", "name is required")), http.StatusBadRequest, CodeValidation, "name"},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, ""},
		{"not found", service.ErrGroupNotFound, http.StatusNotFound, CodeGroupNotFound, ""},
		{"store", &service.StoreError{Op: "get group", Err: backend}, http.StatusInternalServerError, CodeStore, ""},
		{"unexpected", backend, http.StatusInternalServerError, CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(discardLogger(), rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if strings.Contains(rec.Body.String(), "10.0.0.5") {
				t.Error("backend error leaked into response")
			}

			var response dto.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Code != tt.wantCode || response.Field != tt.wantField {
				t.Errorf("unexpected error body: %+v", response)
			}
			if response.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestRouter_FallbackHandlers(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/nothing-here", "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = app.do(http.MethodDelete, "/api/groups/"+testGroupID, "", true)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
