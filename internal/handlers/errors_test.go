package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nauczsie/internal/backend"
	"nauczsie/internal/identity"
	"nauczsie/internal/models"
	"nauczsie/internal/service"
	"nauczsie/internal/validation"
)

func decodeDetail(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q: %v", recorder.Body.String(), err)
	}
	return body.Detail
}

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if detail := decodeDetail(t, recorder); detail != "Teapot" {
		t.Fatalf("expected detail 'Teapot', got %q", detail)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not logged in", service.ErrNotLoggedIn, http.StatusUnauthorized, "Session expired, please log in again"},
		{"session expired wrapped", fmt.Errorf("request failed: %w", service.ErrSessionExpired), http.StatusUnauthorized, "Session expired, please log in again"},
		{"configuration", service.ErrConfiguration, http.StatusServiceUnavailable, "Login is not configured"},
		{"invalid state", identity.ErrInvalidState, http.StatusBadRequest, "Invalid OAuth state"},
		{"no review", service.ErrNoActiveReview, http.StatusNotFound, "No flashcard review in progress"},
		{"invalid outcome", models.ErrInvalidOutcome, http.StatusBadRequest, "Outcome must be known or unknown"},
		{"provider error", &service.ProviderError{Op: "sign in", Message: "provider down"}, http.StatusBadGateway, "provider down"},
		{"backend client error", &backend.APIError{Status: 422, Detail: "field required"}, 422, "field required"},
		{"backend server error", &backend.APIError{Status: 500, Detail: "oops"}, http.StatusBadGateway, "oops"},
		{"validation", validation.ValidationError{Field: "tense", Message: "tense is required"}, http.StatusBadRequest, "tense is required"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, "test", tt.err)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			if detail := decodeDetail(t, recorder); detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", detail, tt.wantDetail)
			}
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"native_lang":"pl","extra":1}`))
	recorder := httptest.NewRecorder()

	var pair models.LanguagePair
	if err := decodeJSON(recorder, req, &pair); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
