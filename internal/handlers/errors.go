package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"nauczsie/internal/backend"
	"nauczsie/internal/identity"
	"nauczsie/internal/models"
	"nauczsie/internal/service"
	"nauczsie/internal/validation"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, map[string]string{"detail": userMsg})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// respondWithServiceError maps domain errors to HTTP responses
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var apiErr *backend.APIError
	var providerErr *service.ProviderError
	var validationErr validation.ValidationError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Message, "", nil)
	case errors.Is(err, service.ErrNotLoggedIn), errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, "Session expired, please log in again", logMsg, err)
	case errors.Is(err, service.ErrConfiguration):
		respondWithError(w, http.StatusServiceUnavailable, "Login is not configured", logMsg, err)
	case errors.Is(err, identity.ErrInvalidState):
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", logMsg, err)
	case errors.Is(err, service.ErrNoActiveReview):
		respondWithError(w, http.StatusNotFound, "No flashcard review in progress", logMsg, err)
	case errors.Is(err, models.ErrInvalidOutcome):
		respondWithError(w, http.StatusBadRequest, "Outcome must be known or unknown", logMsg, err)
	case errors.As(err, &providerErr):
		respondWithError(w, http.StatusBadGateway, providerErr.Message, logMsg, err)
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		respondWithError(w, status, apiErr.Detail, logMsg, err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
