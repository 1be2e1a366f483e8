package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"nauczsie/internal/models"
	"nauczsie/internal/service"
	"nauczsie/internal/validation"
)

// ProfileSource looks up the logged-in user's saved languages
type ProfileSource interface {
	Me(ctx context.Context) (models.Profile, error)
}

// FlashcardHandler drives flashcard reviews for the logged-in user
type FlashcardHandler struct {
	flashcards *service.FlashcardService
	profiles   ProfileSource
}

// NewFlashcardHandler creates a new flashcard handler
func NewFlashcardHandler(flashcards *service.FlashcardService, profiles ProfileSource) *FlashcardHandler {
	return &FlashcardHandler{
		flashcards: flashcards,
		profiles:   profiles,
	}
}

type startReviewRequest struct {
	NativeLanguage string `json:"native_lang"`
	TargetLanguage string `json:"target_lang"`
	Limit          int    `json:"limit"`
}

type rateRequest struct {
	Outcome string `json:"outcome"`
}

// StartReview fetches a fresh card set and starts a review. Without a
// language pair in the body the profile's saved pair is used.
func (h *FlashcardHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req startReviewRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	if req.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "Limit must not be negative", "", nil)
		return
	}

	pair := models.LanguagePair{NativeLanguage: req.NativeLanguage, TargetLanguage: req.TargetLanguage}
	if pair.NativeLanguage != "" || pair.TargetLanguage != "" {
		if err := validation.ValidateLanguagePair(pair); err != nil {
			respondWithServiceError(w, "Invalid language pair", err)
			return
		}
	} else {
		profile, err := h.profiles.Me(r.Context())
		if err != nil {
			respondWithServiceError(w, "Error fetching profile for review", err)
			return
		}
		pair = profile.Languages()
	}
	if !pair.Valid() {
		respondWithError(w, http.StatusBadRequest, "Choose your languages before starting a review", "", nil)
		return
	}

	snapshot, err := h.flashcards.StartReview(r.Context(), *user, pair, req.Limit)
	if err != nil {
		respondWithServiceError(w, "Error starting flashcard review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

// Snapshot returns the current review state
func (h *FlashcardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.flashcards.Snapshot)
}

// Flip toggles the current card
func (h *FlashcardHandler) Flip(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.flashcards.Flip)
}

// Next moves to the next card
func (h *FlashcardHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.flashcards.Next)
}

// Previous moves to the previous card
func (h *FlashcardHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.flashcards.Previous)
}

// Reset restarts the review with the same cards
func (h *FlashcardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.flashcards.Reset)
}

// Rate records the outcome for the current card
func (h *FlashcardHandler) Rate(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	outcome, err := models.ParseOutcome(req.Outcome)
	if err != nil {
		respondWithServiceError(w, "Invalid flashcard outcome", err)
		return
	}

	snapshot, err := h.flashcards.Rate(r.Context(), user.ID, outcome)
	if err != nil {
		respondWithServiceError(w, "Error rating flashcard", err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}

// Discard abandons the current review
func (h *FlashcardHandler) Discard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	h.flashcards.Discard(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *FlashcardHandler) step(w http.ResponseWriter, r *http.Request, fn func(userID string) (models.FlashcardSnapshot, error)) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	snapshot, err := fn(user.ID)
	if err != nil {
		respondWithServiceError(w, "Error updating flashcard review", err)
		return
	}
	respondWithJSON(w, http.StatusOK, snapshot)
}
