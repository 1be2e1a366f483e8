package handlers

import (
	"net/http"
	"strings"

	"nauczsie/internal/backend"
	"nauczsie/internal/models"
	"nauczsie/internal/validation"
)

// VocabHandler exposes the backend catalog and word generation
type VocabHandler struct {
	client *backend.Client
}

// NewVocabHandler creates a new vocab handler
func NewVocabHandler(client *backend.Client) *VocabHandler {
	return &VocabHandler{client: client}
}

// Health reports whether the backend is reachable
func (h *VocabHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, err := h.client.Health(r.Context())
	if err != nil {
		respondWithServiceError(w, "Backend health check failed", err)
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// Languages lists the languages the backend supports
func (h *VocabHandler) Languages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.client.Languages(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error fetching languages", err)
		return
	}
	respondWithJSON(w, http.StatusOK, languages)
}

// Categories lists the word categories
func (h *VocabHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.client.Categories(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error fetching categories", err)
		return
	}
	respondWithJSON(w, http.StatusOK, categories)
}

// Tenses lists the tenses sentences can be generated in
func (h *VocabHandler) Tenses(w http.ResponseWriter, r *http.Request) {
	tenses, err := h.client.Tenses(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error fetching tenses", err)
		return
	}
	respondWithJSON(w, http.StatusOK, tenses)
}

// Profile returns the backend's profile of the logged-in user
func (h *VocabHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.client.Me(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error fetching profile", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateLanguages saves the user's language pair
func (h *VocabHandler) UpdateLanguages(w http.ResponseWriter, r *http.Request) {
	var pair models.LanguagePair
	if err := decodeJSON(w, r, &pair); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	if err := validation.ValidateLanguagePair(pair); err != nil {
		respondWithServiceError(w, "Invalid language pair", err)
		return
	}

	profile, err := h.client.UpdateLanguages(r.Context(), pair)
	if err != nil {
		respondWithServiceError(w, "Error updating languages", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// GenerateWords generates and saves new words in a category
func (h *VocabHandler) GenerateWords(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	if err := validation.ValidateName("category", req.Category); err != nil {
		respondWithServiceError(w, "Invalid category", err)
		return
	}

	words, err := h.client.GenerateWords(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Error generating words", err)
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

// GenerateSentences generates cloze sentences in a tense
func (h *VocabHandler) GenerateSentences(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGenerateRequest(w, r)
	if !ok {
		return
	}
	if err := validation.ValidateName("tense", req.Tense); err != nil {
		respondWithServiceError(w, "Invalid tense", err)
		return
	}

	sentences, err := h.client.GenerateSentences(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "Error generating sentences", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sentences)
}

// Words lists the user's saved words
func (h *VocabHandler) Words(w http.ResponseWriter, r *http.Request) {
	words, err := h.client.MyWords(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error fetching words", err)
		return
	}
	respondWithJSON(w, http.StatusOK, words)
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type apiKeyStatus struct {
	Configured bool `json:"configured"`
}

// APIKeyStatus reports whether an OpenAI key is stored. The key itself is
// never returned.
func (h *VocabHandler) APIKeyStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, apiKeyStatus{Configured: h.client.HasAPIKey()})
}

// SetAPIKey stores the user's OpenAI key
func (h *VocabHandler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	if err := validation.ValidateAPIKey(req.APIKey); err != nil {
		respondWithServiceError(w, "Invalid API key", err)
		return
	}

	if err := h.client.SetAPIKey(req.APIKey); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error saving API key", err)
		return
	}
	respondWithJSON(w, http.StatusOK, apiKeyStatus{Configured: h.client.HasAPIKey()})
}

// ClearAPIKey removes the user's OpenAI key
func (h *VocabHandler) ClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.client.ClearAPIKey(); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error removing API key", err)
		return
	}
	respondWithJSON(w, http.StatusOK, apiKeyStatus{Configured: false})
}

func decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (models.GenerateRequest, bool) {
	var req models.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return req, false
	}

	req.Category = strings.TrimSpace(req.Category)
	req.Tense = strings.TrimSpace(req.Tense)
	pair := models.LanguagePair{NativeLanguage: req.NativeLanguage, TargetLanguage: req.TargetLanguage}
	if err := validation.ValidateLanguagePair(pair); err != nil {
		respondWithServiceError(w, "Invalid language pair", err)
		return req, false
	}
	return req, true
}
