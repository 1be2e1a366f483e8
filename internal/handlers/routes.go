package handlers

import "net/http"

// Handlers groups everything RegisterRoutes wires onto the mux
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Accounts   *AccountHandler
	Vocab      *VocabHandler
	Flashcards *FlashcardHandler
}

// RegisterRoutes registers the web client routes
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	mw := h.Middleware

	// Public routes
	mux.HandleFunc("GET /{$}", h.Auth.Home)
	mux.HandleFunc("GET /auth/{provider}/start", mw.RateLimit(h.Auth.StartOAuth))
	mux.HandleFunc("GET /auth/callback", h.Auth.OAuthCallback)
	mux.HandleFunc("POST /logout", mw.CSRFProtect(h.Auth.Logout))
	mux.HandleFunc("POST /login", mw.CSRFProtect(mw.RateLimit(h.Accounts.Login)))
	mux.HandleFunc("POST /api/register", mw.CSRFProtect(mw.RateLimit(h.Accounts.Register)))
	mux.HandleFunc("GET /api/session", h.Auth.Session)
	mux.HandleFunc("GET /api/events", h.Auth.Events)

	// Catalog routes
	mux.HandleFunc("GET /api/health", h.Vocab.Health)
	mux.HandleFunc("GET /api/languages", h.Vocab.Languages)
	mux.HandleFunc("GET /api/categories", h.Vocab.Categories)
	mux.HandleFunc("GET /api/tenses", h.Vocab.Tenses)

	// Protected routes
	mux.HandleFunc("GET /api/me", mw.RequireAuth(h.Vocab.Profile))
	mux.HandleFunc("PUT /api/me/languages", mw.RequireAuth(mw.CSRFProtect(h.Vocab.UpdateLanguages)))
	mux.HandleFunc("POST /api/words/generate", mw.RequireAuth(mw.CSRFProtect(mw.RateLimit(h.Vocab.GenerateWords))))
	mux.HandleFunc("POST /api/sentences/generate", mw.RequireAuth(mw.CSRFProtect(mw.RateLimit(h.Vocab.GenerateSentences))))
	mux.HandleFunc("GET /api/words", mw.RequireAuth(h.Vocab.Words))

	// Settings routes
	mux.HandleFunc("GET /api/settings/api-key", mw.RequireAuth(h.Vocab.APIKeyStatus))
	mux.HandleFunc("PUT /api/settings/api-key", mw.RequireAuth(mw.CSRFProtect(h.Vocab.SetAPIKey)))
	mux.HandleFunc("DELETE /api/settings/api-key", mw.RequireAuth(mw.CSRFProtect(h.Vocab.ClearAPIKey)))

	// Flashcard routes
	mux.HandleFunc("POST /api/flashcards/start", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.StartReview)))
	mux.HandleFunc("GET /api/flashcards", mw.RequireAuth(h.Flashcards.Snapshot))
	mux.HandleFunc("DELETE /api/flashcards", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Discard)))
	mux.HandleFunc("POST /api/flashcards/flip", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Flip)))
	mux.HandleFunc("POST /api/flashcards/next", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Next)))
	mux.HandleFunc("POST /api/flashcards/previous", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Previous)))
	mux.HandleFunc("POST /api/flashcards/reset", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Reset)))
	mux.HandleFunc("POST /api/flashcards/rate", mw.RequireAuth(mw.CSRFProtect(h.Flashcards.Rate)))
}
