package handlers

import (
	"context"
	"net/http"
	"net/url"

	"nauczsie/internal/models"
	"nauczsie/internal/security"
	"nauczsie/internal/service"
)

// LoginCompleter finishes an OAuth login from the callback parameters
type LoginCompleter interface {
	Complete(ctx context.Context, state, code string) error
}

// AuthHandler serves the OAuth redirect flow and the session endpoints
type AuthHandler struct {
	authService *service.AuthService
	completer   LoginCompleter
	csrf        *security.CSRFGenerator
	provider    string
}

// NewAuthHandler creates a new auth handler. completer is nil when no
// identity provider is configured; provider names the sign-in link.
func NewAuthHandler(authService *service.AuthService, completer LoginCompleter, csrf *security.CSRFGenerator, provider string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		completer:   completer,
		csrf:        csrf,
		provider:    provider,
	}
}

type sessionResponse struct {
	models.AuthStateChange
	CSRFToken string `json:"csrf_token"`
}

// Session returns the current session and a CSRF token for this browser
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.GenerateToken(ensureClientID(w, r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}

	respondWithJSON(w, http.StatusOK, sessionResponse{
		AuthStateChange: h.currentState(),
		CSRFToken:       token,
	})
}

// StartOAuth redirects the browser to the provider's consent page
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.authService.LoginWithProvider(r.Context(), r.PathValue("provider"))
	if err != nil {
		respondWithServiceError(w, "Failed to start OAuth login", err)
		return
	}

	parsed, err := url.Parse(authURL)
	if err != nil || parsed.Query().Get("state") == "" {
		respondWithError(w, http.StatusBadGateway, "Invalid OAuth redirect", "Provider returned bad auth URL", err)
		return
	}

	http.SetCookie(w, security.CreateTempCookie(r, oauthStateCookieName, parsed.Query().Get("state"), oauthStateTTL))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback completes the login when the provider redirects back
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.completer == nil {
		respondWithServiceError(w, "OAuth callback without provider", service.ErrConfiguration)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		msg := query.Get("error_description")
		if msg == "" {
			msg = providerErr
		}
		respondWithError(w, http.StatusBadRequest, msg, "", nil)
		return
	}

	state := query.Get("state")
	cookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookieName))

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeTimeout)
	defer cancel()

	if err := h.completer.Complete(ctx, state, query.Get("code")); err != nil {
		respondWithServiceError(w, "Failed to complete OAuth login", err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the session at the provider and locally
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context())
	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	respondWithJSON(w, http.StatusOK, h.currentState())
}

// ensureClientID returns the browser's client id, issuing one if missing
func ensureClientID(w http.ResponseWriter, r *http.Request) string {
	clientID := security.ClientID(r)
	if clientID == "" {
		clientID = security.NewClientID()
		http.SetCookie(w, security.CreateClientCookie(r, clientID))
	}
	return clientID
}

func (h *AuthHandler) currentState() models.AuthStateChange {
	user := h.authService.CurrentUser()
	return models.AuthStateChange{User: user, IsLoggedIn: user != nil && h.authService.IsLoggedIn()}
}
