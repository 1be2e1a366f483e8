package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	"nauczsie/internal/models"
	"nauczsie/internal/service"
	"nauczsie/internal/validation"
)

// Registrar creates backend password accounts
type Registrar interface {
	Register(ctx context.Context, reg models.Registration) (models.Profile, error)
}

// AccountHandler serves username and password accounts
type AccountHandler struct {
	authService *service.AuthService
	registrar   Registrar
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *service.AuthService, registrar Registrar) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		registrar:   registrar,
	}
}

// Register creates an account. The user logs in separately afterwards.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	if err := validateRegistration(reg); err != nil {
		respondWithServiceError(w, "Invalid registration", err)
		return
	}

	profile, err := h.registrar.Register(r.Context(), reg)
	if err != nil {
		respondWithServiceError(w, "Registration failed", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, profile)
}

// Login starts a password session. Form posts from the home page are
// redirected back to it.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := isFormPost(r)

	var creds models.Credentials
	if form {
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	} else if err := decodeJSON(w, r, &creds); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)

	if creds.Username == "" || creds.Password == "" {
		if form {
			redirectLoginFailed(w, r)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Username and password are required", "", nil)
		return
	}

	user, err := h.authService.LoginWithPassword(r.Context(), creds)
	if err != nil {
		if form {
			log.Printf("Password login failed: %v", err)
			redirectLoginFailed(w, r)
			return
		}
		respondWithServiceError(w, "Password login failed", err)
		return
	}

	if form {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	respondWithJSON(w, http.StatusOK, models.AuthStateChange{User: user, IsLoggedIn: true})
}

func validateRegistration(reg models.Registration) error {
	if err := validation.ValidateUsername(reg.Username); err != nil {
		return err
	}
	if err := validation.ValidateEmail(reg.Email); err != nil {
		return err
	}
	if err := validation.ValidatePassword(reg.Password); err != nil {
		return err
	}
	return validation.ValidateLanguagePair(reg.Languages())
}

func redirectLoginFailed(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?"+url.Values{loginErrorParam: {"failed"}}.Encode(), http.StatusSeeOther)
}

func isFormPost(r *http.Request) bool {
	return r.Header.Get("Content-Type") == "application/x-www-form-urlencoded"
}
