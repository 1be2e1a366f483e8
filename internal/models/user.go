package models

import "time"

// User is the identity record of the logged-in account
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"full_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// PasswordProvider marks sessions created by a backend password login
const PasswordProvider = "password"

// AuthEvent is a state-change notification pushed by the identity provider
type AuthEvent string

const (
	AuthEventSignedIn  AuthEvent = "SIGNED_IN"
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
)

// ProviderSession is a session confirmed by the identity provider
type ProviderSession struct {
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// IsExpired checks if the access token has expired.
// A zero ExpiresAt means the provider did not report an expiry.
func (s *ProviderSession) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// OAuthRequest asks the provider to start a redirect-based OAuth handshake
type OAuthRequest struct {
	Provider   string
	RedirectTo string
}

// AuthStateChange is broadcast on every session adopt and clear
type AuthStateChange struct {
	User       *User `json:"user"`
	IsLoggedIn bool  `json:"isLoggedIn"`
}

// Credentials log in to a backend password account
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration creates a backend password account
type Registration struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Email          string `json:"email"`
	NativeLanguage string `json:"native_lang"`
	TargetLanguage string `json:"target_lang"`
}

// Languages returns the language pair chosen at registration
func (r Registration) Languages() LanguagePair {
	return LanguagePair{NativeLanguage: r.NativeLanguage, TargetLanguage: r.TargetLanguage}
}

// TokenResponse is the backend's reply to a password login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
