package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"nauczsie/internal/models"
)

var (
	ErrConfiguration  = errors.New("identity provider is not configured")
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("user is not logged in")
)

// ProviderError is returned when the identity provider rejects an operation
type ProviderError struct {
	Op      string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Subscription is a handle to a provider state-change subscription
type Subscription interface {
	Unsubscribe()
}

// Provider is the external identity provider that confirms sessions
type Provider interface {
	GetSession(ctx context.Context) (*models.ProviderSession, error)
	OnAuthStateChange(fn func(models.AuthEvent, *models.ProviderSession)) Subscription
	SignInWithOAuth(ctx context.Context, req models.OAuthRequest) (string, error)
	SignOut(ctx context.Context) error
}

// PasswordBackend authenticates backend password accounts
type PasswordBackend interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	ProfileForToken(ctx context.Context, token string) (models.Profile, error)
	Logout(ctx context.Context, token string) error
}

// LocalStorage is the durable key-value store the session is mirrored to
type LocalStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// Local storage keys written and removed together by session adopt and clear
const (
	TokenStorageKey  = "auth_token"
	UserStorageKey   = "user_data"
	SourceStorageKey = "auth_source"
)

// RequestOptions describes a request sent through AuthenticatedRequest.
// The body is buffered so the request can be retransmitted after a refresh.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   []byte
}

// AuthService is the single authority on who is logged in. It bridges the
// identity provider's event stream to local subscribers and mirrors the
// session to local storage.
type AuthService struct {
	provider   Provider
	storage    LocalStorage
	client     *http.Client
	redirectTo string
	events     *authBroadcaster

	mu           sync.Mutex
	passwords    PasswordBackend
	token        string
	user         *models.User
	source       string // provider name, or models.PasswordProvider
	generation   uint64 // bumped on every adopt and clear
	signingOut   bool
	subscription Subscription
}

// NewAuthService creates a new auth service. provider may be nil when no
// identity provider is configured; only password sessions can then exist.
func NewAuthService(provider Provider, storage LocalStorage, client *http.Client, redirectTo string) *AuthService {
	if client == nil {
		client = http.DefaultClient
	}
	return &AuthService{
		provider:   provider,
		storage:    storage,
		client:     client,
		redirectTo: redirectTo,
		events:     newAuthBroadcaster(),
	}
}

// UsePasswordBackend enables username and password login
func (s *AuthService) UsePasswordBackend(b PasswordBackend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords = b
}

// Restore rehydrates the session from local storage without broadcasting.
// Initialize later confirms it with whoever issued it. A stored session
// nothing can confirm is dropped.
func (s *AuthService) Restore() error {
	source, _, err := s.storage.GetItem(SourceStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read stored session source: %w", err)
	}

	s.mu.Lock()
	confirmable := s.provider != nil
	if source == models.PasswordProvider {
		confirmable = s.passwords != nil
	}
	s.mu.Unlock()
	if !confirmable {
		s.removeMirror()
		return nil
	}

	token, ok, err := s.storage.GetItem(TokenStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read stored token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	raw, ok, err := s.storage.GetItem(UserStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read stored user: %w", err)
	}
	if !ok {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return fmt.Errorf("failed to decode stored user: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.source = source
	s.mu.Unlock()
	return nil
}

// Initialize confirms a restored password session with the backend, then
// restores the provider's session and subscribes to its state changes. A
// confirmed password session takes precedence over the provider's. It must
// be called once; Close releases the subscription.
func (s *AuthService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	generation := s.generation
	restoredPassword := s.token != "" && s.source == models.PasswordProvider
	s.mu.Unlock()

	keepPassword := restoredPassword && s.confirmPasswordSession(ctx, generation)

	if s.provider == nil {
		return ErrConfiguration
	}

	if !keepPassword {
		s.mu.Lock()
		generation = s.generation
		s.mu.Unlock()

		session, err := s.provider.GetSession(ctx)
		switch {
		case err != nil:
			log.Printf("Failed to restore provider session: %v", err)
		case session != nil:
			s.adopt(session, &generation)
		default:
			s.clearRestored(generation)
		}
	}

	sub := s.provider.OnAuthStateChange(s.handleAuthEvent)

	s.mu.Lock()
	s.subscription = sub
	s.mu.Unlock()
	return nil
}

// Close releases the provider subscription
func (s *AuthService) Close() {
	s.mu.Lock()
	sub := s.subscription
	s.subscription = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Subscribe registers fn for every session transition and returns a
// function that removes it.
func (s *AuthService) Subscribe(fn AuthListener) func() {
	return s.events.subscribe(fn)
}

// LoginWithProvider starts the redirect-based OAuth handshake and returns
// the URL the user must be sent to. The session changes later, when the
// provider reports SIGNED_IN.
func (s *AuthService) LoginWithProvider(ctx context.Context, provider string) (string, error) {
	if s.provider == nil {
		return "", ErrConfiguration
	}

	authURL, err := s.provider.SignInWithOAuth(ctx, models.OAuthRequest{
		Provider:   provider,
		RedirectTo: s.redirectTo,
	})
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return "", err
		}
		return "", &ProviderError{Op: "sign in", Message: err.Error()}
	}
	return authURL, nil
}

// LoginWithPassword logs in to a backend password account and adopts the
// resulting session. It replaces any current session.
func (s *AuthService) LoginWithPassword(ctx context.Context, creds models.Credentials) (*models.User, error) {
	s.mu.Lock()
	passwords := s.passwords
	s.mu.Unlock()
	if passwords == nil {
		return nil, ErrConfiguration
	}

	token, err := passwords.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	profile, err := passwords.ProfileForToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	user := profile.User()
	s.adopt(&models.ProviderSession{
		Provider:    models.PasswordProvider,
		AccessToken: token,
		User:        user,
	}, nil)
	return &user, nil
}

// Logout signs out where the session was issued and clears the local
// session. Sign-out errors are logged and do not prevent the local clear.
func (s *AuthService) Logout(ctx context.Context) {
	s.mu.Lock()
	passwords, source, token := s.passwords, s.source, s.token
	s.mu.Unlock()

	switch {
	case source == models.PasswordProvider && passwords != nil:
		if err := passwords.Logout(ctx, token); err != nil {
			log.Printf("Backend logout failed: %v", err)
		}
	case s.provider != nil:
		s.mu.Lock()
		s.signingOut = true
		s.mu.Unlock()

		if err := s.provider.SignOut(ctx); err != nil {
			log.Printf("Provider sign-out failed: %v", err)
		}

		s.mu.Lock()
		s.signingOut = false
		s.mu.Unlock()
	}

	s.clear()
}

// IsLoggedIn reports whether a token and user are present
func (s *AuthService) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// CurrentUser returns a copy of the logged-in user, or nil
func (s *AuthService) CurrentUser() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Token returns the current bearer token, or an empty string
func (s *AuthService) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// AuthenticatedRequest sends a request with the current bearer token.
//
// On 401 the provider is asked for its current session. If it holds a
// different token the token is swapped in place and the request is sent
// exactly once more; that response is returned as-is. Otherwise the
// session is cleared and ErrSessionExpired is returned.
func (s *AuthService) AuthenticatedRequest(ctx context.Context, target string, opts RequestOptions) (*http.Response, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.send(ctx, target, opts, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drainAndClose(resp)

	refreshed, err := s.refreshToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, target, opts, refreshed)
}

// refreshToken adopts the provider's token if it differs from stale.
// Password sessions have no refresh and expire on the first 401.
func (s *AuthService) refreshToken(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	var session *models.ProviderSession
	if s.provider != nil && source != models.PasswordProvider {
		var err error
		session, err = s.provider.GetSession(ctx)
		if err != nil {
			log.Printf("Failed to query provider session after 401: %v", err)
			session = nil
		}
	}

	s.mu.Lock()
	if s.token != stale {
		// Another session was adopted while the request was in flight.
		current := s.token
		s.mu.Unlock()
		if current == "" {
			return "", ErrSessionExpired
		}
		return current, nil
	}
	if session == nil || session.AccessToken == "" || session.AccessToken == stale {
		s.mu.Unlock()
		s.clear()
		return "", ErrSessionExpired
	}

	s.token = session.AccessToken
	if err := s.storage.SetItem(TokenStorageKey, s.token); err != nil {
		log.Printf("Failed to persist refreshed token: %v", err)
	}
	s.mu.Unlock()
	return session.AccessToken, nil
}

func (s *AuthService) send(ctx context.Context, target string, opts RequestOptions, token string) (*http.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return s.client.Do(req)
}

func (s *AuthService) handleAuthEvent(event models.AuthEvent, session *models.ProviderSession) {
	switch event {
	case models.AuthEventSignedIn:
		if session != nil {
			s.adopt(session, nil)
		}
	case models.AuthEventSignedOut:
		s.mu.Lock()
		signingOut := s.signingOut
		passwordSession := s.source == models.PasswordProvider
		s.mu.Unlock()
		// Logout clears the session itself once the provider returns.
		if signingOut || passwordSession {
			return
		}
		s.clear()
	}
}

// adopt installs a provider session. When expected is non-nil the session
// is only adopted if no transition happened since *expected was read.
func (s *AuthService) adopt(session *models.ProviderSession, expected *uint64) {
	user := session.User

	s.mu.Lock()
	if expected != nil && *expected != s.generation {
		s.mu.Unlock()
		log.Printf("Discarding stale provider session for %s", user.Email)
		return
	}
	s.generation++
	s.token = session.AccessToken
	s.user = &user
	s.source = session.Provider

	if err := s.storage.SetItem(TokenStorageKey, session.AccessToken); err != nil {
		log.Printf("Failed to persist token: %v", err)
	}
	if err := s.storage.SetItem(SourceStorageKey, session.Provider); err != nil {
		log.Printf("Failed to persist session source: %v", err)
	}
	if data, err := json.Marshal(user); err != nil {
		log.Printf("Failed to encode user: %v", err)
	} else if err := s.storage.SetItem(UserStorageKey, string(data)); err != nil {
		log.Printf("Failed to persist user: %v", err)
	}
	s.mu.Unlock()

	log.Printf("Session adopted for %s", user.Email)
	broadcastUser := user
	s.events.publish(models.AuthStateChange{User: &broadcastUser, IsLoggedIn: true})
}

// clear drops the session from memory and local storage and broadcasts
func (s *AuthService) clear() {
	s.mu.Lock()
	s.generation++
	s.token = ""
	s.user = nil
	s.source = ""
	s.mu.Unlock()

	s.removeMirror()
	s.events.publish(models.AuthStateChange{User: nil, IsLoggedIn: false})
}

// removeMirror deletes the stored session without touching memory
func (s *AuthService) removeMirror() {
	for _, key := range []string{TokenStorageKey, UserStorageKey, SourceStorageKey} {
		if err := s.storage.RemoveItem(key); err != nil {
			log.Printf("Failed to remove stored %s: %v", key, err)
		}
	}
}

// confirmPasswordSession checks a restored password session with the
// backend. It reports whether the session is still held afterwards.
func (s *AuthService) confirmPasswordSession(ctx context.Context, generation uint64) bool {
	s.mu.Lock()
	passwords, token := s.passwords, s.token
	s.mu.Unlock()

	profile, err := passwords.ProfileForToken(ctx, token)
	switch {
	case errors.Is(err, ErrSessionExpired):
		s.clearRestored(generation)
		return false
	case err != nil:
		log.Printf("Failed to confirm stored password session: %v", err)
		return true
	}

	s.adopt(&models.ProviderSession{
		Provider:    models.PasswordProvider,
		AccessToken: token,
		User:        profile.User(),
	}, &generation)
	return true
}

// clearRestored drops a session rehydrated by Restore when the provider
// reports none, unless something else changed the session meanwhile.
func (s *AuthService) clearRestored(generation uint64) {
	s.mu.Lock()
	restored := s.token != "" && s.generation == generation
	s.mu.Unlock()

	if restored {
		s.clear()
	}
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
