// Package identity implements the OAuth identity provider the session
// manager treats as the authority on who is logged in.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"nauczsie/internal/models"
	"nauczsie/internal/service"
)

var (
	ErrInvalidState        = errors.New("invalid or expired OAuth state")
	ErrUnsupportedProvider = errors.New("unsupported OAuth provider")
	ErrMissingIdentity     = errors.New("provider did not return a user identity")
)

// SessionStorageKey is the local storage key the provider session is kept under
const SessionStorageKey = "identity_session"

const (
	stateTTL           = 10 * time.Minute
	expiryLeeway       = 30 * time.Second
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleRevokeURL    = "https://oauth2.googleapis.com/revoke"
	defaultProviderKey = "google"
)

// Config holds the OAuth client settings
type Config struct {
	Provider     string
	ClientID     string
	ClientSecret string
	// IssuerURL enables OIDC discovery and ID-token verification
	IssuerURL string
	// Endpoint, UserInfoURL and RevokeURL override the Google defaults
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	RevokeURL   string
	Scopes      []string
	HTTPClient  *http.Client
	Debug       bool
}

type pendingLogin struct {
	redirectTo string
	expiresAt  time.Time
}

type stateListener func(models.AuthEvent, *models.ProviderSession)

// Provider is an OAuth2 client that owns the provider-side session
type Provider struct {
	name        string
	oauth       oauth2.Config
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
	revokeURL   string
	httpClient  *http.Client
	store       service.LocalStorage
	debug       bool

	mu        sync.Mutex
	pending   map[string]pendingLogin
	session   *models.ProviderSession
	listeners map[int]stateListener
	nextID    int
}

// New creates a provider and restores a previously persisted session
func New(ctx context.Context, cfg Config, store service.LocalStorage) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, service.ErrConfiguration
	}

	p := &Provider{
		name: cfg.Provider,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     cfg.Endpoint,
			Scopes:       cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		revokeURL:   cfg.RevokeURL,
		httpClient:  cfg.HTTPClient,
		store:       store,
		debug:       cfg.Debug,
		pending:     make(map[string]pendingLogin),
		listeners:   make(map[int]stateListener),
	}
	if p.name == "" {
		p.name = defaultProviderKey
	}
	if len(p.oauth.Scopes) == 0 {
		p.oauth.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	if cfg.IssuerURL != "" {
		oidcProvider, err := oidc.NewProvider(p.clientContext(ctx), cfg.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to discover OIDC issuer: %w", err)
		}
		p.oauth.Endpoint = oidcProvider.Endpoint()
		p.verifier = oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
		if p.userInfoURL == "" {
			var discovery struct {
				UserInfoURL string `json:"userinfo_endpoint"`
				RevokeURL   string `json:"revocation_endpoint"`
			}
			if err := oidcProvider.Claims(&discovery); err == nil {
				p.userInfoURL = discovery.UserInfoURL
				if p.revokeURL == "" {
					p.revokeURL = discovery.RevokeURL
				}
			}
		}
	} else if p.oauth.Endpoint.AuthURL == "" {
		p.oauth.Endpoint = google.Endpoint
		if p.userInfoURL == "" {
			p.userInfoURL = googleUserInfoURL
		}
		if p.revokeURL == "" {
			p.revokeURL = googleRevokeURL
		}
	}

	if err := p.restore(); err != nil {
		log.Printf("Discarding persisted identity session: %v", err)
		_ = store.RemoveItem(SessionStorageKey)
	}
	return p, nil
}

// GetSession returns the current session, refreshing the access token when
// it has expired. A session that cannot be refreshed is dropped.
func (p *Provider) GetSession(ctx context.Context) (*models.ProviderSession, error) {
	p.mu.Lock()
	current := p.session
	p.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if !needsRefresh(current) {
		return copySession(current), nil
	}
	if current.RefreshToken == "" {
		p.drop(current)
		return nil, nil
	}

	if p.debug {
		log.Printf("[DEBUG] Refreshing access token for %s", current.User.Email)
	}
	token, err := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{
		RefreshToken: current.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// The refresh token was rejected so the session is gone.
			p.drop(current)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	refreshed := copySession(current)
	refreshed.AccessToken = token.AccessToken
	refreshed.ExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	p.mu.Lock()
	if p.session != current {
		p.mu.Unlock()
		return nil, errors.New("session changed during refresh")
	}
	p.session = refreshed
	p.persistLocked()
	p.mu.Unlock()

	return copySession(refreshed), nil
}

// OnAuthStateChange registers fn for SIGNED_IN and SIGNED_OUT events
func (p *Provider) OnAuthStateChange(fn func(models.AuthEvent, *models.ProviderSession)) service.Subscription {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return &subscription{provider: p, id: id}
}

// SignInWithOAuth records a pending login and returns the consent URL
func (p *Provider) SignInWithOAuth(ctx context.Context, req models.OAuthRequest) (string, error) {
	if req.Provider != p.name {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.Provider)
	}
	if _, err := url.ParseRequestURI(req.RedirectTo); err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	state := uuid.NewString()
	now := time.Now()

	p.mu.Lock()
	for key, pending := range p.pending {
		if now.After(pending.expiresAt) {
			delete(p.pending, key)
		}
	}
	p.pending[state] = pendingLogin{redirectTo: req.RedirectTo, expiresAt: now.Add(stateTTL)}
	p.mu.Unlock()

	conf := p.oauth
	conf.RedirectURL = req.RedirectTo
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Complete finishes a login started by SignInWithOAuth. It exchanges the
// authorization code, resolves the user and emits SIGNED_IN.
func (p *Provider) Complete(ctx context.Context, state, code string) error {
	p.mu.Lock()
	pending, ok := p.pending[state]
	delete(p.pending, state)
	p.mu.Unlock()

	if !ok || time.Now().After(pending.expiresAt) {
		return ErrInvalidState
	}
	if code == "" {
		return errors.New("missing authorization code")
	}

	ctx = p.clientContext(ctx)
	conf := p.oauth
	conf.RedirectURL = pending.redirectTo

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange OAuth code: %w", err)
	}

	user, err := p.identify(ctx, &conf, token)
	if err != nil {
		return err
	}

	session := &models.ProviderSession{
		Provider:     p.name,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		User:         user,
	}

	p.mu.Lock()
	p.session = session
	p.persistLocked()
	p.mu.Unlock()

	log.Printf("OAuth login completed: provider=%s user=%s", p.name, user.Email)
	p.emit(models.AuthEventSignedIn, copySession(session))
	return nil
}

// SignOut drops the session and revokes its refresh token. The local
// session is gone even when revocation fails.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.session
	p.session = nil
	p.persistLocked()
	p.mu.Unlock()

	if current == nil {
		return nil
	}
	p.emit(models.AuthEventSignedOut, nil)
	return p.revoke(ctx, current)
}

func (p *Provider) identify(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (models.User, error) {
	rawIDToken, _ := token.Extra("id_token").(string)

	if p.verifier != nil && rawIDToken != "" {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return models.User{}, fmt.Errorf("failed to verify ID token: %w", err)
		}
		var claims idClaims
		if err := idToken.Claims(&claims); err != nil {
			return models.User{}, fmt.Errorf("failed to parse ID token claims: %w", err)
		}
		return claims.user(idToken.Subject), nil
	}

	if rawIDToken != "" {
		// Received directly from the token endpoint over the client's
		// authenticated channel, so the signature is not rechecked.
		claims := &idClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err == nil && claims.Subject != "" {
			return claims.user(claims.Subject), nil
		}
	}

	return p.fetchUserInfo(ctx, conf, token)
}

func (p *Provider) fetchUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (models.User, error) {
	if p.userInfoURL == "" {
		return models.User{}, ErrMissingIdentity
	}

	resp, err := conf.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.User{}, fmt.Errorf("failed to fetch user info: status %d", resp.StatusCode)
	}

	var payload struct {
		ID      string `json:"id"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.User{}, fmt.Errorf("failed to parse user info: %w", err)
	}

	id := payload.ID
	if id == "" {
		id = payload.Sub
	}
	if id == "" {
		return models.User{}, ErrMissingIdentity
	}
	return models.User{ID: id, Email: payload.Email, DisplayName: payload.Name, AvatarURL: payload.Picture}, nil
}

func (p *Provider) revoke(ctx context.Context, session *models.ProviderSession) error {
	if p.revokeURL == "" {
		return nil
	}
	token := session.RefreshToken
	if token == "" {
		token = session.AccessToken
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token: status %d", resp.StatusCode)
	}
	return nil
}

// drop removes session if it is still current, emitting SIGNED_OUT
func (p *Provider) drop(session *models.ProviderSession) {
	p.mu.Lock()
	if p.session != session {
		p.mu.Unlock()
		return
	}
	p.session = nil
	p.persistLocked()
	p.mu.Unlock()

	log.Printf("Provider session for %s could not be refreshed", session.User.Email)
	p.emit(models.AuthEventSignedOut, nil)
}

func (p *Provider) restore() error {
	raw, ok, err := p.store.GetItem(SessionStorageKey)
	if err != nil || !ok {
		return err
	}

	var session models.ProviderSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return err
	}
	if session.AccessToken == "" || session.Provider != p.name {
		return errors.New("persisted session does not match provider")
	}
	p.session = &session
	return nil
}

// persistLocked mirrors p.session to the store. p.mu must be held.
func (p *Provider) persistLocked() {
	if p.session == nil {
		if err := p.store.RemoveItem(SessionStorageKey); err != nil {
			log.Printf("Failed to remove identity session: %v", err)
		}
		return
	}

	data, err := json.Marshal(p.session)
	if err != nil {
		log.Printf("Failed to encode identity session: %v", err)
		return
	}
	if err := p.store.SetItem(SessionStorageKey, string(data)); err != nil {
		log.Printf("Failed to persist identity session: %v", err)
	}
}

func (p *Provider) emit(event models.AuthEvent, session *models.ProviderSession) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.listeners))
	for id := range p.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]stateListener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.listeners[id])
	}
	p.mu.Unlock()

	if p.debug {
		log.Printf("[DEBUG] Emitting %s to %d listeners", event, len(fns))
	}
	for _, fn := range fns {
		fn(event, session)
	}
}

func (p *Provider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return http.DefaultClient
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

type subscription struct {
	provider *Provider
	id       int
	once     sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.provider.mu.Lock()
		delete(s.provider.listeners, s.id)
		s.provider.mu.Unlock()
	})
}

type idClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (c *idClaims) user(subject string) models.User {
	return models.User{ID: subject, Email: c.Email, DisplayName: c.Name, AvatarURL: c.Picture}
}

// needsRefresh reports whether the access token expires within expiryLeeway
func needsRefresh(s *models.ProviderSession) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expiryLeeway).After(s.ExpiresAt)
}

func copySession(s *models.ProviderSession) *models.ProviderSession {
	c := *s
	return &c
}
