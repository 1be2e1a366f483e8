// Package backend is the client for the word generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"nauczsie/internal/models"
	"nauczsie/internal/service"
)

// OpenAIKeyStorageKey is the local storage key of the user's OpenAI API key
const OpenAIKeyStorageKey = "nauczsie_openai_key"

const openAIKeyHeader = "X-OpenAI-Key"

// APIError is a non-2xx response from the backend
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Detail)
}

// Requester sends requests carrying the session's bearer token
type Requester interface {
	AuthenticatedRequest(ctx context.Context, target string, opts service.RequestOptions) (*http.Response, error)
}

// Client talks to the backend on behalf of the logged-in user
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Requester
	storage    service.LocalStorage
}

// NewClient creates a backend client. Catalog endpoints use httpClient
// directly, user endpoints go through auth.
func NewClient(baseURL string, httpClient *http.Client, auth Requester, storage service.LocalStorage) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		auth:       auth,
		storage:    storage,
	}
}

// Health returns the backend's health payload
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.public(ctx, "/health", &out)
	return out, err
}

func (c *Client) Languages(ctx context.Context) ([]models.Language, error) {
	var out []models.Language
	err := c.public(ctx, "/languages", &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.public(ctx, "/categories", &out)
	return out, err
}

func (c *Client) Tenses(ctx context.Context) ([]models.Tense, error) {
	var out []models.Tense
	err := c.public(ctx, "/tenses", &out)
	return out, err
}

// Register creates a password account. The user still has to log in.
func (c *Client) Register(ctx context.Context, reg models.Registration) (models.Profile, error) {
	var out models.Profile
	err := c.direct(ctx, http.MethodPost, "/register", "", reg, &out)
	return out, err
}

// Login exchanges a username and password for a bearer token
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var out models.TokenResponse
	if err := c.direct(ctx, http.MethodPost, "/token", "", creds, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("backend returned no access token")
	}
	return out.AccessToken, nil
}

// ProfileForToken fetches the profile that token belongs to, outside the
// session. A rejected token is reported as service.ErrSessionExpired.
func (c *Client) ProfileForToken(ctx context.Context, token string) (models.Profile, error) {
	var out models.Profile
	err := c.direct(ctx, http.MethodGet, "/user/me", token, nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return out, fmt.Errorf("%w: %s", service.ErrSessionExpired, apiErr.Detail)
	}
	return out, err
}

// Logout revokes token on the backend
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.direct(ctx, http.MethodPost, "/logout", token, nil, nil)
}

// Me returns the backend profile of the logged-in user
func (c *Client) Me(ctx context.Context) (models.Profile, error) {
	var out models.Profile
	err := c.authenticated(ctx, http.MethodGet, "/user/me", nil, &out)
	return out, err
}

// UpdateLanguages saves the user's native and target language
func (c *Client) UpdateLanguages(ctx context.Context, pair models.LanguagePair) (models.Profile, error) {
	var out models.Profile
	err := c.authenticated(ctx, http.MethodPut, "/user/langs", pair, &out)
	return out, err
}

// GenerateWords asks the backend to generate and save words for a category
func (c *Client) GenerateWords(ctx context.Context, req models.GenerateRequest) ([]models.Word, error) {
	if req.Category == "" {
		return nil, fmt.Errorf("category is required")
	}
	if err := c.attachAPIKey(&req); err != nil {
		return nil, err
	}

	var out []models.Word
	path := "/categories/" + url.PathEscape(req.Category) + "/generate"
	err := c.authenticated(ctx, http.MethodPost, path, req, &out)
	return out, err
}

// GenerateSentences asks the backend for cloze sentences in a tense
func (c *Client) GenerateSentences(ctx context.Context, req models.GenerateRequest) ([]models.Sentence, error) {
	if req.Tense == "" {
		return nil, fmt.Errorf("tense is required")
	}
	if err := c.attachAPIKey(&req); err != nil {
		return nil, err
	}

	var out []models.Sentence
	err := c.authenticated(ctx, http.MethodPost, "/sentences/generate", req, &out)
	return out, err
}

// MyWords lists the user's saved words
func (c *Client) MyWords(ctx context.Context) ([]models.Word, error) {
	var out []models.Word
	err := c.authenticated(ctx, http.MethodGet, "/words", nil, &out)
	return out, err
}

// Flashcards fetches a snapshot of saved words for a review
func (c *Client) Flashcards(ctx context.Context, pair models.LanguagePair, limit int) ([]models.Flashcard, error) {
	query := url.Values{}
	query.Set("native_lang", pair.NativeLanguage)
	query.Set("target_lang", pair.TargetLanguage)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var words []models.Word
	if err := c.authenticated(ctx, http.MethodGet, "/words/flashcards?"+query.Encode(), nil, &words); err != nil {
		return nil, err
	}

	cards := make([]models.Flashcard, 0, len(words))
	for _, w := range words {
		cards = append(cards, w.Flashcard())
	}
	return cards, nil
}

// SetAPIKey stores the user's OpenAI key
func (c *Client) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return c.ClearAPIKey()
	}
	return c.storage.SetItem(OpenAIKeyStorageKey, key)
}

// ClearAPIKey removes the user's OpenAI key
func (c *Client) ClearAPIKey() error {
	return c.storage.RemoveItem(OpenAIKeyStorageKey)
}

// HasAPIKey reports whether an OpenAI key is stored
func (c *Client) HasAPIKey() bool {
	key, ok, err := c.storage.GetItem(OpenAIKeyStorageKey)
	return err == nil && ok && key != ""
}

func (c *Client) attachAPIKey(req *models.GenerateRequest) error {
	if req.APIKey != "" {
		return nil
	}
	key, ok, err := c.storage.GetItem(OpenAIKeyStorageKey)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if ok {
		req.APIKey = key
	}
	return nil
}

func (c *Client) public(ctx context.Context, path string, out any) error {
	return c.direct(ctx, http.MethodGet, path, "", nil, out)
}

// direct sends a request with the http client, bypassing the session
func (c *Client) direct(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	return decodeResponse(resp, out)
}

func (c *Client) authenticated(ctx context.Context, method, path string, body, out any) error {
	opts := service.RequestOptions{
		Method: method,
		Header: http.Header{"Accept": {"application/json"}},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		opts.Body = data
		opts.Header.Set("Content-Type", "application/json")
	}
	if key, ok, err := c.storage.GetItem(OpenAIKeyStorageKey); err == nil && ok && key != "" {
		opts.Header.Set(openAIKeyHeader, key)
	}

	resp, err := c.auth.AuthenticatedRequest(ctx, c.baseURL+path, opts)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", strings.SplitN(path, "?", 2)[0], err)
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorDetail extracts the server message from a detail field that is
// either a string or a list of {msg} objects
func errorDetail(status int, data []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil && text != "" {
			return text
		}

		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}
