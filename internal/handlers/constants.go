package handlers

import "time"

const (
	oauthStateCookieName = "oauth_state"
	oauthStateTTL        = 10 * time.Minute
	oauthExchangeTimeout = 10 * time.Second
	csrfFormField        = "csrf_token"
	loginErrorParam      = "login"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInternalServerError = "Internal server error"
)
