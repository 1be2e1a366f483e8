package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ClientCookieName identifies the browser talking to the local client
const ClientCookieName = "client_id"

// NewClientID creates a random identifier for a browser client
func NewClientID() string {
	return uuid.New().String()
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// ClientID returns the client cookie value, or an empty string
func ClientID(r *http.Request) string {
	cookie, err := r.Cookie(ClientCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// CreateClientCookie creates the long-lived client cookie
func CreateClientCookie(r *http.Request, value string) *http.Cookie {
	return CreateTempCookie(r, ClientCookieName, value, 365*24*time.Hour)
}

// CreateTempCookie creates a cookie that expires after ttl.
// The Secure flag is set based on the request scheme.
func CreateTempCookie(r *http.Request, name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie creates a cookie that removes name
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
