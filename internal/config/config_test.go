package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_URL", "")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("FLASHCARD_LIMIT", "")

	cfg := Load()

	if cfg.ServerPort != "5173" {
		t.Errorf("ServerPort = %q, want 5173", cfg.ServerPort)
	}
	if cfg.APIURL != "http://127.0.0.1:8000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.FlashcardLimit != 20 {
		t.Errorf("FlashcardLimit = %d", cfg.FlashcardLimit)
	}
	if cfg.OAuthConfigured() {
		t.Error("OAuthConfigured() should be false without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_URL", "http://backend.local/")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("FLASHCARD_LIMIT", "not-a-number")
	t.Setenv("BASE_URL", "https://nauczsie.example.com/")

	cfg := Load()

	if cfg.APIURL != "http://backend.local" {
		t.Errorf("APIURL = %q, trailing slash should be trimmed", cfg.APIURL)
	}
	if !cfg.OAuthConfigured() {
		t.Error("OAuthConfigured() should be true")
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.FlashcardLimit != 20 {
		t.Errorf("invalid FLASHCARD_LIMIT should fall back to default, got %d", cfg.FlashcardLimit)
	}
	if got := cfg.RedirectBaseURL(); got != "https://nauczsie.example.com" {
		t.Errorf("RedirectBaseURL() = %q", got)
	}
}
