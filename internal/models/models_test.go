package models

import (
	"errors"
	"testing"
	"time"
)

func TestProviderSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "no expiry reported",
			expiresAt: time.Time{},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := ProviderSession{AccessToken: "token", ExpiresAt: tt.expiresAt}
			if got := session.IsExpired(); got != tt.want {
				t.Errorf("ProviderSession.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Outcome
		wantErr bool
	}{
		{name: "known", input: "known", want: OutcomeKnown},
		{name: "unknown", input: "unknown", want: OutcomeUnknown},
		{name: "mixed case and spaces", input: "  Known ", want: OutcomeKnown},
		{name: "empty", input: "", wantErr: true},
		{name: "unrecognised", input: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutcome(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutcome(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOutcome) {
					t.Errorf("error should wrap ErrInvalidOutcome, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseOutcome(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWordFlashcard(t *testing.T) {
	word := Word{ID: 7, Source: "dom", Target: "house", ExampleSentence: "To jest mój dom.", Category: "home"}
	card := word.Flashcard()

	if card.Word != "dom" || card.Translation != "house" {
		t.Errorf("unexpected card %+v", card)
	}
	if card.ExampleSentence != "To jest mój dom." || card.Category != "home" {
		t.Errorf("optional fields not carried over: %+v", card)
	}
}

func TestReviewSummaryAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		summary ReviewSummary
		want    float64
	}{
		{name: "empty session", summary: ReviewSummary{}, want: 0},
		{name: "all known", summary: ReviewSummary{Total: 4, Known: 4}, want: 100},
		{name: "half known", summary: ReviewSummary{Total: 4, Known: 2}, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.Accuracy(); got != tt.want {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfileUser(t *testing.T) {
	profile := Profile{ID: "7", Email: "ola@example.com", Username: "ola", NativeLanguage: "pl", TargetLanguage: "en"}

	user := profile.User()
	if user.ID != "7" || user.Email != "ola@example.com" || user.DisplayName != "ola" {
		t.Errorf("Profile.User() = %+v", user)
	}
}
