package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOutcome is returned when a rating is neither known nor unknown
var ErrInvalidOutcome = errors.New("invalid outcome")

// Flashcard is a single card in a review session. Content is never mutated.
type Flashcard struct {
	Word            string `json:"word"`
	Translation     string `json:"translation"`
	ExampleSentence string `json:"example_sentence,omitempty"`
	Category        string `json:"category,omitempty"`
}

// Outcome is the user's self-assessment of a flashcard
type Outcome string

const (
	OutcomeKnown   Outcome = "known"
	OutcomeUnknown Outcome = "unknown"
)

// Valid reports whether o is one of the recognised outcomes
func (o Outcome) Valid() bool {
	return o == OutcomeKnown || o == OutcomeUnknown
}

// ParseOutcome converts user input into an Outcome
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
	}
	return o, nil
}

// FlashcardSnapshot is a read-only view of a review session
type FlashcardSnapshot struct {
	Total          int             `json:"total"`
	CurrentIndex   int             `json:"current_index"`
	IsFlipped      bool            `json:"is_flipped"`
	IsComplete     bool            `json:"is_complete"`
	Reviewed       int             `json:"reviewed"`
	Known          int             `json:"known"`
	Unknown        int             `json:"unknown"`
	Current        *Flashcard      `json:"current,omitempty"`
	CurrentOutcome Outcome         `json:"current_outcome,omitempty"`
	Results        map[int]Outcome `json:"results"`
}

// ReviewSummary describes a completed review session
type ReviewSummary struct {
	NativeLanguage string
	TargetLanguage string
	Total          int
	Known          int
	UnknownCards   []Flashcard
}

// Accuracy returns the percentage of cards rated known
func (s ReviewSummary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Known) / float64(s.Total) * 100
}
