package service

import (
	"fmt"

	"nauczsie/internal/models"
)

// FlashcardSession drives one review pass over a fixed list of cards.
// It performs no I/O and is not safe for concurrent use; FlashcardService
// serializes access to the sessions it owns.
type FlashcardSession struct {
	cards        []models.Flashcard
	currentIndex int
	isFlipped    bool
	results      map[int]models.Outcome
	isComplete   bool
}

// NewFlashcardSession creates a session over cards
func NewFlashcardSession(cards []models.Flashcard) *FlashcardSession {
	s := &FlashcardSession{}
	s.Start(cards)
	return s
}

// Start replaces the session with a fresh pass over cards
func (s *FlashcardSession) Start(cards []models.Flashcard) {
	s.cards = make([]models.Flashcard, len(cards))
	copy(s.cards, cards)
	s.currentIndex = 0
	s.isFlipped = false
	s.results = make(map[int]models.Outcome)
	s.isComplete = false
}

// Flip toggles between the word and its translation
func (s *FlashcardSession) Flip() {
	if len(s.cards) == 0 {
		return
	}
	s.isFlipped = !s.isFlipped
}

// Next moves to the following card, wrapping to the first
func (s *FlashcardSession) Next() {
	if len(s.cards) <= 1 {
		return
	}
	s.moveTo((s.currentIndex + 1) % len(s.cards))
}

// Previous moves to the preceding card, wrapping to the last
func (s *FlashcardSession) Previous() {
	if len(s.cards) <= 1 {
		return
	}
	s.moveTo((s.currentIndex - 1 + len(s.cards)) % len(s.cards))
}

// Rate records the outcome for the current card.
//
// Re-rating a card overwrites its outcome in place and leaves the cursor
// where it is. A first rating either completes the session or moves the
// cursor to the nearest unrated card, scanning forward cyclically.
func (s *FlashcardSession) Rate(outcome models.Outcome) error {
	if !outcome.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidOutcome, outcome)
	}
	if len(s.cards) == 0 {
		return nil
	}

	s.isFlipped = false

	if _, rated := s.results[s.currentIndex]; rated {
		s.results[s.currentIndex] = outcome
		return nil
	}

	s.results[s.currentIndex] = outcome
	if len(s.results) == len(s.cards) {
		s.isComplete = true
		return nil
	}

	if next, ok := s.nextUnrated(); ok {
		s.currentIndex = next
	}
	return nil
}

// Reset clears all ratings and returns to the first card
func (s *FlashcardSession) Reset() {
	if len(s.cards) == 0 {
		return
	}
	s.currentIndex = 0
	s.isFlipped = false
	s.results = make(map[int]models.Outcome)
	s.isComplete = false
}

func (s *FlashcardSession) moveTo(index int) {
	s.currentIndex = index
	s.isFlipped = false
}

// nextUnrated scans offsets 1..len(cards) from the cursor
func (s *FlashcardSession) nextUnrated() (int, bool) {
	n := len(s.cards)
	for offset := 1; offset <= n; offset++ {
		index := (s.currentIndex + offset) % n
		if _, rated := s.results[index]; !rated {
			return index, true
		}
	}
	return 0, false
}

// Total returns the number of cards in the review
func (s *FlashcardSession) Total() int { return len(s.cards) }

// Reviewed returns how many cards have an outcome
func (s *FlashcardSession) Reviewed() int { return len(s.results) }

// Index returns the position of the current card
func (s *FlashcardSession) Index() int { return s.currentIndex }

// IsFlipped reports whether the current card shows its translation
func (s *FlashcardSession) IsFlipped() bool { return s.isFlipped }

// IsComplete reports whether every card has an outcome
func (s *FlashcardSession) IsComplete() bool { return s.isComplete }

// KnownCount returns the number of cards rated known
func (s *FlashcardSession) KnownCount() int {
	return s.count(models.OutcomeKnown)
}

// UnknownCount returns the number of cards rated unknown
func (s *FlashcardSession) UnknownCount() int {
	return s.count(models.OutcomeUnknown)
}

func (s *FlashcardSession) count(outcome models.Outcome) int {
	n := 0
	for _, o := range s.results {
		if o == outcome {
			n++
		}
	}
	return n
}

// Current returns the card under the cursor, if any
func (s *FlashcardSession) Current() (models.Flashcard, bool) {
	if len(s.cards) == 0 {
		return models.Flashcard{}, false
	}
	return s.cards[s.currentIndex], true
}

// CurrentOutcome returns the outcome recorded for the card under the cursor
func (s *FlashcardSession) CurrentOutcome() (models.Outcome, bool) {
	if len(s.cards) == 0 {
		return "", false
	}
	o, ok := s.results[s.currentIndex]
	return o, ok
}

// Results returns a copy of the recorded outcomes keyed by card index
func (s *FlashcardSession) Results() map[int]models.Outcome {
	out := make(map[int]models.Outcome, len(s.results))
	for i, o := range s.results {
		out[i] = o
	}
	return out
}

// Snapshot returns a read-only view of the session
func (s *FlashcardSession) Snapshot() models.FlashcardSnapshot {
	snap := models.FlashcardSnapshot{
		Total:        s.Total(),
		CurrentIndex: s.currentIndex,
		IsFlipped:    s.isFlipped,
		IsComplete:   s.isComplete,
		Reviewed:     s.Reviewed(),
		Known:        s.KnownCount(),
		Unknown:      s.UnknownCount(),
		Results:      s.Results(),
	}
	if card, ok := s.Current(); ok {
		snap.Current = &card
	}
	if o, ok := s.CurrentOutcome(); ok {
		snap.CurrentOutcome = o
	}
	return snap
}

// Summary describes the session for reporting
func (s *FlashcardSession) Summary(pair models.LanguagePair) models.ReviewSummary {
	summary := models.ReviewSummary{
		NativeLanguage: pair.NativeLanguage,
		TargetLanguage: pair.TargetLanguage,
		Total:          s.Total(),
		Known:          s.KnownCount(),
	}
	for i, card := range s.cards {
		if s.results[i] == models.OutcomeUnknown {
			summary.UnknownCards = append(summary.UnknownCards, card)
		}
	}
	return summary
}
