package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"nauczsie/internal/models"
)

// ErrNoActiveReview is returned when a user has not started a review
var ErrNoActiveReview = errors.New("no active flashcard review")

// FlashcardSource fetches the saved-word snapshot a review runs over
type FlashcardSource interface {
	Flashcards(ctx context.Context, pair models.LanguagePair, limit int) ([]models.Flashcard, error)
}

// ReviewReporter is notified once when a review completes
type ReviewReporter interface {
	SendReviewSummary(ctx context.Context, user models.User, summary models.ReviewSummary) error
}

type activeReview struct {
	session  *FlashcardSession
	pair     models.LanguagePair
	user     models.User
	reported bool
}

// FlashcardService owns one review session per logged-in user
type FlashcardService struct {
	source       FlashcardSource
	reporter     ReviewReporter
	defaultLimit int

	mu      sync.Mutex
	reviews map[string]*activeReview // user ID -> review
}

// NewFlashcardService creates a new flashcard service. reporter may be nil.
func NewFlashcardService(source FlashcardSource, reporter ReviewReporter, defaultLimit int) *FlashcardService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &FlashcardService{
		source:       source,
		reporter:     reporter,
		defaultLimit: defaultLimit,
		reviews:      make(map[string]*activeReview),
	}
}

// StartReview fetches a fresh snapshot of cards and replaces the user's review
func (s *FlashcardService) StartReview(ctx context.Context, user models.User, pair models.LanguagePair, limit int) (models.FlashcardSnapshot, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	cards, err := s.source.Flashcards(ctx, pair, limit)
	if err != nil {
		return models.FlashcardSnapshot{}, fmt.Errorf("failed to fetch flashcards: %w", err)
	}

	review := &activeReview{
		session: NewFlashcardSession(cards),
		pair:    pair,
		user:    user,
	}

	s.mu.Lock()
	s.reviews[user.ID] = review
	snap := review.session.Snapshot()
	s.mu.Unlock()

	log.Printf("Flashcard review started: user=%s cards=%d %s->%s", user.ID, len(cards), pair.NativeLanguage, pair.TargetLanguage)
	return snap, nil
}

// Snapshot returns the state of the user's review
func (s *FlashcardService) Snapshot(userID string) (models.FlashcardSnapshot, error) {
	return s.apply(userID, func(*FlashcardSession) error { return nil })
}

func (s *FlashcardService) Flip(userID string) (models.FlashcardSnapshot, error) {
	return s.apply(userID, func(fs *FlashcardSession) error { fs.Flip(); return nil })
}

func (s *FlashcardService) Next(userID string) (models.FlashcardSnapshot, error) {
	return s.apply(userID, func(fs *FlashcardSession) error { fs.Next(); return nil })
}

func (s *FlashcardService) Previous(userID string) (models.FlashcardSnapshot, error) {
	return s.apply(userID, func(fs *FlashcardSession) error { fs.Previous(); return nil })
}

func (s *FlashcardService) Reset(userID string) (models.FlashcardSnapshot, error) {
	return s.apply(userID, func(fs *FlashcardSession) error { fs.Reset(); return nil })
}

// Rate records an outcome for the current card. The first time the review
// completes a summary is handed to the reporter.
func (s *FlashcardService) Rate(ctx context.Context, userID string, outcome models.Outcome) (models.FlashcardSnapshot, error) {
	s.mu.Lock()
	review, ok := s.reviews[userID]
	if !ok {
		s.mu.Unlock()
		return models.FlashcardSnapshot{}, ErrNoActiveReview
	}
	if err := review.session.Rate(outcome); err != nil {
		s.mu.Unlock()
		return models.FlashcardSnapshot{}, err
	}
	snap := review.session.Snapshot()

	var summary *models.ReviewSummary
	if review.session.IsComplete() && !review.reported {
		review.reported = true
		sum := review.session.Summary(review.pair)
		summary = &sum
	}
	user := review.user
	s.mu.Unlock()

	if summary != nil && s.reporter != nil {
		if err := s.reporter.SendReviewSummary(ctx, user, *summary); err != nil {
			log.Printf("Failed to send review summary to %s: %v", user.Email, err)
		}
	}
	return snap, nil
}

// Discard drops the user's review
func (s *FlashcardService) Discard(userID string) {
	s.mu.Lock()
	delete(s.reviews, userID)
	s.mu.Unlock()
}

// DiscardAll drops every review, used when the session is cleared
func (s *FlashcardService) DiscardAll() {
	s.mu.Lock()
	s.reviews = make(map[string]*activeReview)
	s.mu.Unlock()
}

func (s *FlashcardService) apply(userID string, fn func(*FlashcardSession) error) (models.FlashcardSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[userID]
	if !ok {
		return models.FlashcardSnapshot{}, ErrNoActiveReview
	}
	if err := fn(review.session); err != nil {
		return models.FlashcardSnapshot{}, err
	}
	return review.session.Snapshot(), nil
}
