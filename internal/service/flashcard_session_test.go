package service

import (
	"errors"
	"testing"

	"nauczsie/internal/models"
)

func testCards(words ...string) []models.Flashcard {
	cards := make([]models.Flashcard, len(words))
	for i, w := range words {
		cards[i] = models.Flashcard{Word: w, Translation: w + "-t"}
	}
	return cards
}

func TestFlashcardSessionStart(t *testing.T) {
	s := NewFlashcardSession(testCards("a", "b"))
	s.Flip()
	if err := s.Rate(models.OutcomeKnown); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}

	s.Start(testCards("x", "y", "z"))

	if s.Total() != 3 || s.Index() != 0 || s.IsFlipped() || s.Reviewed() != 0 || s.IsComplete() {
		t.Fatalf("Start() did not reset state: %+v", s.Snapshot())
	}
	card, ok := s.Current()
	if !ok || card.Word != "x" {
		t.Errorf("Current() = %v, %v, want x", card, ok)
	}
}

func TestFlashcardSessionStartCopiesCards(t *testing.T) {
	cards := testCards("a", "b")
	s := NewFlashcardSession(cards)
	cards[0].Word = "mutated"

	card, _ := s.Current()
	if card.Word != "a" {
		t.Errorf("session should not share the caller's slice, got %q", card.Word)
	}
}

func TestFlashcardSessionEmptyIsNoOp(t *testing.T) {
	s := NewFlashcardSession(nil)

	s.Flip()
	s.Next()
	s.Previous()
	s.Reset()
	if err := s.Rate(models.OutcomeKnown); err != nil {
		t.Fatalf("Rate() on empty session error = %v", err)
	}

	if s.IsFlipped() || s.Index() != 0 || s.Reviewed() != 0 || s.IsComplete() {
		t.Errorf("empty session mutated: %+v", s.Snapshot())
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() should be absent for an empty session")
	}
	if _, ok := s.CurrentOutcome(); ok {
		t.Error("CurrentOutcome() should be absent for an empty session")
	}
}

func TestFlashcardSessionNavigationWraps(t *testing.T) {
	s := NewFlashcardSession(testCards("a", "b", "c"))

	s.Previous()
	if s.Index() != 2 {
		t.Errorf("Previous() from 0 = %d, want 2", s.Index())
	}
	s.Next()
	if s.Index() != 0 {
		t.Errorf("Next() from last = %d, want 0", s.Index())
	}

	s.Flip()
	s.Next()
	if s.IsFlipped() {
		t.Error("Next() should reset the flip state")
	}
	s.Flip()
	s.Previous()
	if s.IsFlipped() {
		t.Error("Previous() should reset the flip state")
	}
}

func TestFlashcardSessionNextPreviousAreInverses(t *testing.T) {
	for n := 1; n <= 5; n++ {
		words := make([]string, n)
		for i := range words {
			words[i] = string(rune('a' + i))
		}
		s := NewFlashcardSession(testCards(words...))
		for i := 0; i < n; i++ {
			start := s.Index()
			s.Next()
			s.Previous()
			if s.Index() != start {
				t.Errorf("n=%d: previous(next(%d)) = %d", n, start, s.Index())
			}
			s.Previous()
			s.Next()
			if s.Index() != start {
				t.Errorf("n=%d: next(previous(%d)) = %d", n, start, s.Index())
			}
			s.Next()
		}
	}
}

func TestFlashcardSessionSingleCardNavigation(t *testing.T) {
	s := NewFlashcardSession(testCards("solo"))
	s.Flip()
	s.Next()
	if s.Index() != 0 || !s.IsFlipped() {
		t.Errorf("Next() on a single card should be a no-op, got index %d flipped %v", s.Index(), s.IsFlipped())
	}
}

func TestFlashcardSessionRateScenario(t *testing.T) {
	s := NewFlashcardSession(testCards("w1", "w2", "w3"))

	steps := []struct {
		outcome   models.Outcome
		wantIndex int
		complete  bool
	}{
		{models.OutcomeKnown, 1, false},
		{models.OutcomeUnknown, 2, false},
		{models.OutcomeKnown, 2, true},
	}

	for i, step := range steps {
		if err := s.Rate(step.outcome); err != nil {
			t.Fatalf("step %d: Rate() error = %v", i, err)
		}
		if s.Index() != step.wantIndex {
			t.Errorf("step %d: index = %d, want %d", i, s.Index(), step.wantIndex)
		}
		if s.IsComplete() != step.complete {
			t.Errorf("step %d: IsComplete() = %v, want %v", i, s.IsComplete(), step.complete)
		}
	}

	want := map[int]models.Outcome{0: models.OutcomeKnown, 1: models.OutcomeUnknown, 2: models.OutcomeKnown}
	got := s.Results()
	if len(got) != len(want) {
		t.Fatalf("Results() = %v, want %v", got, want)
	}
	for i, o := range want {
		if got[i] != o {
			t.Errorf("Results()[%d] = %v, want %v", i, got[i], o)
		}
	}
	if s.KnownCount() != 2 || s.UnknownCount() != 1 {
		t.Errorf("counts known=%d unknown=%d, want 2 and 1", s.KnownCount(), s.UnknownCount())
	}
}

func TestFlashcardSessionRerateDoesNotMoveCursor(t *testing.T) {
	s := NewFlashcardSession(testCards("A", "B", "C", "D"))

	_ = s.Rate(models.OutcomeKnown)
	if s.Index() != 1 {
		t.Fatalf("after rating 0, index = %d, want 1", s.Index())
	}
	_ = s.Rate(models.OutcomeKnown)
	if s.Index() != 2 {
		t.Fatalf("after rating 1, index = %d, want 2", s.Index())
	}

	s.Previous()
	s.Previous()
	if s.Index() != 0 {
		t.Fatalf("navigation back to 0 failed, index = %d", s.Index())
	}

	s.Flip()
	if err := s.Rate(models.OutcomeUnknown); err != nil {
		t.Fatalf("Rate() error = %v", err)
	}
	if s.Index() != 0 {
		t.Errorf("re-rating moved the cursor to %d", s.Index())
	}
	if s.IsFlipped() {
		t.Error("re-rating should reset the flip state")
	}
	if s.Reviewed() != 2 {
		t.Errorf("Reviewed() = %d, re-rating should not change the count", s.Reviewed())
	}
	if o, _ := s.CurrentOutcome(); o != models.OutcomeUnknown {
		t.Errorf("CurrentOutcome() = %v, want unknown", o)
	}
}

func TestFlashcardSessionRateSkipsRatedCards(t *testing.T) {
	s := NewFlashcardSession(testCards("A", "B", "C", "D", "E"))

	// Rate 2 and 3 out of order, then return to 1.
	s.Next()
	s.Next()
	_ = s.Rate(models.OutcomeKnown) // 2 -> 3
	_ = s.Rate(models.OutcomeKnown) // 3 -> 4
	if s.Index() != 4 {
		t.Fatalf("index = %d, want 4", s.Index())
	}
	s.Previous()
	s.Previous()
	s.Previous() // 1

	_ = s.Rate(models.OutcomeUnknown)
	if s.Index() != 4 {
		t.Errorf("rating 1 should skip rated 2 and 3 and land on 4, got %d", s.Index())
	}
	_ = s.Rate(models.OutcomeKnown)
	if s.Index() != 0 {
		t.Errorf("rating 4 should wrap to unrated 0, got %d", s.Index())
	}
	_ = s.Rate(models.OutcomeKnown)
	if !s.IsComplete() {
		t.Error("all cards rated, session should be complete")
	}
	if s.Index() != 0 {
		t.Errorf("completing rating should leave the cursor, got %d", s.Index())
	}
}

func TestFlashcardSessionNeverLandsOnRatedCard(t *testing.T) {
	s := NewFlashcardSession(testCards("a", "b", "c", "d", "e", "f"))
	moves := []string{"next", "rate", "prev", "prev", "rate", "next", "next", "next", "rate", "rate", "prev", "rate", "rate", "rate"}

	for i, m := range moves {
		switch m {
		case "next":
			s.Next()
		case "prev":
			s.Previous()
		case "rate":
			before := s.Reviewed()
			_ = s.Rate(models.OutcomeKnown)
			if s.Reviewed() > before && !s.IsComplete() {
				if _, rated := s.Results()[s.Index()]; rated {
					t.Fatalf("move %d: cursor landed on rated card %d", i, s.Index())
				}
			}
		}
	}
}

func TestFlashcardSessionCompleteIsSticky(t *testing.T) {
	s := NewFlashcardSession(testCards("a", "b"))
	_ = s.Rate(models.OutcomeKnown)
	_ = s.Rate(models.OutcomeKnown)
	if !s.IsComplete() {
		t.Fatal("session should be complete")
	}

	s.Next()
	s.Flip()
	_ = s.Rate(models.OutcomeUnknown)
	s.Previous()
	if !s.IsComplete() {
		t.Error("IsComplete() should stay true until Reset or Start")
	}
	if s.Reviewed() != 2 {
		t.Errorf("Reviewed() = %d, want 2", s.Reviewed())
	}
}

func TestFlashcardSessionReset(t *testing.T) {
	cards := testCards("a", "b", "c")
	s := NewFlashcardSession(cards)
	for i := 0; i < len(cards); i++ {
		_ = s.Rate(models.OutcomeUnknown)
	}
	s.Flip()

	s.Reset()

	if s.IsComplete() || s.Reviewed() != 0 || s.Index() != 0 || s.IsFlipped() {
		t.Errorf("Reset() left state behind: %+v", s.Snapshot())
	}
	if s.Total() != 3 {
		t.Errorf("Reset() should keep the cards, Total() = %d", s.Total())
	}
}

func TestFlashcardSessionInvalidOutcome(t *testing.T) {
	s := NewFlashcardSession(testCards("a", "b"))
	s.Flip()

	err := s.Rate(models.Outcome("maybe"))
	if !errors.Is(err, models.ErrInvalidOutcome) {
		t.Fatalf("Rate() error = %v, want ErrInvalidOutcome", err)
	}
	if s.Reviewed() != 0 || s.Index() != 0 || !s.IsFlipped() {
		t.Errorf("invalid outcome mutated state: %+v", s.Snapshot())
	}
}

func TestFlashcardSessionSnapshotAndSummary(t *testing.T) {
	s := NewFlashcardSession(testCards("kot", "pies"))
	_ = s.Rate(models.OutcomeUnknown)

	snap := s.Snapshot()
	if snap.Total != 2 || snap.Reviewed != 1 || snap.Unknown != 1 || snap.CurrentIndex != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Current == nil || snap.Current.Word != "pies" {
		t.Errorf("snapshot current = %+v, want pies", snap.Current)
	}
	if snap.CurrentOutcome != "" {
		t.Errorf("unrated card should have no outcome, got %q", snap.CurrentOutcome)
	}

	_ = s.Rate(models.OutcomeKnown)
	summary := s.Summary(models.LanguagePair{NativeLanguage: "pl", TargetLanguage: "en"})
	if summary.Total != 2 || summary.Known != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(summary.UnknownCards) != 1 || summary.UnknownCards[0].Word != "kot" {
		t.Errorf("UnknownCards = %+v, want [kot]", summary.UnknownCards)
	}
}
