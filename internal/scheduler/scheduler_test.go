package scheduler

import (
	"testing"
	"time"

	"github.com/retainmd/retain/internal/domain"
)

func newCard(now time.Time) domain.Card {
	return domain.Card{
		ID:        "c1",
		Reference: "note.md",
		CreatedAt: now,
		Due:       now,
		State:     domain.StateNew,
	}
}

func TestRepeatCoversEveryGrade(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	outcomes := New().Repeat(newCard(now), now)

	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 outcomes, got %d", len(outcomes))
	}
	for _, g := range []domain.Grade{domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy} {
		if _, ok := outcomes[g]; !ok {
			t.Errorf("missing outcome for grade %s", g)
		}
	}
}

func TestRepeatPreservesIdentity(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	card := newCard(now)
	card.Dismissed = true

	for g, res := range New().Repeat(card, now) {
		if res.Card.ID != card.ID || res.Card.Reference != card.Reference {
			t.Errorf("grade %s: identity changed: %+v", g, res.Card)
		}
		if !res.Card.CreatedAt.Equal(card.CreatedAt) {
			t.Errorf("grade %s: creation time changed", g)
		}
		if !res.Card.Dismissed {
			t.Errorf("grade %s: dismissal flag lost", g)
		}
	}
}

func TestRepeatAdvancesScheduling(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	outcomes := New().Repeat(newCard(now), now)

	for g, res := range outcomes {
		if res.Card.Reps != 1 {
			t.Errorf("grade %s: expected 1 rep, got %d", g, res.Card.Reps)
		}
		if res.Card.LastReview == nil || !res.Card.LastReview.Equal(now) {
			t.Errorf("grade %s: last review not set to review time", g)
		}
		if !res.Card.Due.After(now) {
			t.Errorf("grade %s: due %v not after review time", g, res.Card.Due)
		}
	}

	easy := outcomes[domain.GradeEasy].Card
	again := outcomes[domain.GradeAgain].Card
	if !easy.Due.After(again.Due) {
		t.Errorf("Easy due %v should be after Again due %v", easy.Due, again.Due)
	}
}

func TestRepeatIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	card := newCard(now)

	a := New().Repeat(card, now)
	b := New().Repeat(card, now)
	for _, g := range []domain.Grade{domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy} {
		if !a[g].Card.Due.Equal(b[g].Card.Due) {
			t.Errorf("grade %s: due differs across runs: %v vs %v", g, a[g].Card.Due, b[g].Card.Due)
		}
	}
}

func TestRepeatLogRecordsPreReviewState(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	card := newCard(now)
	card.Stability = 7.5
	card.Difficulty = 4.2
	card.Due = now.Add(-24 * time.Hour)
	card.State = domain.StateReview

	for g, res := range New().Repeat(card, now) {
		if !res.Log.Due.Equal(card.Due) {
			t.Errorf("grade %s: log due %v, want pre-review %v", g, res.Log.Due, card.Due)
		}
		if res.Log.Stability != card.Stability || res.Log.Difficulty != card.Difficulty {
			t.Errorf("grade %s: log does not carry pre-review memory state", g)
		}
		if res.Log.Rating != g {
			t.Errorf("grade %s: log rating %s", g, res.Log.Rating)
		}
		if !res.Log.Review.Equal(now) {
			t.Errorf("grade %s: log review time %v", g, res.Log.Review)
		}
	}
}
