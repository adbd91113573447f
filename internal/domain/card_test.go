package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestCardRowRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	lastReview := time.Date(2024, 5, 20, 22, 15, 0, 0, time.UTC)

	cases := []struct {
		name string
		card Card
	}{
		{
			name: "fresh card",
			card: Card{
				ID:        "c-1",
				Reference: "notes/go.md",
				CreatedAt: created,
				Due:       created,
				State:     StateNew,
			},
		},
		{
			name: "learning card with a last review",
			card: Card{
				ID:            "c-2",
				Reference:     "notes/go.md",
				CreatedAt:     created,
				Due:           due,
				LastReview:    &lastReview,
				Stability:     3.2,
				Difficulty:    5.1,
				ElapsedDays:   2,
				ScheduledDays: 4,
				Reps:          3,
				Lapses:        1,
				State:         StateLearning,
			},
		},
		{
			name: "reviewing card",
			card: Card{
				ID:            "c-3",
				Reference:     "notes/sql.md",
				CreatedAt:     created,
				Due:           due,
				LastReview:    &lastReview,
				Stability:     15.7,
				Difficulty:    4.9,
				ElapsedDays:   12,
				ScheduledDays: 16,
				Reps:          9,
				State:         StateReview,
			},
		},
		{
			name: "relearning card",
			card: Card{
				ID:         "c-4",
				Reference:  "notes/sql.md",
				CreatedAt:  created,
				Due:        due,
				LastReview: &lastReview,
				Reps:       5,
				Lapses:     2,
				State:      StateRelearning,
			},
		},
		{
			name: "dismissed card",
			card: Card{
				ID:        "c-5",
				Reference: "notes/old.md",
				CreatedAt: created,
				Due:       due,
				State:     StateReview,
				Dismissed: true,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			back, err := CardRowToDisplay(CardToRow(tc.card))
			if err != nil {
				t.Fatalf("round trip failed: %v", err)
			}
			if !reflect.DeepEqual(back, tc.card) {
				t.Errorf("round trip changed card:\ngot  %+v\nwant %+v", back, tc.card)
			}
		})
	}
}

func TestCardRowRejectsUnknownState(t *testing.T) {
	_, err := CardRowToDisplay(CardRow{ID: "c-1", Reference: "a.md", State: 9})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestCardReviewRowRoundTrip(t *testing.T) {
	due := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	review := time.Date(2024, 6, 2, 9, 45, 0, 0, time.UTC)

	for _, grade := range []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy} {
		t.Run(grade.String(), func(t *testing.T) {
			entry := CardReview{
				ID:              "r-1",
				CardID:          "c-1",
				Due:             due,
				Review:          review,
				Stability:       2.4,
				Difficulty:      6.3,
				ElapsedDays:     1,
				LastElapsedDays: 3,
				ScheduledDays:   2,
				Rating:          grade,
				State:           StateLearning,
			}
			back, err := CardReviewRowToDisplay(CardReviewToRow(entry))
			if err != nil {
				t.Fatalf("round trip failed: %v", err)
			}
			if !reflect.DeepEqual(back, entry) {
				t.Errorf("round trip changed entry:\ngot  %+v\nwant %+v", back, entry)
			}
		})
	}
}

func TestCardReviewRowRejectsBadValues(t *testing.T) {
	t.Run("unknown rating", func(t *testing.T) {
		_, err := CardReviewRowToDisplay(CardReviewRow{ID: "r-1", CardID: "c-1", Rating: 7, State: int64(StateNew)})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := CardReviewRowToDisplay(CardReviewRow{ID: "r-1", CardID: "c-1", Rating: int64(GradeGood), State: 9})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})
}
