package domain

import (
	"time"

	"github.com/google/uuid"
)

// Card is the display form of a flashcard. Reference points at the note
// holding the card's cloze-delimited text; the scheduling fields are owned
// by the FSRS engine and mutated only when a review is recorded.
type Card struct {
	ID            string
	Reference     string
	CreatedAt     time.Time
	Due           time.Time
	LastReview    *time.Time
	Stability     float64
	Difficulty    float64
	ElapsedDays   int64
	ScheduledDays int64
	Reps          int64
	Lapses        int64
	State         State
	Dismissed     bool
}

// CardRow is a card as stored: timestamps as epoch milliseconds, state and
// dismissed as integers.
type CardRow struct {
	ID            string
	Reference     string
	CreatedAt     int64
	Due           int64
	LastReview    *int64
	Stability     float64
	Difficulty    float64
	ElapsedDays   int64
	ScheduledDays int64
	Reps          int64
	Lapses        int64
	State         int64
	Dismissed     int64
}

// NewCard creates a card in the empty FSRS state, due immediately.
func NewCard(reference string, createdAt time.Time) Card {
	createdAt = createdAt.UTC()
	return Card{
		ID:        uuid.NewString(),
		Reference: reference,
		CreatedAt: createdAt,
		Due:       createdAt,
		State:     StateNew,
	}
}

// CardRowToDisplay maps a stored row to its display form. Rows with an
// unknown state value are rejected.
func CardRowToDisplay(r CardRow) (Card, error) {
	state, err := ParseState(r.State)
	if err != nil {
		return Card{}, err
	}
	c := Card{
		ID:            r.ID,
		Reference:     r.Reference,
		CreatedAt:     msToTime(r.CreatedAt),
		Due:           msToTime(r.Due),
		Stability:     r.Stability,
		Difficulty:    r.Difficulty,
		ElapsedDays:   r.ElapsedDays,
		ScheduledDays: r.ScheduledDays,
		Reps:          r.Reps,
		Lapses:        r.Lapses,
		State:         state,
		Dismissed:     r.Dismissed != 0,
	}
	if r.LastReview != nil {
		t := msToTime(*r.LastReview)
		c.LastReview = &t
	}
	return c, nil
}

// CardToRow maps a card back to its stored form. Inverse of
// CardRowToDisplay for all valid rows.
func CardToRow(c Card) CardRow {
	r := CardRow{
		ID:            c.ID,
		Reference:     c.Reference,
		CreatedAt:     c.CreatedAt.UnixMilli(),
		Due:           c.Due.UnixMilli(),
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   c.ElapsedDays,
		ScheduledDays: c.ScheduledDays,
		Reps:          c.Reps,
		Lapses:        c.Lapses,
		State:         int64(c.State),
		Dismissed:     boolToInt(c.Dismissed),
	}
	if c.LastReview != nil {
		ms := c.LastReview.UnixMilli()
		r.LastReview = &ms
	}
	return r
}

// CardReview is one row of the append-only review log: immutable once
// written, never updated or deleted.
type CardReview struct {
	ID              string
	CardID          string
	Due             time.Time
	Review          time.Time
	Stability       float64
	Difficulty      float64
	ElapsedDays     int64
	LastElapsedDays int64
	ScheduledDays   int64
	Rating          Grade
	State           State
}

// CardReviewRow is a review-log entry as stored.
type CardReviewRow struct {
	ID              string
	CardID          string
	Due             int64
	Review          int64
	Stability       float64
	Difficulty      float64
	ElapsedDays     int64
	LastElapsedDays int64
	ScheduledDays   int64
	Rating          int64
	State           int64
}

// NewCardReview assigns a fresh id to a review-log entry.
func NewCardReview(cardID string, entry CardReview) CardReview {
	entry.ID = uuid.NewString()
	entry.CardID = cardID
	return entry
}

// CardReviewRowToDisplay maps a stored log row to its display form.
func CardReviewRowToDisplay(r CardReviewRow) (CardReview, error) {
	state, err := ParseState(r.State)
	if err != nil {
		return CardReview{}, err
	}
	rating, err := ParseGrade(r.Rating)
	if err != nil {
		return CardReview{}, err
	}
	return CardReview{
		ID:              r.ID,
		CardID:          r.CardID,
		Due:             msToTime(r.Due),
		Review:          msToTime(r.Review),
		Stability:       r.Stability,
		Difficulty:      r.Difficulty,
		ElapsedDays:     r.ElapsedDays,
		LastElapsedDays: r.LastElapsedDays,
		ScheduledDays:   r.ScheduledDays,
		Rating:          rating,
		State:           state,
	}, nil
}

// CardReviewToRow maps a review-log entry back to its stored form.
func CardReviewToRow(r CardReview) CardReviewRow {
	return CardReviewRow{
		ID:              r.ID,
		CardID:          r.CardID,
		Due:             r.Due.UnixMilli(),
		Review:          r.Review.UnixMilli(),
		Stability:       r.Stability,
		Difficulty:      r.Difficulty,
		ElapsedDays:     r.ElapsedDays,
		LastElapsedDays: r.LastElapsedDays,
		ScheduledDays:   r.ScheduledDays,
		Rating:          int64(r.Rating),
		State:           int64(r.State),
	}
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
