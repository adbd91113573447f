// Package scheduler adapts the external FSRS engine to the review
// manager's call contract. The memory-model math lives entirely in the
// library; this package only translates card shapes in both directions and
// assembles the review-log entry the persistence layer records.
package scheduler

import (
	"time"

	fsrs "github.com/open-spaced-repetition/go-fsrs/v3"

	"github.com/retainmd/retain/internal/domain"
)

// Result pairs a post-review card state with the review-log entry that
// produced it.
type Result struct {
	Card domain.Card
	Log  domain.CardReview
}

// Scheduler wraps a configured FSRS instance.
type Scheduler struct {
	engine *fsrs.FSRS
}

// New builds a scheduler with fuzzing and short-term steps disabled, so
// scheduling stays deterministic for a given card state and grade.
func New() *Scheduler {
	params := fsrs.DefaultParam()
	params.EnableFuzz = false
	params.EnableShortTerm = false
	return &Scheduler{engine: fsrs.NewFSRS(params)}
}

var grades = []domain.Grade{
	domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy,
}

// Repeat returns, for every possible grade, the card state and log entry
// that reviewing card at now would produce. The caller picks the entry
// matching the grade the user chose.
func (s *Scheduler) Repeat(card domain.Card, now time.Time) map[domain.Grade]Result {
	record := s.engine.Repeat(toEngine(card), now)
	out := make(map[domain.Grade]Result, len(grades))
	for _, g := range grades {
		info := record[fsrs.Rating(g)]
		out[g] = Result{
			Card: fromEngine(card, info.Card),
			Log:  logEntry(card, g, info.ReviewLog),
		}
	}
	return out
}

func toEngine(c domain.Card) fsrs.Card {
	out := fsrs.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(c.ElapsedDays),
		ScheduledDays: uint64(c.ScheduledDays),
		Reps:          uint64(c.Reps),
		Lapses:        uint64(c.Lapses),
		State:         fsrs.State(c.State),
	}
	if c.LastReview != nil {
		out.LastReview = *c.LastReview
	}
	return out
}

// fromEngine merges the engine's updated scheduling fields back into the
// card; identity and dismissal are this engine's concern, not FSRS's.
func fromEngine(orig domain.Card, c fsrs.Card) domain.Card {
	lastReview := c.LastReview.UTC()
	return domain.Card{
		ID:            orig.ID,
		Reference:     orig.Reference,
		CreatedAt:     orig.CreatedAt,
		Due:           c.Due.UTC(),
		LastReview:    &lastReview,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   int64(c.ElapsedDays),
		ScheduledDays: int64(c.ScheduledDays),
		Reps:          int64(c.Reps),
		Lapses:        int64(c.Lapses),
		State:         domain.State(c.State),
		Dismissed:     orig.Dismissed,
	}
}

// logEntry records the pre-review card state alongside the rating, matching
// the FSRS library's own log semantics: the entry carries enough to replay
// or audit the transition.
func logEntry(prev domain.Card, grade domain.Grade, log fsrs.ReviewLog) domain.CardReview {
	return domain.CardReview{
		Due:             prev.Due,
		Review:          log.Review.UTC(),
		Stability:       prev.Stability,
		Difficulty:      prev.Difficulty,
		ElapsedDays:     int64(log.ElapsedDays),
		LastElapsedDays: prev.ElapsedDays,
		ScheduledDays:   int64(log.ScheduledDays),
		Rating:          grade,
		State:           domain.State(log.State),
	}
}
