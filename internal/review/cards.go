package review

import (
	"context"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
	"github.com/retainmd/retain/internal/storage"
)

// CreateCard registers a note as a flashcard. The note must contain at
// least one cloze deletion, and a note can back at most one card.
func (m *Manager) CreateCard(ctx context.Context, ref string) (domain.Card, error) {
	now := m.now()

	note, err := m.notes.Resolve(ctx, ref)
	if err != nil {
		return domain.Card{}, err
	}
	if note == nil {
		return domain.Card{}, domain.NotFoundf("note %q", ref)
	}
	content, err := m.notes.Read(ctx, note.Ref)
	if err != nil {
		return domain.Card{}, err
	}
	if len(notes.FindClozes(content)) == 0 {
		return domain.Card{}, domain.Validationf("note %q has no cloze deletions", note.Ref)
	}

	existing, err := query.Select(query.Card).Where("reference").Eq(note.Ref).Limit(1).Rows(ctx, m.repo)
	if err != nil {
		return domain.Card{}, err
	}
	if len(existing) > 0 {
		return domain.Card{}, domain.Validationf("note %q is already a card", note.Ref)
	}

	fm, err := m.notes.Frontmatter(ctx, note.Ref)
	if err != nil {
		return domain.Card{}, err
	}
	if !notes.HasTag(fm, CardTag) {
		if err := m.notes.SetFrontmatter(ctx, note.Ref, map[string]any{
			"tags": notes.WithTag(fm, CardTag),
		}); err != nil {
			return domain.Card{}, err
		}
	}

	card := domain.NewCard(note.Ref, now)
	row := domain.CardToRow(card)
	if _, err := query.Insert(query.Card).
		Columns("id", "due", "stability", "difficulty", "elapsed_days",
			"scheduled_days", "reps", "lapses", "state", "last_review",
			"reference", "created_at", "dismissed").
		Values(row.ID, row.Due, row.Stability, row.Difficulty, row.ElapsedDays,
			row.ScheduledDays, row.Reps, row.Lapses, row.State, row.LastReview,
			row.Reference, row.CreatedAt, row.Dismissed).
		Exec(ctx, m.repo); err != nil {
		return domain.Card{}, err
	}

	m.log.Info("card created", "id", card.ID, "reference", note.Ref)
	return card, nil
}

// PreviewCard returns the scheduling outcome for every grade without
// touching the store, so the UI can show interval estimates on the answer
// buttons.
func (m *Manager) PreviewCard(ctx context.Context, id string) (map[domain.Grade]domain.Card, error) {
	card, err := m.getCard(ctx, m.repo, id)
	if err != nil {
		return nil, err
	}
	outcomes := make(map[domain.Grade]domain.Card, 4)
	for grade, res := range m.sched.Repeat(card, m.now()) {
		outcomes[grade] = res.Card
	}
	return outcomes, nil
}

// ReviewCard grades a card. The pre-review state is appended to the
// history log and the card advances to the scheduler's outcome for the
// chosen grade; both happen in one transaction. Lapse deltas are applied
// against the stored row rather than written absolutely, so a concurrent
// review is not silently overwritten.
func (m *Manager) ReviewCard(ctx context.Context, id string, grade domain.Grade, reviewTime *time.Time) (domain.Card, error) {
	if _, err := domain.ParseGrade(int64(grade)); err != nil {
		return domain.Card{}, err
	}
	review := m.now()
	if reviewTime != nil {
		review = *reviewTime
	}

	var updated domain.Card
	err := m.repo.InTx(ctx, func(q storage.Querier) error {
		card, err := m.getCard(ctx, q, id)
		if err != nil {
			return err
		}
		if card.Dismissed {
			return domain.Validationf("card %s is dismissed", id)
		}

		outcome, ok := m.sched.Repeat(card, review)[grade]
		if !ok {
			return domain.Validationf("scheduler returned no outcome for grade %s", grade)
		}
		lapseDelta := outcome.Card.Lapses - card.Lapses
		repsDelta := outcome.Card.Reps - card.Reps

		next := domain.CardToRow(outcome.Card)
		res, err := query.Update(query.Card).
			Set("due", next.Due).
			Set("stability", next.Stability).
			Set("difficulty", next.Difficulty).
			Set("elapsed_days", next.ElapsedDays).
			Set("scheduled_days", next.ScheduledDays).
			Set("reps", card.Reps+repsDelta).
			Set("lapses", card.Lapses+lapseDelta).
			Set("state", next.State).
			Set("last_review", next.LastReview).
			Where("id").Eq(id).
			Exec(ctx, q)
		if err != nil {
			return err
		}
		if err := cardRowAffected(res, id); err != nil {
			return err
		}

		log := domain.NewCardReview(id, outcome.Log)
		logRow := domain.CardReviewToRow(log)
		if _, err := query.Insert(query.CardReview).
			Columns("id", "card_id", "due", "review", "stability", "difficulty",
				"elapsed_days", "last_elapsed_days", "scheduled_days",
				"rating", "state").
			Values(logRow.ID, logRow.CardID, logRow.Due, logRow.Review,
				logRow.Stability, logRow.Difficulty, logRow.ElapsedDays,
				logRow.LastElapsedDays, logRow.ScheduledDays, logRow.Rating, logRow.State).
			Exec(ctx, q); err != nil {
			return err
		}

		updated = outcome.Card
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}

	m.log.Info("card reviewed",
		"id", id, "grade", grade.String(),
		"state", updated.State.String(), "due", updated.Due.UTC())
	return updated, nil
}

// DismissCard removes a card from due fetching without deleting its row or
// history. Dismissing twice is a no-op.
func (m *Manager) DismissCard(ctx context.Context, id string) error {
	res, err := query.Update(query.Card).
		Set("dismissed", true).
		Where("id").Eq(id).
		Exec(ctx, m.repo)
	if err != nil {
		return err
	}
	return cardRowAffected(res, id)
}

// CardHistory returns a card's review log, oldest first.
func (m *Manager) CardHistory(ctx context.Context, id string) ([]domain.CardReview, error) {
	if _, err := m.getCard(ctx, m.repo, id); err != nil {
		return nil, err
	}
	rows, err := query.Select(query.CardReview).
		Where("card_id").Eq(id).
		Sort("review", query.Asc).
		Rows(ctx, m.repo)
	if err != nil {
		return nil, err
	}
	history := make([]domain.CardReview, 0, len(rows))
	for _, raw := range rows {
		row, err := storage.DecodeCardReviewRow(raw)
		if err != nil {
			return nil, err
		}
		entry, err := domain.CardReviewRowToDisplay(row)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, nil
}

func cardRowAffected(res interface{ RowsAffected() (int64, error) }, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Persistencef(err, "checking affected rows")
	}
	if affected == 0 {
		return domain.NotFoundf("card %s", id)
	}
	return nil
}
