package domain

import "time"

// Snippet is a saved text extract in the incremental-reading queue.
// Invariant: Due is nil iff Dismissed; an active snippet always has a
// concrete due time. Parent links a snippet to the snippet it was
// extracted from, for priority inheritance.
type Snippet struct {
	ID        int64
	Reference string
	Due       *time.Time
	Dismissed bool
	Priority  Priority
	Parent    *int64
}

// SnippetRow is a snippet as stored.
type SnippetRow struct {
	ID        int64
	Reference string
	Due       *int64
	Dismissed int64
	Priority  int64
	Parent    *int64
}

// Article is an imported note in the incremental-reading queue. Same shape
// and due/dismissed invariant as Snippet, without parent linkage.
type Article struct {
	ID        int64
	Reference string
	Due       *time.Time
	Dismissed bool
	Priority  Priority
}

// ArticleRow is an article as stored.
type ArticleRow struct {
	ID        int64
	Reference string
	Due       *int64
	Dismissed int64
	Priority  int64
}

// TextReview is one row of the snippet_review or article_review append-only
// log. Only the latest entry matters operationally: it anchors the previous
// interval from which the next one is derived.
type TextReview struct {
	ID         int64
	ItemID     int64
	ReviewTime time.Time
}

// TextReviewRow is a text review-log entry as stored.
type TextReviewRow struct {
	ID         int64
	ItemID     int64
	ReviewTime int64
}

// SnippetRowToDisplay maps a stored row to its display form, enforcing the
// due/dismissed invariant and the priority bounds.
func SnippetRowToDisplay(r SnippetRow) (Snippet, error) {
	pr, due, err := textRowParts(r.Reference, r.Due, r.Dismissed, r.Priority)
	if err != nil {
		return Snippet{}, err
	}
	return Snippet{
		ID:        r.ID,
		Reference: r.Reference,
		Due:       due,
		Dismissed: r.Dismissed != 0,
		Priority:  pr,
		Parent:    r.Parent,
	}, nil
}

// SnippetToRow maps a snippet back to its stored form.
func SnippetToRow(s Snippet) SnippetRow {
	return SnippetRow{
		ID:        s.ID,
		Reference: s.Reference,
		Due:       msPtr(s.Due),
		Dismissed: boolToInt(s.Dismissed),
		Priority:  int64(s.Priority),
		Parent:    s.Parent,
	}
}

// ArticleRowToDisplay maps a stored row to its display form, enforcing the
// due/dismissed invariant and the priority bounds.
func ArticleRowToDisplay(r ArticleRow) (Article, error) {
	pr, due, err := textRowParts(r.Reference, r.Due, r.Dismissed, r.Priority)
	if err != nil {
		return Article{}, err
	}
	return Article{
		ID:        r.ID,
		Reference: r.Reference,
		Due:       due,
		Dismissed: r.Dismissed != 0,
		Priority:  pr,
	}, nil
}

// ArticleToRow maps an article back to its stored form.
func ArticleToRow(a Article) ArticleRow {
	return ArticleRow{
		ID:        a.ID,
		Reference: a.Reference,
		Due:       msPtr(a.Due),
		Dismissed: boolToInt(a.Dismissed),
		Priority:  int64(a.Priority),
	}
}

// TextReviewRowToDisplay maps a stored text review-log row to its display form.
func TextReviewRowToDisplay(r TextReviewRow) TextReview {
	return TextReview{
		ID:         r.ID,
		ItemID:     r.ItemID,
		ReviewTime: msToTime(r.ReviewTime),
	}
}

// TextReviewToRow maps a text review-log entry back to its stored form.
func TextReviewToRow(r TextReview) TextReviewRow {
	return TextReviewRow{
		ID:         r.ID,
		ItemID:     r.ItemID,
		ReviewTime: r.ReviewTime.UnixMilli(),
	}
}

func textRowParts(reference string, dueMS *int64, dismissed, priority int64) (Priority, *time.Time, error) {
	pr, err := NewPriority(int(priority))
	if err != nil {
		return 0, nil, err
	}
	if (dueMS == nil) != (dismissed != 0) {
		return 0, nil, Validationf("item %q breaks the due/dismissed invariant", reference)
	}
	var due *time.Time
	if dueMS != nil {
		t := msToTime(*dueMS)
		due = &t
	}
	return pr, due, nil
}

func msPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
