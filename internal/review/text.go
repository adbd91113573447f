package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
	"github.com/retainmd/retain/internal/storage"
)

// Snippets and articles share their queue mechanics; textKind captures the
// per-table differences so each operation is written once.
type textKind struct {
	name        string
	kind        Kind
	table       query.Table
	reviewTable query.Table
	reviewIDCol string
	decode      func(storage.Row) (textItem, error)
}

type textItem struct {
	id        int64
	reference string
	due       *time.Time
	priority  domain.Priority
	dismissed bool
	snippet   *domain.Snippet
	article   *domain.Article
}

var snippetKind = textKind{
	name:        "snippet",
	kind:        KindSnippet,
	table:       query.Snippet,
	reviewTable: query.SnippetReview,
	reviewIDCol: "snippet_id",
	decode: func(raw storage.Row) (textItem, error) {
		row, err := storage.DecodeSnippetRow(raw)
		if err != nil {
			return textItem{}, err
		}
		s, err := domain.SnippetRowToDisplay(row)
		if err != nil {
			return textItem{}, err
		}
		return textItem{
			id: s.ID, reference: s.Reference, due: s.Due,
			priority: s.Priority, dismissed: s.Dismissed, snippet: &s,
		}, nil
	},
}

var articleKind = textKind{
	name:        "article",
	kind:        KindArticle,
	table:       query.Article,
	reviewTable: query.ArticleReview,
	reviewIDCol: "article_id",
	decode: func(raw storage.Row) (textItem, error) {
		row, err := storage.DecodeArticleRow(raw)
		if err != nil {
			return textItem{}, err
		}
		a, err := domain.ArticleRowToDisplay(row)
		if err != nil {
			return textItem{}, err
		}
		return textItem{
			id: a.ID, reference: a.Reference, due: a.Due,
			priority: a.Priority, dismissed: a.Dismissed, article: &a,
		}, nil
	},
}

// CreateSnippet saves selected text from a source note as a new managed
// note and puts it in the learning queue. A snippet extracted from a
// managed snippet records it as parent and inherits its priority; one
// extracted from a managed article inherits its priority.
func (m *Manager) CreateSnippet(ctx context.Context, sourceRef, selection string) (domain.Snippet, error) {
	now := m.now()
	if strings.TrimSpace(selection) == "" {
		return domain.Snippet{}, domain.Validationf("no text was selected")
	}
	source, err := m.notes.Resolve(ctx, sourceRef)
	if err != nil {
		return domain.Snippet{}, err
	}
	if source == nil {
		return domain.Snippet{}, domain.NotFoundf("source note %q", sourceRef)
	}

	priority := m.opts.DefaultPriority
	var parent *int64
	if parentSnippet, err := m.FindSnippet(ctx, sourceRef); err == nil {
		priority = parentSnippet.Priority
		parent = &parentSnippet.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Snippet{}, err
	} else if parentArticle, err := m.findArticle(ctx, sourceRef); err == nil {
		priority = parentArticle.Priority
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Snippet{}, err
	}

	ref, err := m.freeManagedRef(ctx, "snippets", notes.Title(selection, now), selection, now)
	if err != nil {
		return domain.Snippet{}, err
	}
	if err := m.notes.Create(ctx, ref, selection); err != nil {
		return domain.Snippet{}, err
	}
	fm := map[string]any{SourceProperty: noteLink(source)}
	fm["tags"] = []string{SnippetTag}
	if err := m.notes.SetFrontmatter(ctx, ref, fm); err != nil {
		return domain.Snippet{}, err
	}

	due := now.Add(time.Duration(fallbackIntervalMS) * time.Millisecond)
	res, err := query.Insert(query.Snippet).
		Columns("reference", "due", "dismissed", "priority", "parent").
		Values(ref, due, false, priority, parent).
		Exec(ctx, m.repo)
	if err != nil {
		return domain.Snippet{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Snippet{}, domain.Persistencef(err, "reading new snippet id")
	}

	m.log.Info("snippet created",
		"id", id, "reference", ref,
		"slice", notes.ContentSlice(selection, 30, true))
	dueAt := due.UTC()
	return domain.Snippet{
		ID: id, Reference: ref, Due: &dueAt, Priority: priority, Parent: parent,
	}, nil
}

// FindSnippet looks a snippet up by the note it is stored in.
func (m *Manager) FindSnippet(ctx context.Context, ref string) (domain.Snippet, error) {
	item, err := m.findText(ctx, snippetKind, "reference", ref)
	if err != nil {
		return domain.Snippet{}, err
	}
	return *item.snippet, nil
}

func (m *Manager) findArticle(ctx context.Context, ref string) (domain.Article, error) {
	item, err := m.findText(ctx, articleKind, "reference", ref)
	if err != nil {
		return domain.Article{}, err
	}
	return *item.article, nil
}

func (m *Manager) findText(ctx context.Context, k textKind, column string, value any) (textItem, error) {
	rows, err := query.Select(k.table).Where(column).Eq(value).Limit(1).Rows(ctx, m.repo)
	if err != nil {
		return textItem{}, err
	}
	if len(rows) == 0 {
		return textItem{}, domain.NotFoundf("%s with %s %v", k.name, column, value)
	}
	return k.decode(rows[0])
}

// ReviewSnippet records a review and advances the snippet's due time,
// either by an explicit interval override or by the priority-driven growth
// formula.
func (m *Manager) ReviewSnippet(ctx context.Context, id int64, reviewTime *time.Time, nextInterval *time.Duration) (domain.Snippet, error) {
	item, err := m.reviewText(ctx, snippetKind, id, reviewTime, nextInterval)
	if err != nil {
		return domain.Snippet{}, err
	}
	return *item.snippet, nil
}

// ReviewArticle records a review and advances the article's due time.
func (m *Manager) ReviewArticle(ctx context.Context, id int64, reviewTime *time.Time, nextInterval *time.Duration) (domain.Article, error) {
	item, err := m.reviewText(ctx, articleKind, id, reviewTime, nextInterval)
	if err != nil {
		return domain.Article{}, err
	}
	return *item.article, nil
}

func (m *Manager) reviewText(ctx context.Context, k textKind, id int64, reviewTime *time.Time, nextInterval *time.Duration) (textItem, error) {
	review := m.now()
	if reviewTime != nil {
		review = *reviewTime
	}

	item, err := m.findText(ctx, k, "id", id)
	if err != nil {
		return textItem{}, err
	}
	if item.dismissed {
		return textItem{}, domain.Validationf("%s %d is dismissed", k.name, id)
	}

	var intervalMS int64
	if nextInterval != nil {
		intervalMS = nextInterval.Milliseconds()
		if intervalMS <= 0 {
			return textItem{}, domain.Validationf("next interval must be positive, got %s", *nextInterval)
		}
	} else {
		last, err := m.lastIntervalMS(ctx, k, item)
		if err != nil {
			return textItem{}, err
		}
		intervalMS = NextTextReviewInterval(item.priority, last)
	}

	due := review.Add(time.Duration(intervalMS) * time.Millisecond)
	err = m.repo.InTx(ctx, func(q storage.Querier) error {
		if _, err := query.Insert(k.reviewTable).
			Columns(k.reviewIDCol, "review_time").
			Values(id, review).
			Exec(ctx, q); err != nil {
			return err
		}
		res, err := query.Update(k.table).Set("due", due).Where("id").Eq(id).Exec(ctx, q)
		if err != nil {
			return err
		}
		return oneRowAffected(res, k.name, id)
	})
	if err != nil {
		return textItem{}, err
	}

	m.log.Info("review recorded",
		"kind", k.name, "id", id,
		"interval_days", float64(intervalMS)/float64(msPerDay),
		"due", due.UTC())
	return m.findText(ctx, k, "id", id)
}

// ReprioritizeSnippet changes the snippet's priority and reschedules it
// immediately, as if it had just been reviewed under the new priority.
func (m *Manager) ReprioritizeSnippet(ctx context.Context, id int64, newPriority int) (domain.Snippet, error) {
	item, err := m.reprioritizeText(ctx, snippetKind, id, newPriority)
	if err != nil {
		return domain.Snippet{}, err
	}
	return *item.snippet, nil
}

// ReprioritizeArticle changes the article's priority and reschedules it
// immediately.
func (m *Manager) ReprioritizeArticle(ctx context.Context, id int64, newPriority int) (domain.Article, error) {
	item, err := m.reprioritizeText(ctx, articleKind, id, newPriority)
	if err != nil {
		return domain.Article{}, err
	}
	return *item.article, nil
}

func (m *Manager) reprioritizeText(ctx context.Context, k textKind, id int64, newPriority int) (textItem, error) {
	priority, err := domain.NewPriority(newPriority)
	if err != nil {
		return textItem{}, err
	}
	item, err := m.findText(ctx, k, "id", id)
	if err != nil {
		return textItem{}, err
	}
	if item.dismissed {
		return textItem{}, domain.Validationf("%s %d is dismissed", k.name, id)
	}

	last, err := m.lastIntervalMS(ctx, k, item)
	if err != nil {
		return textItem{}, err
	}
	due := m.now().Add(time.Duration(NextTextReviewInterval(priority, last)) * time.Millisecond)

	res, err := query.Update(k.table).
		Set("priority", priority).
		Set("due", due).
		Where("id").Eq(id).
		Exec(ctx, m.repo)
	if err != nil {
		return textItem{}, err
	}
	if err := oneRowAffected(res, k.name, id); err != nil {
		return textItem{}, err
	}
	return m.findText(ctx, k, "id", id)
}

// DismissSnippet soft-deletes a snippet: it drops out of due fetching but
// the row remains. Dismissing twice is a no-op.
func (m *Manager) DismissSnippet(ctx context.Context, id int64) error {
	return m.dismissText(ctx, snippetKind, id)
}

// DismissArticle soft-deletes an article.
func (m *Manager) DismissArticle(ctx context.Context, id int64) error {
	return m.dismissText(ctx, articleKind, id)
}

func (m *Manager) dismissText(ctx context.Context, k textKind, id int64) error {
	res, err := query.Update(k.table).
		Set("dismissed", true).
		Set("due", nil).
		Where("id").Eq(id).
		Exec(ctx, m.repo)
	if err != nil {
		return err
	}
	return oneRowAffected(res, k.name, id)
}

// lastIntervalMS reconstructs the item's previous interval: the gap between
// its current due time and its most recent logged review, or the fallback
// interval for an item never reviewed.
func (m *Manager) lastIntervalMS(ctx context.Context, k textKind, item textItem) (int64, error) {
	rows, err := query.Select(k.reviewTable).
		Columns("review_time").
		Where(k.reviewIDCol).Eq(item.id).
		Sort("review_time", query.Desc).
		Limit(1).
		Rows(ctx, m.repo)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || item.due == nil {
		return fallbackIntervalMS, nil
	}
	lastReview, ok := rows[0]["review_time"].(int64)
	if !ok {
		return 0, domain.Corruptf("column %s.review_time holds %T, want INTEGER", k.reviewTable.Name(), rows[0]["review_time"])
	}
	interval := item.due.UnixMilli() - lastReview
	if interval <= 0 {
		return fallbackIntervalMS, nil
	}
	return interval, nil
}

// freeManagedRef finds an unused reference under the managed directory,
// appending a content-hash suffix and then a generated title when the
// plain name is taken.
func (m *Manager) freeManagedRef(ctx context.Context, subdir, base, content string, now time.Time) (string, error) {
	candidates := []string{
		base,
		base + " - " + notes.ShortHash(content),
		notes.Title(base, now),
	}
	for _, name := range candidates {
		ref := m.managedRef(subdir, name+".md")
		existing, err := m.notes.Resolve(ctx, ref)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return ref, nil
		}
	}
	return "", domain.DuplicateImportf("could not find a free name for %q", base)
}

func noteLink(n *notes.Note) string {
	return "[[" + n.Name + "]]"
}

func oneRowAffected(res interface{ RowsAffected() (int64, error) }, name string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Persistencef(err, "checking affected rows")
	}
	if affected == 0 {
		return domain.NotFoundf("%s %d", name, id)
	}
	return nil
}
