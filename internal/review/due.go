package review

import (
	"context"
	"sort"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
	"github.com/retainmd/retain/internal/storage"
)

// Kind tags the three reviewable item kinds.
type Kind string

const (
	KindCard    Kind = "card"
	KindSnippet Kind = "snippet"
	KindArticle Kind = "article"
)

// QueueItem is one due item paired with its resolved note. Exactly one of
// Card, Snippet, Article is set, matching Kind.
type QueueItem struct {
	Kind    Kind
	Due     time.Time
	Note    *notes.Note
	Card    *domain.Card
	Snippet *domain.Snippet
	Article *domain.Article
}

// DueResult is the ordered review queue plus its per-kind views.
type DueResult struct {
	Queue    []QueueItem
	Cards    []QueueItem
	Snippets []QueueItem
	Articles []QueueItem

	// Orphans counts items skipped because their backing note no longer
	// resolves. The rows stay in the database; they are surfaced here and
	// in the logs rather than silently purged.
	Orphans int
}

// GetDue fetches up to limit non-dismissed items of every kind with
// due <= dueBy, ordered ascending by due. A nil dueBy means the
// rollover-adjusted end of the current day; limit <= 0 falls back to the
// configured queue limit. A bad row or unreadable note never blocks the
// fetch: the item is logged and omitted.
func (m *Manager) GetDue(ctx context.Context, dueBy *time.Time, limit int) (*DueResult, error) {
	if limit <= 0 {
		limit = m.opts.QueueLimit
	}
	boundary := m.EndOfDay(m.now())
	if dueBy != nil {
		boundary = *dueBy
	}

	out := &DueResult{}
	cards, err := m.dueCards(ctx, boundary, limit, out)
	if err != nil {
		return nil, err
	}
	snippets, err := m.dueText(ctx, snippetKind, boundary, limit, out)
	if err != nil {
		return nil, err
	}
	articles, err := m.dueText(ctx, articleKind, boundary, limit, out)
	if err != nil {
		return nil, err
	}

	merged := make([]QueueItem, 0, len(cards)+len(snippets)+len(articles))
	merged = append(merged, cards...)
	merged = append(merged, snippets...)
	merged = append(merged, articles...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Due.Before(merged[j].Due)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out.Queue = merged
	for _, item := range merged {
		switch item.Kind {
		case KindCard:
			out.Cards = append(out.Cards, item)
		case KindSnippet:
			out.Snippets = append(out.Snippets, item)
		case KindArticle:
			out.Articles = append(out.Articles, item)
		}
	}
	return out, nil
}

func (m *Manager) dueCards(ctx context.Context, dueBy time.Time, limit int, result *DueResult) ([]QueueItem, error) {
	rows, err := query.Select(query.Card).
		Where("dismissed").Eq(false).
		And("due").Lte(dueBy).
		Sort("due", query.Asc).
		Limit(limit).
		Rows(ctx, m.repo)
	if err != nil {
		return nil, err
	}

	var items []QueueItem
	for _, raw := range rows {
		row, err := storage.DecodeCardRow(raw)
		if err != nil {
			m.log.Warn("skipping undecodable card row", "error", err)
			continue
		}
		card, err := domain.CardRowToDisplay(row)
		if err != nil {
			m.log.Warn("skipping invalid card row", "id", row.ID, "error", err)
			continue
		}
		note, ok := m.resolveQueueNote(ctx, card.Reference, string(KindCard), result)
		if !ok {
			continue
		}
		items = append(items, QueueItem{Kind: KindCard, Due: card.Due, Note: note, Card: &card})
	}
	return items, nil
}

func (m *Manager) dueText(ctx context.Context, k textKind, dueBy time.Time, limit int, result *DueResult) ([]QueueItem, error) {
	rows, err := query.Select(k.table).
		Where("dismissed").Eq(false).
		And("due").Lte(dueBy).
		Sort("due", query.Asc).
		Limit(limit).
		Rows(ctx, m.repo)
	if err != nil {
		return nil, err
	}

	var items []QueueItem
	for _, raw := range rows {
		item, err := k.decode(raw)
		if err != nil {
			m.log.Warn("skipping invalid row", "kind", k.name, "error", err)
			continue
		}
		if item.due == nil {
			// Guarded by the due/dismissed invariant; an active row
			// without a due time is malformed.
			m.log.Warn("skipping active item with no due time", "kind", k.name, "id", item.id)
			continue
		}
		note, ok := m.resolveQueueNote(ctx, item.reference, k.name, result)
		if !ok {
			continue
		}
		qi := QueueItem{Kind: k.kind, Due: *item.due, Note: note}
		if k.kind == KindSnippet {
			qi.Snippet = item.snippet
		} else {
			qi.Article = item.article
		}
		items = append(items, qi)
	}
	return items, nil
}

// resolveQueueNote resolves an item's backing note for queue assembly,
// counting and logging orphans.
func (m *Manager) resolveQueueNote(ctx context.Context, ref, kind string, result *DueResult) (*notes.Note, bool) {
	note, err := m.notes.Resolve(ctx, ref)
	if err != nil {
		m.log.Warn("skipping item with unresolvable note", "kind", kind, "reference", ref, "error", err)
		return nil, false
	}
	if note == nil {
		result.Orphans++
		m.log.Warn("skipping orphaned item; backing note is missing", "kind", kind, "reference", ref)
		return nil, false
	}
	return note, true
}
