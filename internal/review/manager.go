// Package review is the engine's orchestrator: it composes the due queue
// across cards, snippets, and articles, computes next-review intervals,
// applies priority changes, records reviews, and delegates card scheduling
// to the FSRS engine. It owns no persistent state of its own; every fact is
// re-derived from the repository on each call.
package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
	"github.com/retainmd/retain/internal/scheduler"
	"github.com/retainmd/retain/internal/storage"
)

// Frontmatter vocabulary for notes the engine manages.
const (
	CardTag    = "retain-card"
	SnippetTag = "retain-snippet"
	ArticleTag = "retain-article"

	// SourceProperty holds a link from a derived note back to the note it
	// was extracted or imported from.
	SourceProperty = "retain-source"
)

// Scheduler is the FSRS call contract: given current card state and a
// timestamp, the outcome of every possible grade.
type Scheduler interface {
	Repeat(card domain.Card, now time.Time) map[domain.Grade]scheduler.Result
}

// Options tune the manager. Zero values fall back to the defaults below.
type Options struct {
	// RolloverOffset moves the end of a review day past local midnight, so
	// late-night sessions are not penalized.
	RolloverOffset time.Duration

	// ManagedDir is the vault subdirectory owned by the engine; derived
	// snippets and imported articles live under it.
	ManagedDir string

	// DefaultPriority applies to snippets and articles created without an
	// inherited or explicit priority.
	DefaultPriority domain.Priority

	// QueueLimit caps GetDue when the caller does not pass a limit.
	QueueLimit int

	// Clock overrides the time source, for tests.
	Clock func() time.Time

	// Logger overrides the default structured logger.
	Logger *slog.Logger
}

const (
	defaultRolloverOffset = 4 * time.Hour
	defaultManagedDir     = "retain"
	defaultQueueLimit     = 100
)

func (o Options) withDefaults() Options {
	if o.RolloverOffset == 0 {
		o.RolloverOffset = defaultRolloverOffset
	}
	if o.ManagedDir == "" {
		o.ManagedDir = defaultManagedDir
	}
	if o.DefaultPriority == 0 {
		o.DefaultPriority = domain.PriorityDefault
	}
	if o.QueueLimit == 0 {
		o.QueueLimit = defaultQueueLimit
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Manager orchestrates reviews over injected collaborators. It is not safe
// for concurrent use; the host serializes calls.
type Manager struct {
	repo  *storage.Repository
	notes notes.Store
	sched Scheduler
	opts  Options
	log   *slog.Logger
	now   func() time.Time
}

// NewManager wires the repository, note store, and FSRS scheduler together.
func NewManager(repo *storage.Repository, store notes.Store, sched Scheduler, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		repo:  repo,
		notes: store,
		sched: sched,
		opts:  opts,
		log:   opts.Logger,
		now:   opts.Clock,
	}
}

// EndOfDay returns the rollover-adjusted end of the review day containing
// now: local midnight plus the rollover offset, advanced one day when now
// has already passed the offset.
func (m *Manager) EndOfDay(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	boundary := midnight.Add(m.opts.RolloverOffset)
	if now.After(boundary) {
		boundary = midnight.AddDate(0, 0, 1).Add(m.opts.RolloverOffset)
	}
	return boundary
}

// KindCounts summarizes one item kind for the UI layer's status line.
type KindCounts struct {
	DueNow    int64
	Active    int64
	Dismissed int64
}

// Counts reports queue totals per kind.
type Counts struct {
	Cards    KindCounts
	Snippets KindCounts
	Articles KindCounts
}

// CountsNow summarizes the backlog as of the current moment.
func (m *Manager) CountsNow(ctx context.Context) (Counts, error) {
	now := m.now()
	var out Counts
	for _, kind := range []struct {
		table string
		dest  *KindCounts
	}{
		{"card", &out.Cards},
		{"snippet", &out.Snippets},
		{"article", &out.Articles},
	} {
		c, err := m.countTable(ctx, kind.table, now)
		if err != nil {
			return Counts{}, err
		}
		*kind.dest = c
	}
	return out, nil
}

func (m *Manager) countTable(ctx context.Context, table string, now time.Time) (KindCounts, error) {
	rows, err := m.repo.Query(ctx,
		"SELECT "+
			"COUNT(CASE WHEN dismissed = 0 AND due <= ? THEN 1 END) AS due_now, "+
			"COUNT(CASE WHEN dismissed = 0 THEN 1 END) AS active, "+
			"COUNT(CASE WHEN dismissed <> 0 THEN 1 END) AS dismissed "+
			"FROM "+table,
		now)
	if err != nil {
		return KindCounts{}, err
	}
	if len(rows) != 1 {
		return KindCounts{}, domain.Corruptf("count query on %s returned %d rows", table, len(rows))
	}
	var out KindCounts
	var ok bool
	if out.DueNow, ok = rows[0]["due_now"].(int64); !ok {
		return KindCounts{}, domain.Corruptf("count query on %s returned a non-integer", table)
	}
	if out.Active, ok = rows[0]["active"].(int64); !ok {
		return KindCounts{}, domain.Corruptf("count query on %s returned a non-integer", table)
	}
	if out.Dismissed, ok = rows[0]["dismissed"].(int64); !ok {
		return KindCounts{}, domain.Corruptf("count query on %s returned a non-integer", table)
	}
	return out, nil
}

// managedRef joins path segments under the engine's managed directory.
func (m *Manager) managedRef(parts ...string) string {
	ref := m.opts.ManagedDir
	for _, p := range parts {
		ref += "/" + p
	}
	return ref
}

func (m *Manager) getCard(ctx context.Context, q storage.Querier, id string) (domain.Card, error) {
	rows, err := query.Select(query.Card).Where("id").Eq(id).Rows(ctx, q)
	if err != nil {
		return domain.Card{}, err
	}
	if len(rows) == 0 {
		return domain.Card{}, domain.NotFoundf("card %s", id)
	}
	row, err := storage.DecodeCardRow(rows[0])
	if err != nil {
		return domain.Card{}, err
	}
	return domain.CardRowToDisplay(row)
}
