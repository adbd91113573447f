package query

// Table names a table and the columns the composer may reference for it.
// The set mirrors the storage schema; a query that names anything outside
// it fails at Build time instead of reaching SQLite.
type Table struct {
	name    string
	columns map[string]bool
}

// Name returns the table's SQL name.
func (t Table) Name() string { return t.name }

func table(name string, columns ...string) Table {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return Table{name: name, columns: set}
}

var (
	Card = table("card",
		"id", "reference", "created_at", "due", "last_review", "stability",
		"difficulty", "elapsed_days", "scheduled_days", "reps", "lapses",
		"state", "dismissed")

	CardReview = table("card_review",
		"id", "card_id", "due", "review", "stability", "difficulty",
		"elapsed_days", "last_elapsed_days", "scheduled_days", "rating", "state")

	Snippet = table("snippet",
		"id", "reference", "due", "dismissed", "priority", "parent")

	SnippetReview = table("snippet_review", "id", "snippet_id", "review_time")

	Article = table("article",
		"id", "reference", "due", "dismissed", "priority")

	ArticleReview = table("article_review", "id", "article_id", "review_time")

	Source = table("source", "id", "path", "kind", "last_synced")
)
