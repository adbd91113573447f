package storage

import (
	"github.com/retainmd/retain/internal/domain"
)

// Typed decoders for each table. A row missing a column or holding a value
// of the wrong dynamic type fails here, at the repository boundary, instead
// of leaking zero values into the scheduling logic.

// DecodeCardRow decodes a full card row.
func DecodeCardRow(row Row) (domain.CardRow, error) {
	var (
		out domain.CardRow
		err error
	)
	d := decoder{row: row, table: "card", err: &err}
	out.ID = d.text("id")
	out.Reference = d.text("reference")
	out.CreatedAt = d.integer("created_at")
	out.Due = d.integer("due")
	out.LastReview = d.nullInteger("last_review")
	out.Stability = d.real("stability")
	out.Difficulty = d.real("difficulty")
	out.ElapsedDays = d.integer("elapsed_days")
	out.ScheduledDays = d.integer("scheduled_days")
	out.Reps = d.integer("reps")
	out.Lapses = d.integer("lapses")
	out.State = d.integer("state")
	out.Dismissed = d.integer("dismissed")
	return out, err
}

// DecodeCardReviewRow decodes a full card_review row.
func DecodeCardReviewRow(row Row) (domain.CardReviewRow, error) {
	var (
		out domain.CardReviewRow
		err error
	)
	d := decoder{row: row, table: "card_review", err: &err}
	out.ID = d.text("id")
	out.CardID = d.text("card_id")
	out.Due = d.integer("due")
	out.Review = d.integer("review")
	out.Stability = d.real("stability")
	out.Difficulty = d.real("difficulty")
	out.ElapsedDays = d.integer("elapsed_days")
	out.LastElapsedDays = d.integer("last_elapsed_days")
	out.ScheduledDays = d.integer("scheduled_days")
	out.Rating = d.integer("rating")
	out.State = d.integer("state")
	return out, err
}

// DecodeSnippetRow decodes a full snippet row.
func DecodeSnippetRow(row Row) (domain.SnippetRow, error) {
	var (
		out domain.SnippetRow
		err error
	)
	d := decoder{row: row, table: "snippet", err: &err}
	out.ID = d.integer("id")
	out.Reference = d.text("reference")
	out.Due = d.nullInteger("due")
	out.Dismissed = d.integer("dismissed")
	out.Priority = d.integer("priority")
	out.Parent = d.nullInteger("parent")
	return out, err
}

// DecodeArticleRow decodes a full article row.
func DecodeArticleRow(row Row) (domain.ArticleRow, error) {
	var (
		out domain.ArticleRow
		err error
	)
	d := decoder{row: row, table: "article", err: &err}
	out.ID = d.integer("id")
	out.Reference = d.text("reference")
	out.Due = d.nullInteger("due")
	out.Dismissed = d.integer("dismissed")
	out.Priority = d.integer("priority")
	return out, err
}

// DecodeTextReviewRow decodes a snippet_review or article_review row;
// idColumn names the parent-id column ("snippet_id" or "article_id").
func DecodeTextReviewRow(row Row, table, idColumn string) (domain.TextReviewRow, error) {
	var (
		out domain.TextReviewRow
		err error
	)
	d := decoder{row: row, table: table, err: &err}
	out.ID = d.integer("id")
	out.ItemID = d.integer(idColumn)
	out.ReviewTime = d.integer("review_time")
	return out, err
}

// decoder accumulates the first field error so decode call sites stay flat.
type decoder struct {
	row   Row
	table string
	err   *error
}

func (d decoder) value(column string) (any, bool) {
	if *d.err != nil {
		return nil, false
	}
	v, ok := d.row[column]
	if !ok {
		*d.err = domain.Corruptf("row from %s is missing column %q", d.table, column)
		return nil, false
	}
	return v, true
}

func (d decoder) fail(column string, want string, got any) {
	if *d.err == nil {
		*d.err = domain.Corruptf("column %s.%s holds %T, want %s", d.table, column, got, want)
	}
}

func (d decoder) text(column string) string {
	v, ok := d.value(column)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	d.fail(column, "TEXT", v)
	return ""
}

func (d decoder) integer(column string) int64 {
	v, ok := d.value(column)
	if !ok {
		return 0
	}
	if n, ok := v.(int64); ok {
		return n
	}
	d.fail(column, "INTEGER", v)
	return 0
}

func (d decoder) nullInteger(column string) *int64 {
	v, ok := d.value(column)
	if !ok || v == nil {
		return nil
	}
	if n, ok := v.(int64); ok {
		return &n
	}
	d.fail(column, "INTEGER or NULL", v)
	return nil
}

func (d decoder) real(column string) float64 {
	v, ok := d.value(column)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		// SQLite may hand back an integer-valued REAL column as an integer.
		return float64(n)
	}
	d.fail(column, "REAL", v)
	return 0
}
