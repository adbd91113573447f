package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retainmd/retain/internal/domain"
)

func validSnippetRow() Row {
	return Row{
		"id":        int64(4),
		"reference": "retain/snippets/a.md",
		"due":       int64(1700000000000),
		"dismissed": int64(0),
		"priority":  int64(25),
		"parent":    nil,
	}
}

func TestDecodeSnippetRow(t *testing.T) {
	t.Run("decodes a valid row", func(t *testing.T) {
		out, err := DecodeSnippetRow(validSnippetRow())
		require.NoError(t, err)
		assert.Equal(t, int64(4), out.ID)
		assert.Equal(t, "retain/snippets/a.md", out.Reference)
		require.NotNil(t, out.Due)
		assert.Equal(t, int64(1700000000000), *out.Due)
		assert.Nil(t, out.Parent)
	})

	t.Run("null due decodes as nil", func(t *testing.T) {
		row := validSnippetRow()
		row["due"] = nil
		out, err := DecodeSnippetRow(row)
		require.NoError(t, err)
		assert.Nil(t, out.Due)
	})

	t.Run("missing column is a persistence failure", func(t *testing.T) {
		row := validSnippetRow()
		delete(row, "priority")
		_, err := DecodeSnippetRow(row)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPersistence), "got %v", err)
		assert.Contains(t, err.Error(), "priority")
	})

	t.Run("wrong type is a persistence failure", func(t *testing.T) {
		row := validSnippetRow()
		row["reference"] = int64(12)
		_, err := DecodeSnippetRow(row)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrPersistence), "got %v", err)
	})
}

func TestDecodeCardRow(t *testing.T) {
	row := Row{
		"id":             "c1",
		"reference":      "note.md",
		"created_at":     int64(1),
		"due":            int64(2),
		"last_review":    nil,
		"stability":      3.5,
		"difficulty":     5.0,
		"elapsed_days":   int64(0),
		"scheduled_days": int64(1),
		"reps":           int64(2),
		"lapses":         int64(0),
		"state":          int64(2),
		"dismissed":      int64(0),
	}

	t.Run("decodes a valid row", func(t *testing.T) {
		out, err := DecodeCardRow(row)
		require.NoError(t, err)
		assert.Equal(t, "c1", out.ID)
		assert.Equal(t, 3.5, out.Stability)
		assert.Nil(t, out.LastReview)
	})

	t.Run("integer-backed real decodes", func(t *testing.T) {
		r := Row{}
		for k, v := range row {
			r[k] = v
		}
		r["stability"] = int64(4)
		out, err := DecodeCardRow(r)
		require.NoError(t, err)
		assert.Equal(t, 4.0, out.Stability)
	})

	t.Run("first error wins", func(t *testing.T) {
		r := Row{}
		for k, v := range row {
			r[k] = v
		}
		r["id"] = int64(9)
		r["state"] = "bad"
		_, err := DecodeCardRow(r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "card.id")
	})
}

func TestDecodeTextReviewRow(t *testing.T) {
	out, err := DecodeTextReviewRow(Row{
		"id":          int64(1),
		"article_id":  int64(9),
		"review_time": int64(1700000000000),
	}, "article_review", "article_id")
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.ItemID)

	_, err = DecodeTextReviewRow(Row{"id": int64(1)}, "article_review", "article_id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPersistence))
}
