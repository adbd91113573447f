package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSnippetRowRoundTrip(t *testing.T) {
	due := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	parent := int64(7)
	s := Snippet{
		ID:        3,
		Reference: "retain/snippets/note.md",
		Due:       &due,
		Priority:  25,
		Parent:    &parent,
	}

	back, err := SnippetRowToDisplay(SnippetToRow(s))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if back.ID != s.ID || back.Reference != s.Reference || back.Priority != s.Priority {
		t.Errorf("round trip changed fields: got %+v", back)
	}
	if back.Due == nil || !back.Due.Equal(due) {
		t.Errorf("round trip changed due: got %v, want %v", back.Due, due)
	}
	if back.Parent == nil || *back.Parent != parent {
		t.Errorf("round trip changed parent: got %v", back.Parent)
	}
}

func TestSnippetDueDismissedInvariant(t *testing.T) {
	t.Run("active snippet without due is rejected", func(t *testing.T) {
		_, err := SnippetRowToDisplay(SnippetRow{Reference: "a.md", Due: nil, Dismissed: 0, Priority: 30})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("dismissed snippet with due is rejected", func(t *testing.T) {
		ms := int64(1700000000000)
		_, err := SnippetRowToDisplay(SnippetRow{Reference: "a.md", Due: &ms, Dismissed: 1, Priority: 30})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})

	t.Run("dismissed snippet without due is accepted", func(t *testing.T) {
		s, err := SnippetRowToDisplay(SnippetRow{Reference: "a.md", Dismissed: 1, Priority: 30})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Dismissed || s.Due != nil {
			t.Errorf("got %+v, want dismissed with nil due", s)
		}
	})
}

func TestArticleRowRejectsBadPriority(t *testing.T) {
	ms := int64(1700000000000)
	for _, p := range []int64{0, 9, 51} {
		_, err := ArticleRowToDisplay(ArticleRow{Reference: "b.md", Due: &ms, Priority: p})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("priority %d: expected ErrValidation, got %v", p, err)
		}
	}
}

func TestTextReviewRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	r := TextReview{ID: 1, ItemID: 4, ReviewTime: at}
	back := TextReviewRowToDisplay(TextReviewToRow(r))
	if !back.ReviewTime.Equal(at) || back.ItemID != 4 {
		t.Errorf("round trip changed entry: got %+v", back)
	}
}
