package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/review"
	"github.com/retainmd/retain/internal/scheduler"
	"github.com/retainmd/retain/internal/sources"
	"github.com/retainmd/retain/internal/storage"
)

type harness struct {
	server *Server
	vault  *notes.DirStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "retain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	vault, err := notes.NewDirStore(t.TempDir())
	require.NoError(t, err)

	manager := review.NewManager(repo, vault, scheduler.New(), review.Options{
		Clock: func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) },
	})
	registry := sources.NewRegistry(repo, vault, manager, t.TempDir(), nil)
	return &harness{server: NewServer(manager, registry, nil), vault: vault}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)
	return rec
}

func TestGetCounts(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/counts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var counts review.Counts
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counts))
	assert.Zero(t, counts.Cards.Active)
}

func TestCardLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.vault.Write(ctx, "go.md", "Go appeared in {{2009}}"))

	rec := h.do(t, http.MethodPost, "/cards", `{"reference":"go.md"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var card domain.Card
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&card))
	require.NotEmpty(t, card.ID)

	t.Run("preview", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/cards/"+card.ID+"/preview", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var outcomes map[string]domain.Card
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&outcomes))
		assert.Len(t, outcomes, 4)
	})

	t.Run("review", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/cards/"+card.ID+"/review", `{"grade":3}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(t, http.MethodGet, "/cards/"+card.ID+"/history", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var history []domain.CardReview
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
		assert.Len(t, history, 1)
	})

	t.Run("invalid grade maps to 400", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/cards/"+card.ID+"/review", `{"grade":7}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("dismiss", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/cards/"+card.ID+"/dismiss", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSnippetAndArticleRoutes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.vault.Write(ctx, "book.md", "a passage worth keeping"))

	rec := h.do(t, http.MethodPost, "/snippets", `{"source":"book.md","selection":"worth keeping"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snippet domain.Snippet
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snippet))

	t.Run("reprioritize", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/snippets/1/priority", `{"priority":45}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = h.do(t, http.MethodPost, "/snippets/1/priority", `{"priority":99}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("review with override", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/snippets/1/review", `{"next_interval_ms":86400000}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("dismiss", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/snippets/1/dismiss", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("article import conflicts on repeat", func(t *testing.T) {
		require.NoError(t, h.vault.Write(ctx, "essay.md", "long form"))
		rec := h.do(t, http.MethodPost, "/articles", `{"reference":"essay.md"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = h.do(t, http.MethodPost, "/articles", `{"reference":"essay.md"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("article import carries a chosen priority", func(t *testing.T) {
		require.NoError(t, h.vault.Write(ctx, "paper.md", "dense reading"))
		rec := h.do(t, http.MethodPost, "/articles", `{"reference":"paper.md","priority":45}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var article domain.Article
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&article))
		assert.Equal(t, domain.Priority(45), article.Priority)

		rec = h.do(t, http.MethodPost, "/articles", `{"reference":"paper.md","priority":99}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t)

	t.Run("unknown item maps to 404", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/snippets/999/dismiss", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/cards", `{"reference":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fields map to 400", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/cards", `{"refrence":"typo.md"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric id maps to 400", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/snippets/abc/dismiss", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad due_by maps to 400", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/queue?due_by=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueueEndpoint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.vault.Write(ctx, "book.md", "content"))

	rec := h.do(t, http.MethodPost, "/snippets", `{"source":"book.md","selection":"content"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	horizon := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	rec = h.do(t, http.MethodGet, "/queue?due_by="+horizon, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result review.DueResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Len(t, result.Queue, 1)
}

func TestSourceRoutes(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()

	rec := h.do(t, http.MethodPost, "/sources", `{"location":"`+dir+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var src sources.Source
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&src))

	rec = h.do(t, http.MethodGet, "/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPost, "/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodDelete, "/sources/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
