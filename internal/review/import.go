package review

import (
	"context"
	"path"
	"strings"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
)

// ImportArticle copies a note into the managed directory and registers the
// copy as an article due immediately. The original note is left untouched
// apart from gaining a link property pointing at the managed copy's source.
// A priority of zero means the configured default; anything else must be on
// the stored 10..50 scale. Notes already inside the managed directory, notes
// already imported, and notes tagged as cards or snippets are refused.
func (m *Manager) ImportArticle(ctx context.Context, ref string, priority int) (domain.Article, error) {
	now := m.now()

	prio := m.opts.DefaultPriority
	if priority != 0 {
		p, err := domain.NewPriority(priority)
		if err != nil {
			return domain.Article{}, err
		}
		prio = p
	}

	source, err := m.notes.Resolve(ctx, ref)
	if err != nil {
		return domain.Article{}, err
	}
	if source == nil {
		return domain.Article{}, domain.NotFoundf("note %q", ref)
	}
	if m.isManagedRef(source.Ref) {
		return domain.Article{}, domain.DuplicateImportf("note %q is already managed", source.Ref)
	}

	fm, err := m.notes.Frontmatter(ctx, source.Ref)
	if err != nil {
		return domain.Article{}, err
	}
	if notes.HasTag(fm, CardTag) || notes.HasTag(fm, SnippetTag) {
		return domain.Article{}, domain.Validationf("note %q is a card or snippet and cannot be imported", source.Ref)
	}
	if _, ok := fm[SourceProperty]; ok {
		return domain.Article{}, domain.DuplicateImportf("note %q was already imported", source.Ref)
	}

	content, err := m.notes.Read(ctx, source.Ref)
	if err != nil {
		return domain.Article{}, err
	}

	copyRef, err := m.freeManagedRef(ctx, "articles", source.Name, content, now)
	if err != nil {
		return domain.Article{}, err
	}
	if err := m.notes.Create(ctx, copyRef, content); err != nil {
		return domain.Article{}, err
	}

	copyFM, err := m.notes.Frontmatter(ctx, copyRef)
	if err != nil {
		return domain.Article{}, err
	}
	if err := m.notes.SetFrontmatter(ctx, copyRef, map[string]any{
		"tags":         notes.WithTag(copyFM, ArticleTag),
		SourceProperty: noteLink(source),
	}); err != nil {
		return domain.Article{}, err
	}
	if err := m.notes.SetFrontmatter(ctx, source.Ref, map[string]any{
		SourceProperty: noteLink(notes.NoteFor(copyRef)),
	}); err != nil {
		return domain.Article{}, err
	}

	res, err := query.Insert(query.Article).
		Columns("reference", "due", "dismissed", "priority").
		Values(copyRef, now, false, prio).
		Exec(ctx, m.repo)
	if err != nil {
		return domain.Article{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Article{}, domain.Persistencef(err, "reading new article id")
	}

	m.log.Info("article imported", "id", id, "source", source.Ref, "copy", copyRef, "priority", prio)
	due := now.UTC()
	return domain.Article{
		ID: id, Reference: copyRef, Due: &due, Priority: prio,
	}, nil
}

// RenameArticle moves an article's managed note and updates its reference
// to match. The new name keeps the managed directory and extension.
func (m *Manager) RenameArticle(ctx context.Context, id int64, newName string) (domain.Article, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.Article{}, domain.Validationf("new name is empty")
	}
	if sanitized := notes.SanitizeTitle(newName); sanitized != newName {
		return domain.Article{}, domain.Validationf("name %q contains forbidden characters", newName)
	}

	item, err := m.findText(ctx, articleKind, "id", id)
	if err != nil {
		return domain.Article{}, err
	}
	newRef := path.Join(path.Dir(item.reference), newName+".md")
	if newRef == item.reference {
		return *item.article, nil
	}

	if err := m.notes.Rename(ctx, item.reference, newRef); err != nil {
		return domain.Article{}, err
	}
	res, err := query.Update(query.Article).
		Set("reference", newRef).
		Where("id").Eq(id).
		Exec(ctx, m.repo)
	if err != nil {
		return domain.Article{}, err
	}
	if err := oneRowAffected(res, "article", id); err != nil {
		return domain.Article{}, err
	}

	m.log.Info("article renamed", "id", id, "from", item.reference, "to", newRef)
	out, err := m.findText(ctx, articleKind, "id", id)
	if err != nil {
		return domain.Article{}, err
	}
	return *out.article, nil
}

func (m *Manager) isManagedRef(ref string) bool {
	dir := strings.TrimSuffix(m.opts.ManagedDir, "/") + "/"
	return strings.HasPrefix(ref, dir)
}

// ArticleAt looks an article up by the managed note backing it. Source
// syncing uses it to skip notes already registered.
func (m *Manager) ArticleAt(ctx context.Context, ref string) (domain.Article, error) {
	return m.findArticle(ctx, ref)
}
