// Package sources feeds the reading queue from outside the vault: each
// registered source is a local directory or a git repository whose markdown
// files get staged into the vault and imported as articles.
package sources

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/notes"
	"github.com/retainmd/retain/internal/query"
	"github.com/retainmd/retain/internal/storage"
)

const (
	KindLocal = "local"
	KindGit   = "git"

	// inboxDir is where staged copies of external notes land inside the
	// vault before import picks them up.
	inboxDir = "inbox"
)

// Source is a registered content feed.
type Source struct {
	ID         int64
	Path       string
	Kind       string
	LastSynced *time.Time
}

// Importer registers a staged note as an article. Satisfied by
// review.Manager. A zero priority means the importer's default.
type Importer interface {
	ImportArticle(ctx context.Context, ref string, priority int) (domain.Article, error)
}

// Registry manages the source table and runs syncs.
type Registry struct {
	repo     *storage.Repository
	vault    notes.Store
	importer Importer
	reposDir string
	log      *slog.Logger
	now      func() time.Time
}

func NewRegistry(repo *storage.Repository, vault notes.Store, importer Importer, reposDir string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		repo:     repo,
		vault:    vault,
		importer: importer,
		reposDir: reposDir,
		log:      log,
		now:      time.Now,
	}
}

// Add registers a path or git URL. The kind is inferred: anything that
// parses as an http(s) URL or scp-style address is git, the rest is a
// local directory.
func (r *Registry) Add(ctx context.Context, location string) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Source{}, domain.Validationf("source location is empty")
	}
	kind := inferKind(location)
	if kind == KindLocal {
		info, err := os.Stat(location)
		if err != nil || !info.IsDir() {
			return Source{}, domain.Validationf("local source %q is not a directory", location)
		}
	}

	existing, err := query.Select(query.Source).Where("path").Eq(location).Limit(1).Rows(ctx, r.repo)
	if err != nil {
		return Source{}, err
	}
	if len(existing) > 0 {
		return Source{}, domain.DuplicateImportf("source %q is already registered", location)
	}

	res, err := query.Insert(query.Source).
		Columns("path", "kind").
		Values(location, kind).
		Exec(ctx, r.repo)
	if err != nil {
		return Source{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Source{}, domain.Persistencef(err, "reading new source id")
	}

	r.log.Info("source added", "id", id, "kind", kind, "path", location)
	return Source{ID: id, Path: location, Kind: kind}, nil
}

// List returns all registered sources.
func (r *Registry) List(ctx context.Context) ([]Source, error) {
	rows, err := query.Select(query.Source).Sort("id", query.Asc).Rows(ctx, r.repo)
	if err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(rows))
	for _, row := range rows {
		s, err := decodeSource(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Remove deletes a source registration. Articles already imported from it
// stay in the queue.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	res, err := query.Delete(query.Source).Where("id").Eq(id).Exec(ctx, r.repo)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Persistencef(err, "checking affected rows")
	}
	if affected == 0 {
		return domain.NotFoundf("source %d", id)
	}
	return nil
}

// SyncReport summarises one SyncAll run.
type SyncReport struct {
	Sources  int
	Imported int
	Skipped  int
	Errors   []error
}

// SyncAll refreshes every source and imports any markdown file not yet
// staged. Per-file failures are collected, not fatal; a source that cannot
// be reached is skipped with an error in the report.
func (r *Registry) SyncAll(ctx context.Context) (SyncReport, error) {
	sources, err := r.List(ctx)
	if err != nil {
		return SyncReport{}, err
	}
	report := SyncReport{Sources: len(sources)}
	if len(sources) == 0 {
		r.log.Info("no sources registered")
		return report, nil
	}

	for _, src := range sources {
		dir := src.Path
		if src.Kind == KindGit {
			local, err := localPathFor(r.reposDir, src.Path)
			if err != nil {
				report.Errors = append(report.Errors, err)
				continue
			}
			if err := cloneOrPull(src.Path, local); err != nil {
				r.log.Error("git sync failed", "source", src.Path, "error", err)
				report.Errors = append(report.Errors, err)
				continue
			}
			dir = local
		}
		r.syncDir(ctx, src, dir, &report)

		if _, err := query.Update(query.Source).
			Set("last_synced", r.now()).
			Where("id").Eq(src.ID).
			Exec(ctx, r.repo); err != nil {
			r.log.Warn("could not record sync time", "source_id", src.ID, "error", err)
		}
	}

	r.log.Info("sync complete",
		"sources", report.Sources,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}

func (r *Registry) syncDir(ctx context.Context, src Source, dir string, report *SyncReport) {
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		imported, err := r.stageAndImport(ctx, p, d.Name())
		switch {
		case err != nil:
			report.Errors = append(report.Errors, err)
		case imported:
			report.Imported++
		default:
			report.Skipped++
		}
		return nil
	})
	if walkErr != nil {
		r.log.Error("walking source failed", "path", dir, "error", walkErr)
		report.Errors = append(report.Errors, walkErr)
	}
}

// stageAndImport copies one external file into the vault inbox and imports
// it. A file whose staged copy already exists is assumed imported.
func (r *Registry) stageAndImport(ctx context.Context, filePath, name string) (bool, error) {
	ref := path.Join(inboxDir, name)
	existing, err := r.vault.Resolve(ctx, ref)
	if err != nil {
		return false, err
	}
	if existing == nil {
		raw, err := os.ReadFile(filePath)
		if err != nil {
			return false, err
		}
		if err := r.vault.Create(ctx, ref, string(raw)); err != nil {
			return false, err
		}
	}

	_, err = r.importer.ImportArticle(ctx, ref, 0)
	if errors.Is(err, domain.ErrDuplicateImport) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	r.log.Info("article staged", "file", filePath, "ref", ref)
	return true, nil
}

func inferKind(location string) string {
	if parsed, err := url.Parse(location); err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return KindGit
	}
	if strings.Contains(location, "@") && strings.Contains(location, ":") {
		return KindGit
	}
	return KindLocal
}

func decodeSource(row storage.Row) (Source, error) {
	s := Source{}
	id, ok := row["id"].(int64)
	if !ok {
		return Source{}, domain.Corruptf("column source.id holds %T, want INTEGER", row["id"])
	}
	s.ID = id
	p, ok := row["path"].(string)
	if !ok {
		return Source{}, domain.Corruptf("column source.path holds %T, want TEXT", row["path"])
	}
	s.Path = p
	kind, ok := row["kind"].(string)
	if !ok {
		return Source{}, domain.Corruptf("column source.kind holds %T, want TEXT", row["kind"])
	}
	s.Kind = kind
	if raw := row["last_synced"]; raw != nil {
		ms, ok := raw.(int64)
		if !ok {
			return Source{}, domain.Corruptf("column source.last_synced holds %T, want INTEGER", raw)
		}
		t := time.UnixMilli(ms).UTC()
		s.LastSynced = &t
	}
	return s, nil
}
