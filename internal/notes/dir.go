package notes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/retainmd/retain/internal/domain"
)

// DirStore serves notes from a directory tree on the local filesystem.
type DirStore struct {
	root string
}

// NewDirStore opens a vault rooted at dir, creating the directory if it
// does not exist.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.Persistencef(err, "creating vault directory %s", dir)
	}
	return &DirStore{root: dir}, nil
}

// abs maps a vault-relative reference to an absolute path, rejecting
// anything that escapes the vault root.
func (s *DirStore) abs(ref string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", domain.Validationf("note reference %q escapes the vault", ref)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *DirStore) Read(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.abs(ref)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.NotFoundf("note %q", ref)
	}
	if err != nil {
		return "", domain.Persistencef(err, "reading note %q", ref)
	}
	return string(data), nil
}

func (s *DirStore) Write(ctx context.Context, ref string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.abs(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return domain.Persistencef(err, "creating directory for note %q", ref)
	}
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return domain.Persistencef(err, "writing note %q", ref)
	}
	return nil
}

// Create writes a new note and fails if one already exists at ref.
func (s *DirStore) Create(ctx context.Context, ref string, text string) error {
	existing, err := s.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.Validationf("note already exists at %q", ref)
	}
	return s.Write(ctx, ref, text)
}

func (s *DirStore) Append(ctx context.Context, ref string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.abs(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return domain.Persistencef(err, "creating directory for note %q", ref)
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.Persistencef(err, "opening note %q for append", ref)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		return domain.Persistencef(err, "appending to note %q", ref)
	}
	return nil
}

func (s *DirStore) Rename(ctx context.Context, ref string, newRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := s.abs(ref)
	if err != nil {
		return err
	}
	to, err := s.abs(newRef)
	if err != nil {
		return err
	}
	if _, err := os.Stat(to); err == nil {
		return domain.Validationf("a note already exists at %q", newRef)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return domain.Persistencef(err, "creating directory for note %q", newRef)
	}
	if err := os.Rename(from, to); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NotFoundf("note %q", ref)
		}
		return domain.Persistencef(err, "renaming note %q to %q", ref, newRef)
	}
	return nil
}

func (s *DirStore) Resolve(ctx context.Context, ref string) (*Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.abs(ref)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistencef(err, "resolving note %q", ref)
	}
	if info.IsDir() {
		return nil, nil
	}
	return NoteFor(ref), nil
}

func (s *DirStore) Frontmatter(ctx context.Context, ref string) (map[string]any, error) {
	text, err := s.Read(ctx, ref)
	if err != nil {
		return nil, err
	}
	fm, _, err := ParseFrontmatter(text)
	if err != nil {
		return nil, fmt.Errorf("frontmatter of %q: %w", ref, err)
	}
	return fm, nil
}

// SetFrontmatter merges updates into the note's frontmatter block, creating
// the block if the note has none.
func (s *DirStore) SetFrontmatter(ctx context.Context, ref string, updates map[string]any) error {
	text, err := s.Read(ctx, ref)
	if err != nil {
		return err
	}
	fm, body, err := ParseFrontmatter(text)
	if err != nil {
		return fmt.Errorf("frontmatter of %q: %w", ref, err)
	}
	for k, v := range updates {
		fm[k] = v
	}
	rendered, err := RenderFrontmatter(fm, body)
	if err != nil {
		return fmt.Errorf("frontmatter of %q: %w", ref, err)
	}
	return s.Write(ctx, ref, rendered)
}
