// Package notes is the engine's view of the host vault: a directory of
// markdown notes addressed by vault-relative paths. The engine never parses
// markdown structure beyond frontmatter and cloze delimiters.
package notes

import (
	"context"
	"path"
	"strings"
)

// Note is a resolved handle to an existing note.
type Note struct {
	Ref  string // vault-relative path, including extension
	Name string // base name without extension
}

// Store is the note-access surface the review engine depends on. Resolve
// returns (nil, nil) for a reference with no backing note.
type Store interface {
	Read(ctx context.Context, ref string) (string, error)
	Write(ctx context.Context, ref string, text string) error
	Create(ctx context.Context, ref string, text string) error
	Append(ctx context.Context, ref string, text string) error
	Rename(ctx context.Context, ref string, newRef string) error
	Resolve(ctx context.Context, ref string) (*Note, error)
	Frontmatter(ctx context.Context, ref string) (map[string]any, error)
	SetFrontmatter(ctx context.Context, ref string, updates map[string]any) error
}

// NoteFor builds the handle for a vault-relative reference.
func NoteFor(ref string) *Note {
	base := path.Base(ref)
	return &Note{Ref: ref, Name: strings.TrimSuffix(base, path.Ext(base))}
}
