package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across the engine. Callers match these with errors.Is;
// the UI layer maps them to user-facing messages.
var (
	// ErrValidation marks input rejected before any write (out-of-range
	// priority, NaN numeric input, malformed selection bounds).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an id with no matching row at update time. The
	// caller is expected to refresh its queue.
	ErrNotFound = errors.New("not found")

	// ErrPersistence marks a failure at the repository boundary: file
	// read/write errors, malformed schema, or rows that do not decode.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateImport marks an article import that was refused because
	// the note is already imported or already managed.
	ErrDuplicateImport = errors.New("duplicate import")
)

// Validationf builds an error matching ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf builds an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// DuplicateImportf builds an error matching ErrDuplicateImport.
func DuplicateImportf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicateImport, fmt.Sprintf(format, args...))
}

// Corruptf builds an error matching ErrPersistence for stored data that
// does not decode.
func Corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPersistence, fmt.Sprintf(format, args...))
}

// Persistencef wraps err so that it matches both ErrPersistence and the
// underlying cause.
func Persistencef(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), ErrPersistence, err)
}
