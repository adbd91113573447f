// Package storage owns the embedded SQLite database file behind the review
// engine. All reads and writes funnel through the Repository; rows cross
// the boundary as column-keyed maps and are decoded into typed row structs
// before any other package touches them.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/retainmd/retain/internal/domain"
	_ "modernc.org/sqlite" // registers the sqlite driver
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Querier is the read/write surface shared by the Repository and its
// transactions.
type Querier interface {
	Query(ctx context.Context, query string, params ...any) ([]Row, error)
	Mutate(ctx context.Context, query string, params ...any) (sql.Result, error)
}

// Repository wraps the database handle. It is the single piece of shared
// mutable state in the engine; the host's call discipline keeps access
// serialized, so there is no lock here.
type Repository struct {
	db   *sql.DB
	path string
}

// Open loads the database at path, creating it from the bundled schema if
// it does not exist. A file that fails the integrity check is moved aside
// and replaced by a fresh database rather than aborting startup.
func Open(path string) (*Repository, error) {
	db, err := openAndInit(path)
	if err != nil && path != ":memory:" {
		if _, statErr := os.Stat(path); statErr == nil {
			aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
			slog.Warn("database failed to load, moving aside and reinitializing",
				"path", path, "moved_to", aside, "error", err)
			if renameErr := os.Rename(path, aside); renameErr != nil {
				return nil, domain.Persistencef(renameErr, "moving corrupt database %s", path)
			}
			db, err = openAndInit(path)
		}
	}
	if err != nil {
		return nil, domain.Persistencef(err, "opening database %s", path)
	}
	return &Repository{db: db, path: path}, nil
}

func openAndInit(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The driver allows concurrent handles but SQLite does not; a single
	// connection also keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := quickCheck(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func quickCheck(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported %q", result)
	}
	return nil
}

// Close closes the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the location of the database file.
func (r *Repository) Path() string {
	return r.path
}

// Query executes a read and returns all rows keyed by column name.
func (r *Repository) Query(ctx context.Context, query string, params ...any) ([]Row, error) {
	return runQuery(ctx, r.db, query, params)
}

// Mutate executes a write. Durability comes from SQLite's own commit; for
// multi-statement logical operations use InTx instead.
func (r *Repository) Mutate(ctx context.Context, query string, params ...any) (sql.Result, error) {
	return runMutate(ctx, r.db, query, params)
}

// TxFn runs inside a transaction. Returning an error rolls the
// transaction back; returning nil commits it.
type TxFn func(q Querier) error

// InTx wraps fn in a transaction so that paired writes (entity update plus
// review-log insert) land atomically or not at all.
func (r *Repository) InTx(ctx context.Context, fn TxFn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Persistencef(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(&txQuerier{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.Persistencef(err, "committing transaction")
	}
	return nil
}

type txQuerier struct {
	tx *sql.Tx
}

func (t *txQuerier) Query(ctx context.Context, query string, params ...any) ([]Row, error) {
	return runQuery(ctx, t.tx, query, params)
}

func (t *txQuerier) Mutate(ctx context.Context, query string, params ...any) (sql.Result, error) {
	return runMutate(ctx, t.tx, query, params)
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func runQuery(ctx context.Context, db dbtx, query string, params []any) ([]Row, error) {
	bound, err := coerceParams(params)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, bound...)
	if err != nil {
		return nil, domain.Persistencef(err, "query %q", query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, domain.Persistencef(err, "reading columns for %q", query)
	}

	var out []Row
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, domain.Persistencef(err, "scanning row for %q", query)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = cells[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistencef(err, "iterating rows for %q", query)
	}
	return out, nil
}

func runMutate(ctx context.Context, db dbtx, query string, params []any) (sql.Result, error) {
	bound, err := coerceParams(params)
	if err != nil {
		return nil, err
	}
	result, err := db.ExecContext(ctx, query, bound...)
	if err != nil {
		return nil, domain.Persistencef(err, "mutation %q", query)
	}
	return result, nil
}
