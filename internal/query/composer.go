// Package query builds the narrow band of SQL the review engine needs:
// flat-conjunction SELECT/INSERT/UPDATE/DELETE statements with positional
// placeholders. Every comparator allocates a parameter; literals are never
// interpolated, so injection is impossible by construction. It is not a
// general boolean-expression engine: conditions chain with And/Or without
// nesting, which covers everything the engine asks for.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/retainmd/retain/internal/domain"
	"github.com/retainmd/retain/internal/storage"
)

// Direction orders a Sort column.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type operation int

const (
	opSelect operation = iota
	opInsert
	opUpdate
	opDelete
)

var operationNames = [...]string{"SELECT", "INSERT", "UPDATE", "DELETE"}

// Select starts a SELECT against t. With no Columns call the projection
// is *.
func Select(t Table) *Builder { return newBuilder(opSelect, t) }

// Insert starts an INSERT into t; Columns must be called before Values.
func Insert(t Table) *Builder { return newBuilder(opInsert, t) }

// Update starts an UPDATE of t; target columns are given via Set.
func Update(t Table) *Builder { return newBuilder(opUpdate, t) }

// Delete starts a DELETE from t.
func Delete(t Table) *Builder { return newBuilder(opDelete, t) }

// Builder accumulates one statement. Construction errors stick to the
// builder and surface from Build, so call sites can chain without
// checking each step.
type Builder struct {
	op         operation
	table      Table
	joined     []Table
	joinSQL    []string
	cols       []string
	sets       []string
	setParams  []any
	conds      []string
	condParams []any
	values     []any
	sorts      []string
	limit      int
	err        error
}

func newBuilder(op operation, t Table) *Builder {
	return &Builder{op: op, table: t, limit: -1}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = domain.Validationf(format, args...)
	}
	return b
}

// hasColumn resolves plain and table-qualified names against the tables
// participating in the statement.
func (b *Builder) hasColumn(name string) bool {
	if t, col, ok := strings.Cut(name, "."); ok {
		for _, tab := range append([]Table{b.table}, b.joined...) {
			if tab.name == t && tab.columns[col] {
				return true
			}
		}
		return false
	}
	if b.table.columns[name] {
		return true
	}
	for _, tab := range b.joined {
		if tab.columns[name] {
			return true
		}
	}
	return false
}

// Columns restricts the projection (SELECT) or target columns (INSERT).
func (b *Builder) Columns(cols ...string) *Builder {
	if len(cols) == 0 {
		return b.fail("at least one column must be given to Columns")
	}
	if b.op != opSelect && b.op != opInsert {
		return b.fail("Columns applies only to SELECT and INSERT")
	}
	for _, c := range cols {
		if !b.hasColumn(c) {
			return b.fail("unknown column %q on table %q", c, b.table.name)
		}
	}
	b.cols = cols
	return b
}

// Values supplies one row of INSERT values, positionally matching the
// Columns call that must precede it.
func (b *Builder) Values(vals ...any) *Builder {
	if b.op != opInsert {
		return b.fail("Values applies only to INSERT")
	}
	if len(b.cols) == 0 {
		return b.fail("Values requires Columns to be called first")
	}
	if len(vals) != len(b.cols) {
		return b.fail("Values got %d values for %d columns", len(vals), len(b.cols))
	}
	b.values = vals
	return b
}

// Set adds one column assignment to an UPDATE.
func (b *Builder) Set(col string, v any) *Builder {
	if b.op != opUpdate {
		return b.fail("Set applies only to UPDATE")
	}
	if !b.hasColumn(col) {
		return b.fail("unknown column %q on table %q", col, b.table.name)
	}
	b.sets = append(b.sets, col+" = ?")
	b.setParams = append(b.setParams, v)
	return b
}

// Join adds an inner join (SELECT only); complete it with On.
func (b *Builder) Join(t Table) JoinClause {
	if b.op != opSelect {
		b.fail("Join applies only to SELECT")
	}
	return JoinClause{b: b, t: t}
}

// JoinClause is an unfinished Join waiting for its On columns.
type JoinClause struct {
	b *Builder
	t Table
}

// On closes the join, equating left (a column of the tables already in the
// statement) with right (a column of the joined table).
func (j JoinClause) On(left, right string) *Builder {
	b := j.b
	if !b.hasColumn(left) {
		return b.fail("unknown join column %q", left)
	}
	if !j.t.columns[right] {
		return b.fail("unknown column %q on table %q", right, j.t.name)
	}
	b.joined = append(b.joined, j.t)
	b.joinSQL = append(b.joinSQL, fmt.Sprintf("JOIN %s ON %s.%s = %s.%s",
		j.t.name, b.table.name, left, j.t.name, right))
	return b
}

// Where opens the condition chain. It may be used once per statement.
func (b *Builder) Where(col string) Condition {
	if b.op == opInsert {
		b.fail("Where does not apply to INSERT")
	}
	if len(b.conds) > 0 {
		b.fail("Where may only be called once per statement")
	}
	return b.condition(col, "")
}

// And appends a conjunct to an existing Where chain.
func (b *Builder) And(col string) Condition {
	if len(b.conds) == 0 {
		b.fail("And requires a preceding Where")
	}
	return b.condition(col, "AND")
}

// Or appends a disjunct to an existing Where chain.
func (b *Builder) Or(col string) Condition {
	if len(b.conds) == 0 {
		b.fail("Or requires a preceding Where")
	}
	return b.condition(col, "OR")
}

func (b *Builder) condition(col, conj string) Condition {
	if !b.hasColumn(col) {
		b.fail("unknown column %q on table %q", col, b.table.name)
	}
	return Condition{b: b, col: col, conj: conj}
}

// Condition is a column awaiting its comparator.
type Condition struct {
	b    *Builder
	col  string
	conj string
}

func (c Condition) compare(comparator string, v any) *Builder {
	b := c.b
	clause := fmt.Sprintf("%s %s ?", c.col, comparator)
	if c.conj != "" {
		clause = c.conj + " " + clause
	}
	b.conds = append(b.conds, clause)
	b.condParams = append(b.condParams, v)
	return b
}

// Eq compares with =.
func (c Condition) Eq(v any) *Builder { return c.compare("=", v) }

// Neq compares with <>.
func (c Condition) Neq(v any) *Builder { return c.compare("<>", v) }

// Lt compares with <.
func (c Condition) Lt(v any) *Builder { return c.compare("<", v) }

// Lte compares with <=.
func (c Condition) Lte(v any) *Builder { return c.compare("<=", v) }

// Gt compares with >.
func (c Condition) Gt(v any) *Builder { return c.compare(">", v) }

// Gte compares with >=.
func (c Condition) Gte(v any) *Builder { return c.compare(">=", v) }

// In matches any of vals, one placeholder per value.
func (c Condition) In(vals ...any) *Builder {
	b := c.b
	if len(vals) == 0 {
		return b.fail("In requires at least one value")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	clause := fmt.Sprintf("%s IN (%s)", c.col, placeholders)
	if c.conj != "" {
		clause = c.conj + " " + clause
	}
	b.conds = append(b.conds, clause)
	b.condParams = append(b.condParams, vals...)
	return b
}

// Sort appends an ORDER BY column (SELECT only). Repeated calls add
// secondary orderings.
func (b *Builder) Sort(col string, dir Direction) *Builder {
	if b.op != opSelect {
		return b.fail("Sort applies only to SELECT")
	}
	if !b.hasColumn(col) {
		return b.fail("unknown column %q on table %q", col, b.table.name)
	}
	if dir != Asc && dir != Desc {
		return b.fail("unknown sort direction %q", dir)
	}
	b.sorts = append(b.sorts, fmt.Sprintf("%s %s", col, dir))
	return b
}

// Limit caps the result count (SELECT only).
func (b *Builder) Limit(n int) *Builder {
	if b.op != opSelect {
		return b.fail("Limit applies only to SELECT")
	}
	if n < 0 {
		return b.fail("Limit must not be negative, got %d", n)
	}
	b.limit = n
	return b
}

// Build renders the statement with positional ? placeholders and the
// parameters in binding order.
func (b *Builder) Build() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var sb strings.Builder
	var params []any
	switch b.op {
	case opSelect:
		projection := "*"
		if len(b.cols) > 0 {
			projection = strings.Join(b.cols, ", ")
		}
		fmt.Fprintf(&sb, "SELECT %s FROM %s", projection, b.table.name)
		for _, j := range b.joinSQL {
			sb.WriteString(" " + j)
		}
	case opInsert:
		if len(b.cols) == 0 || len(b.values) == 0 {
			return "", nil, domain.Validationf("INSERT requires Columns and Values")
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(b.values)), ", ")
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
			b.table.name, strings.Join(b.cols, ", "), placeholders)
		params = append(params, b.values...)
	case opUpdate:
		if len(b.sets) == 0 {
			return "", nil, domain.Validationf("UPDATE requires at least one Set")
		}
		fmt.Fprintf(&sb, "UPDATE %s SET %s", b.table.name, strings.Join(b.sets, ", "))
		params = append(params, b.setParams...)
	case opDelete:
		fmt.Fprintf(&sb, "DELETE FROM %s", b.table.name)
	}

	if len(b.conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.conds, " "))
		params = append(params, b.condParams...)
	}
	if len(b.sorts) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(b.sorts, ", "))
	}
	if b.limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	return sb.String(), params, nil
}

// String renders the statement without parameters, for logging.
func (b *Builder) String() string {
	built, _, err := b.Build()
	if err != nil {
		return fmt.Sprintf("invalid %s: %v", operationNames[b.op], err)
	}
	return built
}

// Rows builds and runs the statement as a read.
func (b *Builder) Rows(ctx context.Context, q storage.Querier) ([]storage.Row, error) {
	built, params, err := b.Build()
	if err != nil {
		return nil, err
	}
	return q.Query(ctx, built, params...)
}

// Exec builds and runs the statement as a write.
func (b *Builder) Exec(ctx context.Context, q storage.Querier) (sql.Result, error) {
	built, params, err := b.Build()
	if err != nil {
		return nil, err
	}
	return q.Mutate(ctx, built, params...)
}
