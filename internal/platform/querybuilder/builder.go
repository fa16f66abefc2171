// Package querybuilder renders the small set of PostgreSQL statements the
// repositories need, numbering placeholders as $1..$n.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is one predicate of a WHERE clause. Conditions are joined with AND.
type Condition interface {
	render(w *writer)
}

type compare struct {
	column string
	op     string
	value  any
}

func (c compare) render(w *writer) {
	w.sql.WriteString(c.column)
	w.sql.WriteString(" " + c.op + " ")
	w.bind(c.value)
}

func Eq(column string, value any) Condition  { return compare{column: column, op: "=", value: value} }
func Gte(column string, value any) Condition { return compare{column: column, op: ">=", value: value} }
func Lt(column string, value any) Condition  { return compare{column: column, op: "<", value: value} }

type in struct {
	column string
	values []any
}

// In matches any of values. An empty list renders FALSE.
func In(column string, values []any) Condition {
	return in{column: column, values: values}
}

func (c in) render(w *writer) {
	if len(c.values) == 0 {
		w.sql.WriteString("FALSE")
		return
	}
	w.sql.WriteString(c.column + " IN (")
	for i, v := range c.values {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(v)
	}
	w.sql.WriteString(")")
}

type isNull string

func IsNull(column string) Condition { return isNull(column) }

func (c isNull) render(w *writer) {
	w.sql.WriteString(string(c) + " IS NULL")
}

type expr struct {
	sql  string
	args []any
}

// Expr embeds raw SQL using ? for each argument.
func Expr(sql string, args ...any) Condition {
	return expr{sql: sql, args: args}
}

func (c expr) render(w *writer) {
	w.raw(c.sql, c.args)
}

// writer accumulates SQL text and bound arguments.
type writer struct {
	sql  strings.Builder
	args []any
	err  error
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.sql.WriteString("$" + strconv.Itoa(len(w.args)))
}

func (w *writer) raw(sql string, args []any) {
	next := 0
	for _, r := range sql {
		if r != '?' {
			w.sql.WriteRune(r)
			continue
		}
		if next >= len(args) {
			w.fail(fmt.Errorf("expression %q has more placeholders than arguments", sql))
			return
		}
		w.bind(args[next])
		next++
	}
	if next != len(args) {
		w.fail(fmt.Errorf("expression %q has %d placeholders for %d arguments", sql, next, len(args)))
	}
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.sql.WriteString(" WHERE ")
		} else {
			w.sql.WriteString(" AND ")
		}
		c.render(w)
	}
}

func (w *writer) result() (string, []any, error) {
	if w.err != nil {
		return "", nil, w.err
	}
	return w.sql.String(), w.args, nil
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("select requires a table")
	}

	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ", ")
	}

	var w writer
	w.sql.WriteString("SELECT " + columns + " FROM " + b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.sql.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.sql.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.sql.WriteString(" FOR UPDATE")
	}
	return w.result()
}

type assignment struct {
	column string
	expr   string
	args   []any
}

type InsertBuilder struct {
	table      string
	columns    []string
	values     []any
	conflict   []string
	doNothing  bool
	updates    []assignment
	returning  []string
	modelError error
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append(b.values, values...)
	return b
}

// OnConflict names the unique columns that turn the insert into an upsert.
func (b *InsertBuilder) OnConflict(columns ...string) *InsertBuilder {
	b.conflict = columns
	return b
}

func (b *InsertBuilder) DoNothing() *InsertBuilder {
	b.doNothing = true
	return b
}

// UpdateExcluded copies the proposed row's value into each column on conflict.
func (b *InsertBuilder) UpdateExcluded(columns ...string) *InsertBuilder {
	for _, c := range columns {
		b.updates = append(b.updates, assignment{column: c, expr: "EXCLUDED." + c})
	}
	return b
}

// UpdateExpr sets column to a raw expression on conflict, using ? for args.
func (b *InsertBuilder) UpdateExpr(column, expr string, args ...any) *InsertBuilder {
	b.updates = append(b.updates, assignment{column: column, expr: expr, args: args})
	return b
}

func (b *InsertBuilder) Returning(exprs ...string) *InsertBuilder {
	b.returning = append(b.returning, exprs...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if b.modelError != nil {
		return "", nil, b.modelError
	}
	if b.table == "" || len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert requires a table and columns")
	}
	if len(b.columns) != len(b.values) {
		return "", nil, fmt.Errorf("insert into %s has %d columns and %d values", b.table, len(b.columns), len(b.values))
	}
	if (b.doNothing || len(b.updates) > 0) && len(b.conflict) == 0 {
		return "", nil, fmt.Errorf("insert into %s: conflict action without conflict target", b.table)
	}

	var w writer
	w.sql.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(v)
	}
	w.sql.WriteString(")")

	if len(b.conflict) > 0 {
		w.sql.WriteString(" ON CONFLICT (" + strings.Join(b.conflict, ", ") + ")")
		switch {
		case len(b.updates) > 0:
			w.sql.WriteString(" DO UPDATE SET ")
			for i, u := range b.updates {
				if i > 0 {
					w.sql.WriteString(", ")
				}
				w.sql.WriteString(u.column + " = ")
				w.raw(u.expr, u.args)
			}
		default:
			w.sql.WriteString(" DO NOTHING")
		}
	}
	if len(b.returning) > 0 {
		w.sql.WriteString(" RETURNING " + strings.Join(b.returning, ", "))
	}
	return w.result()
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: "?", args: []any{value}})
	return b
}

func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, args: args})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to render an UPDATE without a WHERE clause.
func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if b.table == "" || len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update requires a table and at least one column")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update %s requires a where clause", b.table)
	}

	var w writer
	w.sql.WriteString("UPDATE " + b.table + " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.sql.WriteString(s.column + " = ")
		w.raw(s.expr, s.args)
	}
	w.where(b.where)
	return w.result()
}
