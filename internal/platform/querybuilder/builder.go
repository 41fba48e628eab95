// Package querybuilder assembles the small set of SQL shapes the postgres
// repositories need. Fragments carry ? placeholders internally; ToSQL numbers
// them into postgres $n form in argument order.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is one WHERE fragment plus its arguments.
type Condition struct {
	sql  string
	args []any
}

func Eq(column string, value any) Condition {
	return Condition{sql: column + " = ?", args: []any{value}}
}

// In renders to a never-matching clause when values is empty, so callers can
// pass filter slices through without special-casing.
func In(column string, values []any) Condition {
	if len(values) == 0 {
		return Condition{sql: "1=0"}
	}

	var sb strings.Builder
	sb.WriteString(column)
	sb.WriteString(" IN (")
	for i := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('?')
	}
	sb.WriteByte(')')

	return Condition{sql: sb.String(), args: append([]any(nil), values...)}
}

// Expr is the escape hatch for fragments the helpers above don't cover.
func Expr(sql string, args ...any) Condition {
	return Condition{sql: sql, args: args}
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	args = writeWhere(&sb, b.where, args)
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}

	return numberPlaceholders(sb.String(), args)
}

type assignment struct {
	column string
	// raw assignments splice the fragment in verbatim, e.g. NOW().
	fragment string
	value    any
	raw      bool
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
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

func (b *UpdateBuilder) SetExpr(column, fragment string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, fragment: fragment, value: args, raw: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update assignments are required")
	}

	var sb strings.Builder
	var args []any

	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	for i, set := range b.sets {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(set.column)
		sb.WriteString(" = ")
		if set.raw {
			sb.WriteString(set.fragment)
			args = append(args, set.value.([]any)...)
			continue
		}
		sb.WriteByte('?')
		args = append(args, set.value)
	}
	args = writeWhere(&sb, b.where, args)

	return numberPlaceholders(sb.String(), args)
}

func writeWhere(sb *strings.Builder, conditions []Condition, args []any) []any {
	if len(conditions) == 0 {
		return args
	}
	sb.WriteString(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(c.sql)
		args = append(args, c.args...)
	}
	return args
}

// numberPlaceholders replaces each ? with the next $n. The placeholder count
// must match the argument count or a fragment was built wrong.
func numberPlaceholders(sql string, args []any) (string, []any, error) {
	var sb strings.Builder
	sb.Grow(len(sql))

	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] != '?' {
			sb.WriteByte(sql[i])
			continue
		}
		n++
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(n))
	}
	if n != len(args) {
		return "", nil, fmt.Errorf("query has %d placeholders for %d args", n, len(args))
	}

	return sb.String(), args, nil
}
