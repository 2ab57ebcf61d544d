// Package querybuilder renders the small set of Postgres statements the
// ledger repositories need, with $n placeholders numbered left to right.
package querybuilder

import (
	"strconv"
	"strings"
)

type Condition interface {
	render(w *writer)
}

// writer accumulates SQL text and positional args.
type writer struct {
	sql  strings.Builder
	args []any
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.sql.WriteByte('$')
	w.sql.WriteString(strconv.Itoa(len(w.args)))
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

type binary struct {
	column string
	op     string
	value  any
}

func (c binary) render(w *writer) {
	w.sql.WriteString(c.column)
	w.sql.WriteString(c.op)
	w.bind(c.value)
}

func Eq(column string, value any) Condition {
	return binary{column: column, op: " = ", value: value}
}

type inList struct {
	column string
	values []any
}

// In matches column against values. An empty list matches nothing.
func In[T any](column string, values []T) Condition {
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return inList{column: column, values: items}
}

func (c inList) render(w *writer) {
	if len(c.values) == 0 {
		w.sql.WriteString("FALSE")
		return
	}
	w.sql.WriteString(c.column)
	w.sql.WriteString(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(v)
	}
	w.sql.WriteByte(')')
}

type isNull string

func IsNull(column string) Condition {
	return isNull(column)
}

func (c isNull) render(w *writer) {
	w.sql.WriteString(string(c))
	w.sql.WriteString(" IS NULL")
}
