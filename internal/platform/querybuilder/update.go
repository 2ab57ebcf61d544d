package querybuilder

import (
	"errors"
	"strings"
)

type assignment struct {
	column string
	value  any
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

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses an update without a WHERE clause.
func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("update table is required")
	case len(b.sets) == 0:
		return "", nil, errors.New("update sets are required")
	case len(b.where) == 0:
		return "", nil, errors.New("update without where is not allowed")
	}

	var w writer
	w.sql.WriteString("UPDATE ")
	w.sql.WriteString(b.table)
	w.sql.WriteString(" SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.sql.WriteString(s.column)
		w.sql.WriteString(" = ")
		w.bind(s.value)
	}
	w.where(b.where)
	return w.sql.String(), w.args, nil
}
