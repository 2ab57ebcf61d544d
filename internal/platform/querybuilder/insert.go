package querybuilder

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ConflictClause renders an ON CONFLICT tail for InsertModel.
type ConflictClause struct {
	target    []string
	predicate string
	updates   []string
	raw       string
}

func OnConflict(target ...string) *ConflictClause {
	return &ConflictClause{target: append([]string(nil), target...)}
}

// Where narrows the arbiter to a partial unique index.
func (c *ConflictClause) Where(predicate string) *ConflictClause {
	c.predicate = strings.TrimSpace(predicate)
	return c
}

// DoUpdate overwrites columns with the proposed row. No columns means DO NOTHING.
func (c *ConflictClause) DoUpdate(columns ...string) *ConflictClause {
	c.updates = append(c.updates, columns...)
	return c
}

// DoUpdateRaw appends a hand-written assignment list, for CASE expressions and the like.
func (c *ConflictClause) DoUpdateRaw(assignments string) *ConflictClause {
	c.raw = strings.TrimSpace(assignments)
	return c
}

func (c *ConflictClause) String() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("ON CONFLICT")
	if len(c.target) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(c.target, ", "))
		b.WriteByte(')')
	}
	if c.predicate != "" {
		b.WriteString(" WHERE ")
		b.WriteString(c.predicate)
	}
	if len(c.updates) == 0 && c.raw == "" {
		b.WriteString(" DO NOTHING")
		return b.String()
	}
	b.WriteString(" DO UPDATE SET ")
	for i, col := range c.updates {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(" = EXCLUDED.")
		b.WriteString(col)
	}
	if c.raw != "" {
		if len(c.updates) > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.raw)
	}
	return b.String()
}

// InsertModel builds a single-row INSERT from the exported `db`-tagged fields of model.
// conflict may be nil.
func InsertModel(table string, model any, conflict *ConflictClause) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, errors.New("insert table is required")
	}
	cols, vals, err := taggedColumns(model)
	if err != nil {
		return "", nil, err
	}

	var w writer
	w.sql.WriteString("INSERT INTO ")
	w.sql.WriteString(table)
	w.sql.WriteString(" (")
	w.sql.WriteString(strings.Join(cols, ", "))
	w.sql.WriteString(") VALUES (")
	for i, v := range vals {
		if i > 0 {
			w.sql.WriteString(", ")
		}
		w.bind(v)
	}
	w.sql.WriteByte(')')
	if conflict != nil {
		w.sql.WriteByte(' ')
		w.sql.WriteString(conflict.String())
	}
	return w.sql.String(), w.args, nil
}

func taggedColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, errors.New("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be a struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model %s has no db columns", typ.Name())
	}
	return cols, vals, nil
}
