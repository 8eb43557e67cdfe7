// Package rowmap converts engine rows into typed records.
//
// A Shape declares, per record type, which column feeds which field and
// whether the field is required. Mapping looks columns up by lower-cased
// name: a null value leaves an optional field nil, a missing or null
// required column is a *dcdash.MappingError, and columns the shape does not
// declare are ignored. No derived values are computed here; the query
// materializes everything as columns.
package rowmap

import (
	"fmt"
	"strings"

	"github.com/atdtech/dcdash"
)

// Column is one named value of a row.
type Column struct {
	Name  string
	Value any
}

// RawRow is one result row in engine delivery order.
type RawRow []Column

// NewRawRow pairs names with values, lower-casing the names.
// Extra values beyond len(names) are dropped.
func NewRawRow(names []string, values []any) RawRow {
	row := make(RawRow, 0, len(names))
	for i, name := range names {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row = append(row, Column{Name: strings.ToLower(name), Value: v})
	}
	return row
}

// Lookup returns the value of the named column. The first column with a
// matching name wins.
func (r RawRow) Lookup(name string) (any, bool) {
	name = strings.ToLower(name)
	for _, c := range r {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (r RawRow) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Field binds one column to one field of T.
type Field[T any] struct {
	Column   string
	Required bool
	set      func(dst *T, v any) error
}

// Opt declares an optional field. A missing column or a null value leaves
// the field nil.
func Opt[T, V any](column string, conv Converter[V], dst func(*T) **V) Field[T] {
	return Field[T]{
		Column: strings.ToLower(column),
		set: func(rec *T, v any) error {
			out, err := conv(v)
			if err != nil {
				return err
			}
			*dst(rec) = &out
			return nil
		},
	}
}

// Req declares a required field. A missing column or a null value fails
// the mapping.
func Req[T, V any](column string, conv Converter[V], dst func(*T) *V) Field[T] {
	return Field[T]{
		Column:   strings.ToLower(column),
		Required: true,
		set: func(rec *T, v any) error {
			out, err := conv(v)
			if err != nil {
				return err
			}
			*dst(rec) = out
			return nil
		},
	}
}

// Shape is the field lookup table of one record type.
type Shape[T any] struct {
	Name   string
	Fields []Field[T]
}

// Map builds a T from row.
func (s Shape[T]) Map(row RawRow) (T, error) {
	var rec T
	for _, f := range s.Fields {
		v, ok := row.Lookup(f.Column)
		if !ok {
			if f.Required {
				var zero T
				return zero, &dcdash.MappingError{Shape: s.Name, Column: f.Column, Err: errMissingColumn}
			}
			continue
		}
		if isNull(v) {
			if f.Required {
				var zero T
				return zero, &dcdash.MappingError{Shape: s.Name, Column: f.Column, Err: errNullRequired}
			}
			continue
		}
		if err := f.set(&rec, v); err != nil {
			var zero T
			return zero, &dcdash.MappingError{Shape: s.Name, Column: f.Column, Err: err}
		}
	}
	return rec, nil
}

// Columns lists the columns the shape reads, in declaration order.
func (s Shape[T]) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Required lists the required columns.
func (s Shape[T]) Required() []string {
	var cols []string
	for _, f := range s.Fields {
		if f.Required {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

var (
	errMissingColumn = fmt.Errorf("required column missing from result")
	errNullRequired  = fmt.Errorf("required column is null")
)
