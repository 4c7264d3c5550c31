// Package schema describes the typed, ordered columns of a tabular dataset and
// projects them into the forms the warehouse collaborators consume.
package schema

import (
	"fmt"

	"cloud.google.com/go/bigquery"

	"go-tennis-pipeline/internal/model"
)

// ColumnType is the restricted set of column types a schema may use.
type ColumnType string

const (
	String  ColumnType = "STRING"
	Integer ColumnType = "INTEGER"
	Float   ColumnType = "FLOAT"
)

// Valid reports whether t is one of the supported types.
func (t ColumnType) Valid() bool {
	switch t {
	case String, Integer, Float:
		return true
	}
	return false
}

// Column describes one column. Order within a Schema must match the physical
// column order of the source file.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema is an immutable ordered list of columns.
type Schema struct {
	columns []Column
	index   map[string]int
}

// New validates the columns and returns a Schema holding a private copy.
func New(columns ...Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, &model.ConfigurationError{Field: "schema", Reason: "no columns"}
	}
	s := &Schema{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, model.NewConfigurationError("schema", "column %d has no name", i)
		}
		if !c.Type.Valid() {
			return nil, model.NewConfigurationError("schema."+c.Name, "unsupported type %q", c.Type)
		}
		if prev, ok := s.index[c.Name]; ok {
			return nil, model.NewConfigurationError("schema."+c.Name, "duplicate column (positions %d and %d)", prev, i)
		}
		s.index[c.Name] = i
		s.columns[i] = c
	}
	return s, nil
}

// MustNew is New for package-level schemas; it panics on invalid input.
func MustNew(columns ...Column) *Schema {
	s, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the columns in order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the column with the given name.
func (s *Schema) Lookup(name string) (Column, int, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, -1, false
	}
	return s.columns[i], i, true
}

// TableSchema is the projection used to create the destination table.
func (s *Schema) TableSchema() bigquery.Schema { return s.project() }

// LoadSchema is the projection handed to the load job.
func (s *Schema) LoadSchema() bigquery.Schema { return s.project() }

// project builds fresh field values on every call so that one consumer
// mutating its schema cannot affect another.
func (s *Schema) project() bigquery.Schema {
	out := make(bigquery.Schema, len(s.columns))
	for i, c := range s.columns {
		out[i] = &bigquery.FieldSchema{
			Name:     c.Name,
			Type:     FieldType(c.Type),
			Required: !c.Nullable,
		}
	}
	return out
}

// Output is the JSON-friendly form used by description surfaces.
func (s *Schema) Output() []model.ColumnOutput {
	out := make([]model.ColumnOutput, len(s.columns))
	for i, c := range s.columns {
		out[i] = model.ColumnOutput{Name: c.Name, Type: string(c.Type), Nullable: c.Nullable}
	}
	return out
}

// FieldType maps a column type to its BigQuery field type.
func FieldType(t ColumnType) bigquery.FieldType {
	switch t {
	case Integer:
		return bigquery.IntegerFieldType
	case Float:
		return bigquery.FloatFieldType
	default:
		return bigquery.StringFieldType
	}
}

// FromFieldType maps a BigQuery field type back to a column type.
func FromFieldType(t bigquery.FieldType) (ColumnType, error) {
	switch t {
	case bigquery.StringFieldType:
		return String, nil
	case bigquery.IntegerFieldType:
		return Integer, nil
	case bigquery.FloatFieldType:
		return Float, nil
	}
	return "", fmt.Errorf("unsupported field type %q", t)
}

// FromBigQuery converts a BigQuery schema into a Schema.
func FromBigQuery(bq bigquery.Schema) (*Schema, error) {
	cols := make([]Column, 0, len(bq))
	for _, f := range bq {
		t, err := FromFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		cols = append(cols, Column{Name: f.Name, Type: t, Nullable: !f.Required})
	}
	return New(cols...)
}

// Equal reports whether both schemas have the same names, order, types and
// nullability.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}

// Diff describes the first difference between two schemas, or "" when equal.
func (s *Schema) Diff(other *Schema) string {
	if len(s.columns) != len(other.columns) {
		return fmt.Sprintf("column count %d != %d", len(s.columns), len(other.columns))
	}
	for i := range s.columns {
		a, b := s.columns[i], other.columns[i]
		if a != b {
			return fmt.Sprintf("column %d: %s %s (nullable=%t) != %s %s (nullable=%t)",
				i, a.Name, a.Type, a.Nullable, b.Name, b.Type, b.Nullable)
		}
	}
	return ""
}
