package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcol480/fink-broker/internal/core"
)

var (
	// ErrNoSuchColumn is returned when a select expression does not
	// resolve against the dataset schema.
	ErrNoSuchColumn = errors.New("no such column")
)

// Memory is an in-memory implementation of core.Dataset. Records may carry
// nested struct values (map[string]interface{}) that are flattened by
// Select using dotted paths and struct wildcards.
type Memory struct {
	schema  core.Schema
	records []core.Record
}

// NewMemory creates an in-memory dataset from a schema and its records.
func NewMemory(schema core.Schema, records []core.Record) *Memory {
	return &Memory{schema: schema, records: records}
}

// Columns returns the top-level column names in schema order.
func (m *Memory) Columns() []string {
	return m.schema.Names()
}

// Schema returns the ordered schema of the dataset.
func (m *Memory) Schema() core.Schema {
	return m.schema
}

// Count returns the number of records.
func (m *Memory) Count() int {
	return len(m.records)
}

// Collect returns the records in order.
func (m *Memory) Collect() []core.Record {
	return m.records
}

// Select projects the dataset onto the given expressions. Dotted paths
// resolve into struct columns and take the leaf name (or the alias) as the
// output column name; "parent.*" expands to every sub-field of the struct.
func (m *Memory) Select(exprs []core.ColumnExpr) (core.Dataset, error) {
	type binding struct {
		name string
		path []string
		typ  core.Field
	}

	bindings := make([]binding, 0, len(exprs))
	for _, expr := range exprs {
		segments := strings.Split(expr.Path, ".")

		// Struct wildcard: expand to one binding per sub-field.
		if segments[len(segments)-1] == "*" {
			if expr.Alias != "" {
				return nil, fmt.Errorf("cannot alias wildcard expression %q", expr.Path)
			}
			parent, err := m.resolve(segments[:len(segments)-1])
			if err != nil {
				return nil, err
			}
			if parent.Fields == nil {
				return nil, fmt.Errorf("%w: %q is not a struct column", ErrNoSuchColumn, expr.Path)
			}
			for _, sub := range parent.Fields {
				path := append(append([]string{}, segments[:len(segments)-1]...), sub.Name)
				bindings = append(bindings, binding{name: sub.Name, path: path, typ: sub})
			}
			continue
		}

		field, err := m.resolve(segments)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{name: expr.Name(), path: segments, typ: field})
	}

	schema := make(core.Schema, len(bindings))
	for i, b := range bindings {
		schema[i] = core.Field{Name: b.name, Type: b.typ.Type, Nullable: b.typ.Nullable, Fields: b.typ.Fields}
	}

	records := make([]core.Record, len(m.records))
	for i, rec := range m.records {
		out := make(core.Record, len(bindings))
		for _, b := range bindings {
			out[b.name] = extract(rec, b.path)
		}
		records[i] = out
	}

	return &Memory{schema: schema, records: records}, nil
}

// WithColumn appends a new column. The number of values must match the
// number of records.
func (m *Memory) WithColumn(field core.Field, values []interface{}) (core.Dataset, error) {
	if len(values) != len(m.records) {
		return nil, fmt.Errorf("column %s has %d values for %d records", field.Name, len(values), len(m.records))
	}
	if _, exists := m.schema.FieldByName(field.Name); exists {
		return nil, fmt.Errorf("column %s already exists", field.Name)
	}

	schema := append(append(core.Schema{}, m.schema...), field)
	records := make([]core.Record, len(m.records))
	for i, rec := range m.records {
		out := make(core.Record, len(rec)+1)
		for k, v := range rec {
			out[k] = v
		}
		out[field.Name] = values[i]
		records[i] = out
	}

	return &Memory{schema: schema, records: records}, nil
}

// WithColumnRenamed renames an existing top-level column, keeping its
// position in the schema.
func (m *Memory) WithColumnRenamed(existing, renamed string) (core.Dataset, error) {
	if _, ok := m.schema.FieldByName(existing); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchColumn, existing)
	}

	schema := make(core.Schema, len(m.schema))
	for i, f := range m.schema {
		if f.Name == existing {
			f.Name = renamed
		}
		schema[i] = f
	}

	records := make([]core.Record, len(m.records))
	for i, rec := range m.records {
		out := make(core.Record, len(rec))
		for k, v := range rec {
			if k == existing {
				k = renamed
			}
			out[k] = v
		}
		records[i] = out
	}

	return &Memory{schema: schema, records: records}, nil
}

// resolve walks a dotted path through the schema and returns the leaf field.
func (m *Memory) resolve(segments []string) (core.Field, error) {
	fields := m.schema
	var field core.Field
	for i, seg := range segments {
		f, ok := core.Schema(fields).FieldByName(seg)
		if !ok {
			return core.Field{}, fmt.Errorf("%w: %s", ErrNoSuchColumn, strings.Join(segments, "."))
		}
		field = f
		if i < len(segments)-1 {
			if f.Fields == nil {
				return core.Field{}, fmt.Errorf("%w: %s", ErrNoSuchColumn, strings.Join(segments, "."))
			}
			fields = f.Fields
		}
	}
	return field, nil
}

// extract walks a dotted path through a record's nested maps.
func extract(rec core.Record, path []string) interface{} {
	var current interface{} = map[string]interface{}(rec)
	for _, seg := range path {
		switch v := current.(type) {
		case map[string]interface{}:
			current = v[seg]
		case core.Record:
			current = v[seg]
		default:
			return nil
		}
	}
	return current
}
