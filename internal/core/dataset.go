package core

import "strings"

// Field describes a single column in a dataset schema.
type Field struct {
	// Name is the column name.
	Name string

	// Type is the declared type name (e.g. "string", "double", "long",
	// "binary", "timestamp"). Struct fields carry type "struct" and
	// array fields a parameterized name such as "array<float>".
	Type string

	// Nullable indicates whether the column can contain null values.
	Nullable bool

	// Fields holds the sub-fields of a struct column. Nil for leaf columns.
	Fields []Field
}

// Schema is an ordered list of fields. Order is significant: catalog
// generation and schema-row synthesis both preserve it.
type Schema []Field

// Names returns all field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the field with the given name, if present.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record is a single row keyed by column name. Struct column values are
// nested map[string]interface{} until the record is flattened by a select.
type Record map[string]interface{}

// ColumnExpr references a column by path, with an optional output alias.
// A path may be a plain name ("objectId"), a dotted path into a struct
// column ("candidate.jd"), or a struct wildcard ("candidate.*") which
// expands to every sub-field of the struct.
type ColumnExpr struct {
	Path  string
	Alias string
}

// Col builds a plain column reference.
func Col(path string) ColumnExpr {
	return ColumnExpr{Path: path}
}

// As returns a copy of the expression with an output alias.
func (e ColumnExpr) As(alias string) ColumnExpr {
	e.Alias = alias
	return e
}

// Name returns the output column name of the expression: the alias when
// set, otherwise the last path segment.
func (e ColumnExpr) Name() string {
	if e.Alias != "" {
		return e.Alias
	}
	if idx := strings.LastIndex(e.Path, "."); idx >= 0 {
		return e.Path[idx+1:]
	}
	return e.Path
}

// Cols builds plain column references for a list of paths.
func Cols(paths ...string) []ColumnExpr {
	exprs := make([]ColumnExpr, len(paths))
	for i, p := range paths {
		exprs[i] = ColumnExpr{Path: p}
	}
	return exprs
}

// Dataset is the tabular-data collaborator: an ordered, schema-carrying
// collection of records. Implementations are immutable from the caller's
// perspective; every transformation returns a new dataset.
type Dataset interface {
	// Columns returns the top-level column names in order.
	Columns() []string

	// Schema returns the ordered schema of the dataset.
	Schema() Schema

	// Select projects the dataset onto the given expressions, flattening
	// dotted paths and expanding struct wildcards. It fails if any
	// expression does not resolve against the schema.
	Select(exprs []ColumnExpr) (Dataset, error)

	// WithColumn appends a new column with one value per record.
	WithColumn(field Field, values []interface{}) (Dataset, error)

	// WithColumnRenamed renames an existing column in place.
	WithColumnRenamed(existing, renamed string) (Dataset, error)

	// Count returns the number of records.
	Count() int

	// Collect returns the records in order.
	Collect() []Record
}
