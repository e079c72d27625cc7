package catalog

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/marcol480/fink-broker/internal/core"
)

var (
	// ErrMissingFamily is returned when a schema column has no entry in
	// the family map. This is a configuration error: a new dataset column
	// was introduced without updating the family-assignment policy, and
	// guessing a family would silently change the table layout.
	ErrMissingFamily = errors.New("no column family assigned")
)

// Compile converts a flattened schema into a catalog description for the
// store connector. Every non-key column must have a family in cf; the
// column named rowKeyName is emitted under the reserved rowkey family
// wherever it falls in schema order. One annotation entry under the
// reserved annotation family is always appended last.
func Compile(schema core.Schema, tableName, rowKeyName string, cf map[string]string) (*Catalog, error) {
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if rowKeyName == "" {
		return nil, fmt.Errorf("rowkey name is required")
	}

	cat := &Catalog{
		Table:   TableRef{Namespace: DefaultNamespace, Name: tableName},
		RowKey:  rowKeyName,
		Columns: make([]NamedEntry, 0, len(schema)+1),
	}

	for _, field := range schema {
		typ := NormalizeType(field.Type)

		if field.Name == rowKeyName {
			cat.Columns = append(cat.Columns, NamedEntry{
				Name:  field.Name,
				Entry: Entry{Family: FamilyRowKey, Qualifier: field.Name, Type: typ},
			})
			continue
		}

		family, ok := cf[field.Name]
		if !ok {
			return nil, fmt.Errorf("%w: column %s in table %s", ErrMissingFamily, field.Name, tableName)
		}
		cat.Columns = append(cat.Columns, NamedEntry{
			Name:  field.Name,
			Entry: Entry{Family: family, Qualifier: field.Name, Type: typ},
		})
	}

	cat.Columns = append(cat.Columns, NamedEntry{
		Name:  AnnotationColumn,
		Entry: Entry{Family: FamilyAnnotation, Qualifier: "", Type: "string"},
	})

	log.Printf("[CATALOG] Compiled catalog for table %s (%d columns, rowkey: %s)",
		tableName, len(cat.Columns), rowKeyName)

	return cat, nil
}

// CompileJSON compiles a catalog and returns its serialized form.
func CompileJSON(schema core.Schema, tableName, rowKeyName string, cf map[string]string) (string, error) {
	cat, err := Compile(schema, tableName, rowKeyName, cf)
	if err != nil {
		return "", err
	}
	return cat.JSON()
}

// NormalizeType maps a declared column type to a type the store connector
// understands. The store has no native nested, array, or timestamp types,
// so those are stored as strings. All other primitive type names pass
// through unchanged.
func NormalizeType(typ string) string {
	if typ == "timestamp" || typ == "struct" {
		return "string"
	}
	if strings.HasPrefix(typ, "array") || strings.Contains(typ, "<") {
		return "string"
	}
	return typ
}
