// Package schemarow builds the self-describing schema record stored
// alongside the data in each table. The store has no native schema
// registry, so one synthetic row per table version carries the declared
// type of every column, keyed under a reserved key namespace instead of a
// real row key.
package schemarow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

var (
	// ErrKeyColumnNotFound is returned when the designated key column is
	// absent from the dataset.
	ErrKeyColumnNotFound = errors.New("key column not found in dataset")
)

const (
	// RowKeyName is the key column name used for schema rows, replacing
	// the table's real row-key column so schema rows are distinguishable
	// from data rows in the same table.
	RowKeyName = "schema_version"

	// KeyPrefix is the reserved row-key namespace of schema rows. Reads
	// of table data must exclude keys carrying this prefix.
	KeyPrefix = "schema_"

	// BinarySentinel replaces the type name of binary cutout columns in
	// the schema row. "binary" alone is too vague to describe the blob.
	BinarySentinel = "fits/image"

	// binaryMarker identifies cutout image columns by name.
	binaryMarker = "cutout"
)

// IsSchemaKey reports whether a row key belongs to the reserved schema-row
// namespace.
func IsSchemaKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix)
}

// Version builds the schema-row version string from the broker release
// version and the companion science-library release version.
func Version(brokerVersion, scienceVersion string) string {
	return fmt.Sprintf("schema_%s_%s", brokerVersion, scienceVersion)
}

// Construct builds a dataset with the same column set and order as df and
// exactly one record: each column's value is its declared type name,
// except cutout image columns which are forced to the BinarySentinel and
// the rowKeyName column which carries the version string. Every column of
// the result is typed string.
func Construct(df core.Dataset, rowKeyName, version string) (core.Dataset, error) {
	if _, ok := df.Schema().FieldByName(rowKeyName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyColumnNotFound, rowKeyName)
	}

	schema := make(core.Schema, 0, len(df.Schema()))
	record := make(core.Record, len(df.Schema()))

	for _, field := range df.Schema() {
		schema = append(schema, core.Field{Name: field.Name, Type: "string", Nullable: true})

		switch {
		case field.Name == rowKeyName:
			record[field.Name] = version
		case strings.Contains(field.Name, binaryMarker):
			record[field.Name] = BinarySentinel
		default:
			record[field.Name] = field.Type
		}
	}

	return dataset.NewMemory(schema, []core.Record{record}), nil
}
