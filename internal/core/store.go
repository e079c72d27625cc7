package core

import "context"

// Store defines the interface to the wide-column store connector.
// The connector is driven entirely by a serialized catalog description:
// the catalog names the table, the row-key column, and the family and
// qualifier under which each column is stored.
type Store interface {
	// Write pushes the given records to the table described by the
	// catalog. newTableRegions is a pre-split hint applied only when the
	// table does not exist yet.
	Write(ctx context.Context, records []Record, catalogJSON string, newTableRegions int) error

	// Load reads all data rows of the table described by the catalog.
	// Rows whose key in rowKeyName is a schema row (reserved "schema_"
	// key prefix) are excluded.
	Load(ctx context.Context, catalogJSON string, rowKeyName string) ([]Record, error)

	// Close closes the connection to the store and releases resources.
	Close() error
}
