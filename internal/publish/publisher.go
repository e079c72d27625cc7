// Package publish exposes the catalogs of a pushed table to portal
// readers without filesystem access. The side files on disk remain the
// durable record; publication is an additional read path.
package publish

import "context"

// Publisher publishes the data and schema-row catalogs of a table after a
// successful push.
type Publisher interface {
	// Publish stores both serialized catalogs under stable per-table keys.
	Publish(ctx context.Context, tableName, dataCatalog, schemaRowCatalog string) error

	// Close releases publisher resources.
	Close() error
}

// NopPublisher is the default publisher; it does nothing.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(ctx context.Context, tableName, dataCatalog, schemaRowCatalog string) error {
	return nil
}

// Close does nothing.
func (NopPublisher) Close() error {
	return nil
}
