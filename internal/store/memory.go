package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
	"github.com/marcol480/fink-broker/internal/schemarow"
)

// MemoryStore implements core.Store with in-process tables. It is used in
// tests and for local dry runs; the write/read semantics mirror the
// DynamoDB implementation, including the schema-row key filter on Load.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
	closed bool
}

type memoryTable struct {
	regions int
	rows    map[string]core.Record
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memoryTable)}
}

// Write upserts records into the table named by the catalog, creating it
// with the region hint on first use. Records are keyed by the value of the
// catalog's row-key column.
func (m *MemoryStore) Write(ctx context.Context, records []core.Record, catalogJSON string, newTableRegions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("store is closed")
	}

	cat, err := catalog.Parse(catalogJSON)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	table, exists := m.tables[cat.Table.Name]
	if !exists {
		table = &memoryTable{regions: newTableRegions, rows: make(map[string]core.Record)}
		m.tables[cat.Table.Name] = table
	}

	for _, rec := range records {
		keyValue, ok := rec[cat.RowKey]
		if !ok {
			return fmt.Errorf("record has no row-key column %s", cat.RowKey)
		}
		key := dataset.CanonicalString(keyValue)
		if _, seen := table.rows[key]; !seen {
			table.order = append(table.order, key)
		}
		table.rows[key] = rec
	}

	return nil
}

// Load returns all data rows of the table in insertion order, excluding
// rows in the reserved schema-row key namespace.
func (m *MemoryStore) Load(ctx context.Context, catalogJSON string, rowKeyName string) ([]core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("store is closed")
	}

	cat, err := catalog.Parse(catalogJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	table, exists := m.tables[cat.Table.Name]
	if !exists {
		return nil, fmt.Errorf("table not found: %s", cat.Table.Name)
	}

	records := make([]core.Record, 0, len(table.order))
	for _, key := range table.order {
		if schemarow.IsSchemaKey(key) {
			continue
		}
		records = append(records, table.rows[key])
	}

	return records, nil
}

// Close marks the store as closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Row returns the record stored under key in the given table, for tests.
func (m *MemoryStore) Row(tableName, key string) (core.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, exists := m.tables[tableName]
	if !exists {
		return nil, false
	}
	rec, ok := table.rows[key]
	return rec, ok
}

// Regions returns the region hint the table was created with, for tests.
func (m *MemoryStore) Regions(tableName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if table, exists := m.tables[tableName]; exists {
		return table.regions
	}
	return 0
}

// MemoryStoreFactory implements the Factory interface for the in-memory
// store.
type MemoryStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *MemoryStoreFactory) Type() string {
	return "memory"
}

// Validate validates the configuration for the in-memory store.
func (f *MemoryStoreFactory) Validate(config Config) error {
	if config.Type != "memory" {
		return fmt.Errorf("invalid type for memory factory: %s", config.Type)
	}
	return nil
}

// Create creates a new in-memory store instance.
func (f *MemoryStoreFactory) Create(config Config) (core.Store, error) {
	return NewMemoryStore(), nil
}

func init() {
	RegisterFactory(&MemoryStoreFactory{})
}
