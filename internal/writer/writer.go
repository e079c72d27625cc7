// Package writer is the thin shim that moves a projected, keyed dataset
// into the wide-column store: it compiles the catalogs, issues the two
// writes (data rows and schema row), and persists both catalogs as side
// files.
package writer

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/time/rate"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
	"github.com/marcol480/fink-broker/internal/publish"
	"github.com/marcol480/fink-broker/internal/schemarow"
)

// DefaultRegions is the pre-split hint passed to the store when a table
// is newly created.
const DefaultRegions = 50

// Config controls a Writer.
type Config struct {
	// TableName is the store table written to.
	TableName string

	// CatalogFolder is the directory catalogs are persisted to. It must
	// exist. Defaults to the current directory.
	CatalogFolder string

	// Regions is the pre-split hint for new tables.
	Regions int

	// RowsPerSecond throttles store writes. Zero disables throttling.
	RowsPerSecond int

	// BatchSize is how many records are handed to the store per throttled
	// write call.
	BatchSize int

	// BrokerVersion and ScienceVersion identify the releases that
	// produced this batch; together they form the schema-row version
	// string.
	BrokerVersion  string
	ScienceVersion string

	// Publisher receives both catalogs after a successful push. Defaults
	// to a no-op publisher.
	Publisher publish.Publisher
}

// Writer pushes datasets and their catalogs to a store.
type Writer struct {
	store   core.Store
	config  Config
	limiter *rate.Limiter
}

// New creates a writer for the given store.
func New(store core.Store, config Config) (*Writer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if config.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if config.CatalogFolder == "" {
		config.CatalogFolder = "."
	}
	if config.Regions <= 0 {
		config.Regions = DefaultRegions
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	var limiter *rate.Limiter
	if config.RowsPerSecond > 0 {
		// Burst must cover a full batch or WaitN can never succeed.
		burst := config.RowsPerSecond
		if config.BatchSize > burst {
			burst = config.BatchSize
		}
		limiter = rate.NewLimiter(rate.Limit(config.RowsPerSecond), burst)
	}

	return &Writer{store: store, config: config, limiter: limiter}, nil
}

// Push writes a projected, keyed dataset to the store, then writes the
// matching schema row. The data rows and the schema row are two
// independent writes to the same table under different row-key
// namespaces; if the schema-row write fails after the data write
// succeeded, the data is written but undescribed by a fresh schema row.
// There is no automatic rollback: callers needing atomicity should verify
// that both catalog side files exist before considering the batch
// committed.
func (w *Writer) Push(ctx context.Context, df core.Dataset, rowKeyName string, cf map[string]string) error {
	table := w.config.TableName

	dataCatalog, err := catalog.CompileJSON(df.Schema(), table, rowKeyName, cf)
	if err != nil {
		return fmt.Errorf("compiling data catalog for table %s: %w", table, err)
	}

	log.Printf("[WRITER] Pushing %d records to table %s", df.Count(), table)
	if err := w.write(ctx, df.Collect(), dataCatalog); err != nil {
		return fmt.Errorf("writing data rows for table %s: %w", table, err)
	}

	if err := catalog.WriteSideFile(dataCatalog, w.config.CatalogFolder, catalog.SideFileName(table)); err != nil {
		return fmt.Errorf("persisting data catalog for table %s: %w", table, err)
	}

	// The schema row uses its own key column so it stays distinguishable
	// from data rows in the same table.
	renamed, err := df.WithColumnRenamed(rowKeyName, schemarow.RowKeyName)
	if err != nil {
		return fmt.Errorf("renaming row key for schema row: %w", err)
	}

	version := schemarow.Version(w.config.BrokerVersion, w.config.ScienceVersion)
	schemaRow, err := schemarow.Construct(renamed, schemarow.RowKeyName, version)
	if err != nil {
		return fmt.Errorf("synthesizing schema row for table %s: %w", table, err)
	}

	schemaRowCatalog, err := catalog.CompileJSON(schemaRow.Schema(), table, schemarow.RowKeyName, cf)
	if err != nil {
		return fmt.Errorf("compiling schema-row catalog for table %s: %w", table, err)
	}

	if err := w.write(ctx, schemaRow.Collect(), schemaRowCatalog); err != nil {
		return fmt.Errorf("writing schema row for table %s (data rows already written): %w", table, err)
	}

	if err := catalog.WriteSideFile(schemaRowCatalog, w.config.CatalogFolder, catalog.SchemaRowSideFileName(table)); err != nil {
		return fmt.Errorf("persisting schema-row catalog for table %s: %w", table, err)
	}

	if w.config.Publisher != nil {
		if err := w.config.Publisher.Publish(ctx, table, dataCatalog, schemaRowCatalog); err != nil {
			return fmt.Errorf("publishing catalogs for table %s: %w", table, err)
		}
	}

	log.Printf("[WRITER] Push complete for table %s (version %s)", table, version)
	return nil
}

// Load reads the table's data rows through its persisted data catalog and
// rebuilds a dataset. Schema rows are excluded by the store.
func (w *Writer) Load(ctx context.Context) (core.Dataset, error) {
	table := w.config.TableName

	catalogJSON, err := catalog.ReadSideFile(w.config.CatalogFolder, catalog.SideFileName(table))
	if err != nil {
		return nil, fmt.Errorf("reading data catalog for table %s: %w", table, err)
	}

	cat, err := catalog.Parse(catalogJSON)
	if err != nil {
		return nil, fmt.Errorf("parsing data catalog for table %s: %w", table, err)
	}

	records, err := w.store.Load(ctx, catalogJSON, cat.RowKey)
	if err != nil {
		return nil, fmt.Errorf("loading table %s: %w", table, err)
	}

	schema := make(core.Schema, 0, len(cat.Columns))
	for _, col := range cat.Columns {
		if col.Name == catalog.AnnotationColumn {
			continue
		}
		schema = append(schema, core.Field{Name: col.Name, Type: col.Type, Nullable: true})
	}

	return dataset.NewMemory(schema, records), nil
}

// write hands records to the store in batches, respecting the configured
// rate limit.
func (w *Writer) write(ctx context.Context, records []core.Record, catalogJSON string) error {
	if w.limiter == nil {
		return w.store.Write(ctx, records, catalogJSON, w.config.Regions)
	}

	for start := 0; start < len(records); start += w.config.BatchSize {
		end := start + w.config.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := w.limiter.WaitN(ctx, len(batch)); err != nil {
			return fmt.Errorf("rate limiter interrupted: %w", err)
		}
		if err := w.store.Write(ctx, batch, catalogJSON, w.config.Regions); err != nil {
			return err
		}
	}
	return nil
}
