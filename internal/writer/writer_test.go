package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
	"github.com/marcol480/fink-broker/internal/schemarow"
	"github.com/marcol480/fink-broker/internal/store"
)

func testDataset() core.Dataset {
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "jd", Type: "double"},
		{Name: "cutoutScience", Type: "binary"},
		{Name: "objectId_jd", Type: "string"},
	}
	records := []core.Record{
		{"objectId": "ZTF18abc", "jd": 2458849.5, "cutoutScience": []byte{0x1f}, "objectId_jd": "ZTF18abc_2458849.5"},
		{"objectId": "ZTF19xyz", "jd": 2458850.5, "cutoutScience": []byte{0x2e}, "objectId_jd": "ZTF19xyz_2458850.5"},
	}
	return dataset.NewMemory(schema, records)
}

func testFamilies() map[string]string {
	return map[string]string{
		"objectId":      "i",
		"jd":            "i",
		"cutoutScience": "b",
	}
}

func TestPushWritesDataAndSchemaRow(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	folder := t.TempDir()

	w, err := New(s, Config{
		TableName:      "ztf.alerts",
		CatalogFolder:  folder,
		BrokerVersion:  "1.0",
		ScienceVersion: "2.0",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Push(ctx, testDataset(), "objectId_jd", testFamilies()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if _, ok := s.Row("ztf.alerts", "ZTF18abc_2458849.5"); !ok {
		t.Error("Expected data row to be written")
	}

	schemaRow, ok := s.Row("ztf.alerts", "schema_1.0_2.0")
	if !ok {
		t.Fatal("Expected schema row keyed by version string")
	}
	if schemaRow["objectId"] != "string" {
		t.Errorf("Expected schema row to hold type names, got %v", schemaRow["objectId"])
	}
	if schemaRow["cutoutScience"] != "fits/image" {
		t.Errorf("Expected fits/image sentinel, got %v", schemaRow["cutoutScience"])
	}

	for _, name := range []string{
		catalog.SideFileName("ztf.alerts"),
		catalog.SchemaRowSideFileName("ztf.alerts"),
	} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			t.Errorf("Expected side file %s: %v", name, err)
		}
	}
}

func TestPushDefaultsRegionHint(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	w, err := New(s, Config{TableName: "ztf.alerts", CatalogFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Push(ctx, testDataset(), "objectId_jd", testFamilies()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	if got := s.Regions("ztf.alerts"); got != DefaultRegions {
		t.Errorf("Expected region hint %d, got %d", DefaultRegions, got)
	}
}

func TestPushThrottledBatches(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	w, err := New(s, Config{
		TableName:     "ztf.alerts",
		CatalogFolder: t.TempDir(),
		RowsPerSecond: 1000,
		BatchSize:     1,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Push(ctx, testDataset(), "objectId_jd", testFamilies()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	loaded, err := w.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 2 {
		t.Errorf("Expected 2 data rows after throttled push, got %d", loaded.Count())
	}
}

// failSecondWriteStore lets the first write through and fails the second,
// simulating a store outage between the data write and the schema-row
// write.
type failSecondWriteStore struct {
	inner  core.Store
	writes int
}

func (f *failSecondWriteStore) Write(ctx context.Context, records []core.Record, catalogJSON string, newTableRegions int) error {
	f.writes++
	if f.writes > 1 {
		return fmt.Errorf("store unavailable")
	}
	return f.inner.Write(ctx, records, catalogJSON, newTableRegions)
}

func (f *failSecondWriteStore) Load(ctx context.Context, catalogJSON string, rowKeyName string) ([]core.Record, error) {
	return f.inner.Load(ctx, catalogJSON, rowKeyName)
}

func (f *failSecondWriteStore) Close() error {
	return f.inner.Close()
}

func TestPushSchemaRowFailureLeavesDataWritten(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	s := &failSecondWriteStore{inner: mem}
	folder := t.TempDir()

	w, err := New(s, Config{
		TableName:      "ztf.alerts",
		CatalogFolder:  folder,
		BrokerVersion:  "1.0",
		ScienceVersion: "2.0",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = w.Push(ctx, testDataset(), "objectId_jd", testFamilies())
	if err == nil {
		t.Fatal("Expected Push to fail on the schema-row write")
	}
	if !strings.Contains(err.Error(), "data rows already written") {
		t.Errorf("Expected the error to name the completed stage, got: %v", err)
	}

	if _, ok := mem.Row("ztf.alerts", "ZTF18abc_2458849.5"); !ok {
		t.Error("Expected data rows to remain written")
	}
	if _, ok := mem.Row("ztf.alerts", schemarow.Version("1.0", "2.0")); ok {
		t.Error("Expected no schema row after the failed write")
	}

	if _, err := os.Stat(filepath.Join(folder, catalog.SideFileName("ztf.alerts"))); err != nil {
		t.Errorf("Expected data catalog side file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(folder, catalog.SchemaRowSideFileName("ztf.alerts"))); !os.IsNotExist(err) {
		t.Errorf("Expected no schema-row catalog side file, stat returned: %v", err)
	}
}

func TestLoadExcludesSchemaRowAndAnnotation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	folder := t.TempDir()

	w, err := New(s, Config{
		TableName:      "ztf.alerts",
		CatalogFolder:  folder,
		BrokerVersion:  "1.0",
		ScienceVersion: "2.0",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Push(ctx, testDataset(), "objectId_jd", testFamilies()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	loaded, err := w.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Count() != 2 {
		t.Errorf("Expected 2 data rows, got %d", loaded.Count())
	}
	for _, name := range loaded.Columns() {
		if name == catalog.AnnotationColumn {
			t.Error("Annotation entry must not surface as a dataset column")
		}
	}
	for _, rec := range loaded.Collect() {
		if schemarow.IsSchemaKey(dataset.CanonicalString(rec["objectId_jd"])) {
			t.Errorf("Schema row leaked into loaded data: %v", rec)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, Config{TableName: "t"}); err == nil {
		t.Error("Expected error for nil store")
	}
	if _, err := New(store.NewMemoryStore(), Config{}); err == nil {
		t.Error("Expected error for missing table name")
	}
}
