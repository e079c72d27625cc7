package sciencedb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/config"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
	"github.com/marcol480/fink-broker/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Table.Name = "ztf.science"
	cfg.Table.CatalogFolder = t.TempDir()
	cfg.Store.Type = "memory"
	cfg.Source.Kafka.Topic = "ztf-alerts"
	cfg.Versions = config.VersionsConfig{Broker: "3.1", Science: "5.6"}
	return cfg
}

func testAlert(objectID string, jd float64) core.Record {
	return core.Record{
		"objectId":             objectID,
		"schemavsn":            "4.02",
		"publisher":            "Fink",
		"fink_broker_version":  "3.1",
		"fink_science_version": "5.6",
		"candidate": map[string]interface{}{
			"jd":          jd,
			"fid":         int64(2),
			"candid":      int64(1234567890),
			"ra":          25.1,
			"dec":         -12.3,
			"magpsf":      18.5,
			"sigmapsf":    0.1,
			"ndethist":    int64(3),
			"jdstarthist": jd - 1,
		},
		"cdsxmatch":  "Unknown",
		"nalerthist": int64(3),
		"mangrove": map[string]interface{}{
			"HyperLEDA_name": "NGC0001",
			"2MASS_name":     "J0001",
			"lum_dist":       64.0,
			"ang_dist":       1.5,
		},
		"cutoutScience":    map[string]interface{}{"stampData": []byte{0x1f, 0x8b}},
		"cutoutTemplate":   map[string]interface{}{"stampData": []byte{0x1f, 0x8c}},
		"cutoutDifference": map[string]interface{}{"stampData": []byte{0x1f, 0x8d}},
	}
}

func testAlerts() core.Dataset {
	return dataset.NewMemory(source.ZTFAlertSchema(), []core.Record{
		testAlert("ZTF21aaxtctv", 2459458.75),
		testAlert("ZTF18aabccxu", 2459458.8),
	})
}

func TestClientPushLoad(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	if err := client.Push(ctx, testAlerts()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	for _, name := range []string{
		catalog.SideFileName(cfg.Table.Name),
		catalog.SchemaRowSideFileName(cfg.Table.Name),
	} {
		if _, err := os.Stat(filepath.Join(cfg.Table.CatalogFolder, name)); err != nil {
			t.Errorf("Expected side file %s: %v", name, err)
		}
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 2 {
		t.Fatalf("Expected 2 alerts back, got %d", loaded.Count())
	}

	rec := loaded.Collect()[0]
	if rec["objectId"] != "ZTF21aaxtctv" {
		t.Errorf("Unexpected first record: %v", rec["objectId"])
	}
	if rec["objectId_jd"] != "ZTF21aaxtctv_2459458.75" {
		t.Errorf("Unexpected row key: %v", rec["objectId_jd"])
	}
}

func TestClientCatalog(t *testing.T) {
	client, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	out, err := client.Catalog(testAlerts())
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}

	var decoded struct {
		Table struct {
			Namespace string `json:"namespace"`
			Name      string `json:"name"`
		} `json:"table"`
		RowKey  string                     `json:"rowkey"`
		Columns map[string]json.RawMessage `json:"columns"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Catalog output is not valid JSON: %v", err)
	}
	if decoded.Table.Name != "ztf.science" {
		t.Errorf("Unexpected table name: %s", decoded.Table.Name)
	}
	if decoded.RowKey != "objectId_jd" {
		t.Errorf("Unexpected rowkey: %s", decoded.RowKey)
	}
	for _, col := range []string{"objectId", "jd", "mangrove_lum_dist", "cutoutScience_stampData", "annotation"} {
		if _, ok := decoded.Columns[col]; !ok {
			t.Errorf("Expected catalog column %s", col)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(out), `"annotation":{"cf":"a","col":"","type":"string"}}}`) {
		t.Errorf("Expected annotation entry serialized last, got: %s", out)
	}
}

func TestClientToleratesSparseAlerts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	// A schema missing whole portal buckets still pushes: absent columns
	// are skipped, present ones keep their order.
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "candidate", Type: "struct", Fields: []core.Field{
			{Name: "jd", Type: "double"},
			{Name: "ra", Type: "double"},
		}},
		{Name: "cdsxmatch", Type: "string", Nullable: true},
	}
	records := []core.Record{
		{
			"objectId":  "ZTF19abc",
			"candidate": map[string]interface{}{"jd": 2459000.5, "ra": 10.0},
			"cdsxmatch": "SN candidate",
		},
	}

	if err := client.Push(ctx, dataset.NewMemory(schema, records)); err != nil {
		t.Fatalf("Push failed on sparse schema: %v", err)
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count() != 1 {
		t.Fatalf("Expected 1 alert, got %d", loaded.Count())
	}
	if got := loaded.Collect()[0]["objectId_jd"]; got != "ZTF19abc_2459000.5" {
		t.Errorf("Unexpected row key: %v", got)
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}
