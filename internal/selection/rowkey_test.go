package selection

import (
	"errors"
	"testing"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

func TestAttachRowKey(t *testing.T) {
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "jd", Type: "double"},
	}
	df := dataset.NewMemory(schema, []core.Record{
		{"objectId": "ZTF18abc", "jd": 2458849.5},
	})

	keyed, keyName, err := AttachRowKey(df)
	if err != nil {
		t.Fatalf("AttachRowKey failed: %v", err)
	}

	if keyName != "objectId_jd" {
		t.Errorf("Expected key name objectId_jd, got %s", keyName)
	}

	rec := keyed.Collect()[0]
	if rec["objectId_jd"] != "ZTF18abc_2458849.5" {
		t.Errorf("Expected key ZTF18abc_2458849.5, got %v", rec["objectId_jd"])
	}

	// Source columns are kept.
	if rec["objectId"] != "ZTF18abc" || rec["jd"] != 2458849.5 {
		t.Errorf("Source columns were modified: %v", rec)
	}

	field, ok := keyed.Schema().FieldByName(keyName)
	if !ok || field.Type != "string" {
		t.Errorf("Expected string key column, got %+v", field)
	}
}

func TestAttachRowKeyMissingColumn(t *testing.T) {
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
	}
	df := dataset.NewMemory(schema, []core.Record{{"objectId": "ZTF18abc"}})

	_, _, err := AttachRowKey(df)
	if !errors.Is(err, ErrMissingKeyColumn) {
		t.Errorf("Expected ErrMissingKeyColumn, got: %v", err)
	}
}

func TestAttachRowKeyStableFormatting(t *testing.T) {
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "jd", Type: "double"},
	}
	df := dataset.NewMemory(schema, []core.Record{
		{"objectId": "ZTF19xyz", "jd": float64(2458850)},
	})

	keyed, _, err := AttachRowKey(df)
	if err != nil {
		t.Fatalf("AttachRowKey failed: %v", err)
	}

	// Whole-valued doubles must not grow an exponent or a trailing ".0".
	if got := keyed.Collect()[0]["objectId_jd"]; got != "ZTF19xyz_2458850" {
		t.Errorf("Expected ZTF19xyz_2458850, got %v", got)
	}
}
