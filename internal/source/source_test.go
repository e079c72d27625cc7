package source

import (
	"testing"
	"time"
)

func TestZTFAlertSchemaShape(t *testing.T) {
	schema := ZTFAlertSchema()

	candidate, ok := schema.FieldByName("candidate")
	if !ok {
		t.Fatal("Expected candidate struct in alert schema")
	}
	if candidate.Type != "struct" || len(candidate.Fields) == 0 {
		t.Errorf("Expected candidate to be a populated struct, got %+v", candidate)
	}

	for _, name := range []string{"cutoutScience", "cutoutTemplate", "cutoutDifference"} {
		cutout, ok := schema.FieldByName(name)
		if !ok {
			t.Errorf("Expected %s in alert schema", name)
			continue
		}
		stamp := cutout.Fields[0]
		if stamp.Name != "stampData" || stamp.Type != "binary" {
			t.Errorf("Expected %s.stampData to be binary, got %+v", name, stamp)
		}
	}

	if first := schema[0]; first.Name != "objectId" {
		t.Errorf("Expected objectId first, got %s", first.Name)
	}
}

func TestPortalType(t *testing.T) {
	tests := []struct {
		sqlType string
		want    string
	}{
		{"VARCHAR(255)", "string"},
		{"TEXT", "string"},
		{"INT", "integer"},
		{"TINYINT(1)", "integer"},
		{"BIGINT", "long"},
		{"FLOAT", "float"},
		{"DOUBLE", "double"},
		{"DECIMAL(10,2)", "double"},
		{"BLOB", "binary"},
		{"DATETIME", "timestamp"},
		{"BOOL", "boolean"},
		{"ENUM('a','b')", "string"},
	}

	for _, tt := range tests {
		if got := portalType(tt.sqlType); got != tt.want {
			t.Errorf("portalType(%q) = %q, want %q", tt.sqlType, got, tt.want)
		}
	}
}

func TestConvertSQLValue(t *testing.T) {
	ts := time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value interface{}
		typ   string
		want  interface{}
	}{
		{"nil passes through", nil, "string", nil},
		{"bytes to string", []byte("ZTF21aaxtctv"), "string", "ZTF21aaxtctv"},
		{"time to RFC3339", ts, "timestamp", "2021-09-01T12:00:00Z"},
		{"int64 kept", int64(42), "integer", int64(42)},
		{"float64 kept", 2459458.75, "double", 2459458.75},
		{"boolean from int", int64(1), "boolean", true},
		{"boolean false", int64(0), "boolean", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertSQLValue(tt.value, tt.typ); got != tt.want {
				t.Errorf("convertSQLValue(%v, %s) = %v, want %v", tt.value, tt.typ, got, tt.want)
			}
		})
	}

	blob := convertSQLValue([]byte{0x1f, 0x8b}, "binary")
	if b, ok := blob.([]byte); !ok || len(b) != 2 {
		t.Errorf("Expected binary bytes preserved, got %v", blob)
	}
}
