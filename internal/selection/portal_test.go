package selection

import (
	"testing"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

func TestSciencePortalColumnsBuckets(t *testing.T) {
	identity, valueAdded, binary := SciencePortalColumns()

	names := func(exprs []core.ColumnExpr) map[string]bool {
		out := make(map[string]bool, len(exprs))
		for _, e := range exprs {
			out[e.Name()] = true
		}
		return out
	}

	id := names(identity)
	if !id["objectId"] {
		t.Error("Expected objectId in the identity bucket")
	}

	va := names(valueAdded)
	for _, name := range []string{
		"cdsxmatch",
		"mangrove_HyperLEDA_name",
		"mangrove_lum_dist",
		"t2_SNIa",
		"t2_KN",
		"t2_mu-lens-single",
	} {
		if !va[name] {
			t.Errorf("Expected %s in the value-added bucket", name)
		}
	}

	bin := names(binary)
	for _, name := range []string{"cutoutScience_stampData", "cutoutTemplate_stampData", "cutoutDifference_stampData"} {
		if !bin[name] {
			t.Errorf("Expected %s in the binary bucket", name)
		}
	}
}

func TestSciencePortalClassifierColumns(t *testing.T) {
	schema := core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "mangrove", Type: "struct", Nullable: true, Fields: []core.Field{
			{Name: "lum_dist", Type: "double", Nullable: true},
		}},
		{Name: "t2", Type: "struct", Nullable: true, Fields: []core.Field{
			{Name: "SNIa", Type: "double", Nullable: true},
			{Name: "KN", Type: "double", Nullable: true},
		}},
	}
	df := dataset.NewMemory(schema, []core.Record{
		{
			"objectId": "ZTF19abc",
			"mangrove": map[string]interface{}{"lum_dist": 64.0},
			"t2":       map[string]interface{}{"SNIa": 0.92, "KN": 0.01},
		},
	})

	identity, valueAdded, binary := SciencePortalColumns()
	cf := AssignFamilyNames(df, identity, valueAdded, binary)

	if cf["objectId"] != "i" {
		t.Errorf("Expected family i for objectId, got %s", cf["objectId"])
	}
	for _, name := range []string{"mangrove_lum_dist", "t2_SNIa", "t2_KN"} {
		if cf[name] != "d" {
			t.Errorf("Expected family d for %s, got %s", name, cf[name])
		}
	}

	desired := append(append(identity, valueAdded...), binary...)
	projected, _, err := SelectRelevantColumns(df, desired, nil, nil)
	if err != nil {
		t.Fatalf("SelectRelevantColumns failed: %v", err)
	}
	if got := projected.Collect()[0]["t2_SNIa"]; got != 0.92 {
		t.Errorf("Expected t2_SNIa value 0.92, got %v", got)
	}
}
