package source

import "github.com/marcol480/fink-broker/internal/core"

// ZTFAlertSchema returns the declared schema of processed ZTF alerts as
// consumed from the topic: the original alert payload (identity fields,
// the candidate struct, cutout images) plus the added-value science
// fields attached upstream.
func ZTFAlertSchema() core.Schema {
	cutout := []core.Field{
		{Name: "stampData", Type: "binary", Nullable: true},
		{Name: "fileName", Type: "string", Nullable: true},
	}

	return core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "schemavsn", Type: "string"},
		{Name: "publisher", Type: "string"},
		{Name: "fink_broker_version", Type: "string"},
		{Name: "fink_science_version", Type: "string"},
		{Name: "candidate", Type: "struct", Fields: []core.Field{
			{Name: "jd", Type: "double"},
			{Name: "fid", Type: "integer"},
			{Name: "candid", Type: "long"},
			{Name: "ra", Type: "double"},
			{Name: "dec", Type: "double"},
			{Name: "magpsf", Type: "float"},
			{Name: "sigmapsf", Type: "float"},
			{Name: "magnr", Type: "float", Nullable: true},
			{Name: "sigmagnr", Type: "float", Nullable: true},
			{Name: "magzpsci", Type: "float", Nullable: true},
			{Name: "isdiffpos", Type: "string", Nullable: true},
			{Name: "classtar", Type: "float", Nullable: true},
			{Name: "drb", Type: "float", Nullable: true},
			{Name: "ndethist", Type: "integer"},
			{Name: "jdstarthist", Type: "double", Nullable: true},
		}},
		{Name: "cdsxmatch", Type: "string", Nullable: true},
		{Name: "rf_snia_vs_nonia", Type: "double", Nullable: true},
		{Name: "snn_snia_vs_nonia", Type: "double", Nullable: true},
		{Name: "snn_sn_vs_all", Type: "double", Nullable: true},
		{Name: "mulens", Type: "double", Nullable: true},
		{Name: "roid", Type: "integer", Nullable: true},
		{Name: "nalerthist", Type: "integer", Nullable: true},
		{Name: "rf_kn_vs_nonkn", Type: "double", Nullable: true},
		{Name: "tracklet", Type: "string", Nullable: true},
		{Name: "DR3Name", Type: "string", Nullable: true},
		{Name: "Plx", Type: "double", Nullable: true},
		{Name: "e_Plx", Type: "double", Nullable: true},
		{Name: "gcvs", Type: "string", Nullable: true},
		{Name: "vsx", Type: "string", Nullable: true},
		{Name: "x4lac", Type: "string", Nullable: true},
		{Name: "x3hsp", Type: "string", Nullable: true},
		{Name: "anomaly_score", Type: "double", Nullable: true},
		{Name: "mangrove", Type: "struct", Nullable: true, Fields: []core.Field{
			{Name: "HyperLEDA_name", Type: "string", Nullable: true},
			{Name: "2MASS_name", Type: "string", Nullable: true},
			{Name: "lum_dist", Type: "double", Nullable: true},
			{Name: "ang_dist", Type: "double", Nullable: true},
		}},
		{Name: "t2", Type: "struct", Nullable: true, Fields: []core.Field{
			{Name: "AGN", Type: "double", Nullable: true},
			{Name: "EB", Type: "double", Nullable: true},
			{Name: "KN", Type: "double", Nullable: true},
			{Name: "M-dwarf", Type: "double", Nullable: true},
			{Name: "Mira", Type: "double", Nullable: true},
			{Name: "RRL", Type: "double", Nullable: true},
			{Name: "SLSN-I", Type: "double", Nullable: true},
			{Name: "SNII", Type: "double", Nullable: true},
			{Name: "SNIa", Type: "double", Nullable: true},
			{Name: "SNIa-91bg", Type: "double", Nullable: true},
			{Name: "SNIax", Type: "double", Nullable: true},
			{Name: "SNIbc", Type: "double", Nullable: true},
			{Name: "TDE", Type: "double", Nullable: true},
			{Name: "mu-lens-single", Type: "double", Nullable: true},
		}},
		{Name: "cutoutScience", Type: "struct", Nullable: true, Fields: cutout},
		{Name: "cutoutTemplate", Type: "struct", Nullable: true, Fields: cutout},
		{Name: "cutoutDifference", Type: "struct", Nullable: true, Fields: cutout},
	}
}
