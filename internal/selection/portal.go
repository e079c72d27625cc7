package selection

import (
	"github.com/marcol480/fink-broker/internal/core"
)

// mangroveColumns are the sub-fields of the mangrove crossmatch struct
// exposed in the science portal, aliased to mangrove_<field>.
var mangroveColumns = []string{
	"HyperLEDA_name",
	"2MASS_name",
	"lum_dist",
	"ang_dist",
}

// t2Columns are the per-class scores of the T2 transient classifier,
// aliased to t2_<class>. The list tracks the classifier's output classes;
// classes absent from a given batch are skipped like any missing column.
var t2Columns = []string{
	"AGN",
	"EB",
	"KN",
	"M-dwarf",
	"Mira",
	"RRL",
	"SLSN-I",
	"SNII",
	"SNIa",
	"SNIa-91bg",
	"SNIax",
	"SNIbc",
	"TDE",
	"mu-lens-single",
}

// SciencePortalColumns returns the alert fields used in the science
// portal, grouped by column family bucket. These names must match dataset
// column names; changing them changes the structure of the portal table.
//
// The buckets are:
//   - identity: columns that identify the alert (original alert payload)
//   - valueAdded: columns that further describe the alert (added science)
//   - binary: binary blobs (gzipped FITS cutout images)
func SciencePortalColumns() (identity, valueAdded, binary []core.ColumnExpr) {
	identity = core.Cols(
		"objectId",
		"schemavsn",
		"publisher",
		"fink_broker_version",
		"fink_science_version",
		"candidate.*",
	)

	valueAdded = core.Cols(
		"cdsxmatch",
		"rf_snia_vs_nonia",
		"snn_snia_vs_nonia",
		"snn_sn_vs_all",
		"mulens",
		"roid",
		"nalerthist",
		"rf_kn_vs_nonkn",
		"tracklet",
		"DR3Name",
		"Plx",
		"e_Plx",
		"gcvs",
		"vsx",
		"x4lac",
		"x3hsp",
		"anomaly_score",
	)
	for _, name := range mangroveColumns {
		valueAdded = append(valueAdded, core.Col("mangrove."+name).As("mangrove_"+name))
	}
	for _, name := range t2Columns {
		valueAdded = append(valueAdded, core.Col("t2."+name).As("t2_"+name))
	}

	binary = []core.ColumnExpr{
		core.Col("cutoutScience.stampData").As("cutoutScience_stampData"),
		core.Col("cutoutTemplate.stampData").As("cutoutTemplate_stampData"),
		core.Col("cutoutDifference.stampData").As("cutoutDifference_stampData"),
	}

	return identity, valueAdded, binary
}
