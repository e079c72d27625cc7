package selection

import (
	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/core"
)

// Logger receives diagnostics about columns that failed to resolve.
// The stdlib *log.Logger satisfies it; a nil logger disables reporting.
type Logger interface {
	Printf(format string, v ...interface{})
}

// SelectRelevantColumns projects df onto the subset of cols that actually
// resolve against it. Columns that do not resolve are collected into the
// missing list and excluded from the projection without failing: a desired
// column absent from an older or newer alert batch must not abort the
// pipeline. The toCreate expressions are appended verbatim after all
// resolved columns.
func SelectRelevantColumns(df core.Dataset, cols []core.ColumnExpr, toCreate []core.ColumnExpr, logger Logger) (core.Dataset, []string, error) {
	resolved := make([]core.ColumnExpr, 0, len(cols)+len(toCreate))
	missing := make([]string, 0)

	for _, col := range cols {
		// Dumb but simple: a one-column trial select tells us whether
		// the expression resolves.
		if _, err := df.Select([]core.ColumnExpr{col}); err != nil {
			missing = append(missing, col.Path)
			continue
		}
		resolved = append(resolved, col)
	}

	resolved = append(resolved, toCreate...)

	projected, err := df.Select(resolved)
	if err != nil {
		return nil, nil, err
	}

	if logger != nil {
		logger.Printf("[SELECT] Missing columns detected in the dataset: %v", missing)
	}

	return projected, missing, nil
}

// AssignFamilyNames tags every resolved column of the three buckets with
// its column family code. The buckets are applied in order identity, then
// value-added, then binary; a name appearing in more than one bucket keeps
// the family applied last. This override order is a compatibility contract
// for existing tables and must not change.
func AssignFamilyNames(df core.Dataset, identity, valueAdded, binary []core.ColumnExpr) map[string]string {
	cf := make(map[string]string)
	assignFamily(df, identity, catalog.FamilyIdentity, cf)
	assignFamily(df, valueAdded, catalog.FamilyValueAdded, cf)
	assignFamily(df, binary, catalog.FamilyBinary, cf)
	return cf
}

func assignFamily(df core.Dataset, exprs []core.ColumnExpr, family string, cf map[string]string) {
	for _, expr := range exprs {
		sub, err := df.Select([]core.ColumnExpr{expr})
		if err != nil {
			// Unresolved names are ignored here, the same tolerance as
			// SelectRelevantColumns. A wildcard expands to several
			// columns, so the resolved output names are read back from
			// the trial select.
			continue
		}
		for _, name := range sub.Columns() {
			cf[name] = family
		}
	}
}
