package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

var (
	// ErrMissingKeyColumn is returned when a row-key source column is
	// absent from the dataset. Row identity cannot be constructed and the
	// batch must abort.
	ErrMissingKeyColumn = errors.New("row-key column missing from dataset")
)

// RowKeySeparator joins the string forms of the row-key source columns.
const RowKeySeparator = "_"

// RowKeyColumns returns the columns used to build the row key, in order.
// Be careful changing this: columns of an existing table can be replaced,
// but keys cannot. Changing the key design requires copying the table into
// a new one.
func RowKeyColumns() []string {
	return []string{
		"objectId",
		"jd",
	}
}

// AttachRowKey appends the row-key column to a flattened dataset. The key
// value is the separator-joined canonical string form of the row-key
// source columns, and the key column name is the underscore-joined source
// column names (objectId_jd). Source columns are kept.
func AttachRowKey(df core.Dataset) (core.Dataset, string, error) {
	keyCols := RowKeyColumns()
	keyName := strings.Join(keyCols, "_")

	columns := make(map[string]bool, len(df.Columns()))
	for _, name := range df.Columns() {
		columns[name] = true
	}
	for _, name := range keyCols {
		if !columns[name] {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingKeyColumn, name)
		}
	}

	records := df.Collect()
	values := make([]interface{}, len(records))
	parts := make([]string, len(keyCols))
	for i, rec := range records {
		for j, name := range keyCols {
			parts[j] = dataset.CanonicalString(rec[name])
		}
		values[i] = strings.Join(parts, RowKeySeparator)
	}

	keyed, err := df.WithColumn(core.Field{Name: keyName, Type: "string"}, values)
	if err != nil {
		return nil, "", fmt.Errorf("failed to attach row key %s: %w", keyName, err)
	}

	return keyed, keyName, nil
}
