package catalog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// SideFileName returns the name of the on-disk catalog file for a table's
// data rows.
func SideFileName(tableName string) string {
	return tableName + ".json"
}

// SchemaRowSideFileName returns the name of the on-disk catalog file for a
// table's schema row.
func SchemaRowSideFileName(tableName string) string {
	return tableName + "_schema_row.json"
}

// WriteSideFile persists a serialized catalog to folder/name. The folder
// must exist.
func WriteSideFile(catalogJSON, folder, name string) error {
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(catalogJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file %s: %w", path, err)
	}
	log.Printf("[CATALOG] Wrote catalog to %s (%d bytes)", path, len(catalogJSON))
	return nil
}

// ReadSideFile loads a serialized catalog from disk.
func ReadSideFile(folder, name string) (string, error) {
	path := filepath.Join(folder, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return string(data), nil
}
