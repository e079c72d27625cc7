package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Column family codes used by the science-portal tables.
const (
	// FamilyIdentity groups columns that identify the alert (original
	// alert payload).
	FamilyIdentity = "i"

	// FamilyValueAdded groups columns that further describe the alert
	// (added-value science fields).
	FamilyValueAdded = "d"

	// FamilyBinary groups binary blobs (gzipped FITS cutout images).
	FamilyBinary = "b"

	// FamilyRowKey is the reserved family of the row-key column.
	FamilyRowKey = "rowkey"

	// FamilyAnnotation is the reserved, always-present family for later
	// annotations. It carries no pre-declared qualifier.
	FamilyAnnotation = "a"
)

// AnnotationColumn is the name under which the reserved annotation entry
// appears in every catalog.
const AnnotationColumn = "annotation"

// DefaultNamespace is the store namespace used for all tables.
const DefaultNamespace = "default"

// TableRef identifies a table in the store.
type TableRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Entry maps one column onto the store: the column family it lives in, the
// qualifier under which it is stored, and its (normalized) type.
type Entry struct {
	Family    string `json:"cf"`
	Qualifier string `json:"col"`
	Type      string `json:"type"`
}

// NamedEntry is a catalog entry together with the column name it is keyed
// by. Entries are kept as an ordered slice rather than a map so that
// serialization is deterministic.
type NamedEntry struct {
	Name string
	Entry
}

// Catalog is the structured description consumed by the store connector:
// table identity, row-key column name, and one entry per column. Column
// order is schema order, with the annotation entry always last.
type Catalog struct {
	Table   TableRef
	RowKey  string
	Columns []NamedEntry
}

// Column returns the entry for the given column name, if present.
func (c *Catalog) Column(name string) (Entry, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col.Entry, true
		}
	}
	return Entry{}, false
}

// MarshalJSON serializes the catalog in a single pass, preserving column
// order. Compiling the same inputs twice therefore yields byte-identical
// output.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"table":`)
	table, err := json.Marshal(c.Table)
	if err != nil {
		return nil, err
	}
	buf.Write(table)

	buf.WriteString(`,"rowkey":`)
	rowkey, err := json.Marshal(c.RowKey)
	if err != nil {
		return nil, err
	}
	buf.Write(rowkey)

	buf.WriteString(`,"columns":{`)
	for i, col := range c.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		entry, err := json.Marshal(col.Entry)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteString(`}}`)

	return buf.Bytes(), nil
}

// JSON returns the serialized catalog as a string.
func (c *Catalog) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to serialize catalog for table %s: %w", c.Table.Name, err)
	}
	return string(data), nil
}

// Parse deserializes a catalog description, preserving column order.
func Parse(catalogJSON string) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(catalogJSON)))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	cat := &Catalog{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid catalog: unexpected token %v", keyTok)
		}

		switch key {
		case "table":
			if err := dec.Decode(&cat.Table); err != nil {
				return nil, fmt.Errorf("invalid catalog table: %w", err)
			}
		case "rowkey":
			if err := dec.Decode(&cat.RowKey); err != nil {
				return nil, fmt.Errorf("invalid catalog rowkey: %w", err)
			}
		case "columns":
			if err := expectDelim(dec, '{'); err != nil {
				return nil, fmt.Errorf("invalid catalog columns: %w", err)
			}
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("invalid catalog columns: %w", err)
				}
				name, ok := nameTok.(string)
				if !ok {
					return nil, fmt.Errorf("invalid catalog columns: unexpected token %v", nameTok)
				}
				var entry Entry
				if err := dec.Decode(&entry); err != nil {
					return nil, fmt.Errorf("invalid catalog entry %s: %w", name, err)
				}
				cat.Columns = append(cat.Columns, NamedEntry{Name: name, Entry: entry})
			}
			if err := expectDelim(dec, '}'); err != nil {
				return nil, fmt.Errorf("invalid catalog columns: %w", err)
			}
		default:
			// Skip unknown sections for forward compatibility.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("invalid catalog: %w", err)
			}
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	if cat.Table.Name == "" {
		return nil, fmt.Errorf("invalid catalog: table name is empty")
	}
	if cat.RowKey == "" {
		return nil, fmt.Errorf("invalid catalog: rowkey is empty")
	}

	return cat, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("unexpected end of input")
		}
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
