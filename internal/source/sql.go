package source

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

// SQLConfig holds connection settings for the SQL alert source.
type SQLConfig struct {
	Host              string
	Port              int
	Database          string
	Username          string
	Password          string
	MaxOpenConns      int
	MaxIdleConns      int
	ConnMaxLifetime   time.Duration
	ConnectionTimeout time.Duration
}

// SQLSource loads flattened alert tables from a MySQL database into
// datasets, mapping SQL column types to the portal type names.
type SQLSource struct {
	db     *sql.DB
	closed bool
}

// NewSQLSource opens a connection pool to the database and verifies it.
func NewSQLSource(config SQLConfig) (*SQLSource, error) {
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 25
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 5
	}
	if config.ConnMaxLifetime <= 0 {
		config.ConnMaxLifetime = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=%s",
		config.Username, config.Password, config.Host, config.Port, config.Database, config.ConnectionTimeout)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLSource{db: db}, nil
}

// LoadTable reads all rows of a table into a dataset. The table must hold
// flattened alert data (no nested columns).
func (s *SQLSource) LoadTable(ctx context.Context, tableName string) (core.Dataset, error) {
	if s.closed {
		return nil, fmt.Errorf("source is closed")
	}
	if tableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	log.Printf("[MYSQL] Loading table %s", tableName)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", tableName, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	schema := make(core.Schema, len(columnTypes))
	for i, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		schema[i] = core.Field{
			Name:     ct.Name(),
			Type:     portalType(ct.DatabaseTypeName()),
			Nullable: nullable,
		}
	}

	records := make([]core.Record, 0)
	values := make([]interface{}, len(columnTypes))
	valuePtrs := make([]interface{}, len(columnTypes))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(core.Record, len(columnTypes))
		for i, field := range schema {
			rec[field.Name] = convertSQLValue(values[i], field.Type)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	log.Printf("[MYSQL] Loaded %d rows from table %s", len(records), tableName)

	return dataset.NewMemory(schema, records), nil
}

// Close closes the connection pool.
func (s *SQLSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// portalType maps a SQL column type name to the portal type vocabulary.
func portalType(sqlType string) string {
	base := strings.ToUpper(sqlType)
	if idx := strings.Index(base, "("); idx > 0 {
		base = base[:idx]
	}

	switch base {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER":
		return "integer"
	case "BIGINT":
		return "long"
	case "FLOAT":
		return "float"
	case "DOUBLE", "DOUBLE PRECISION", "REAL", "DECIMAL", "NUMERIC":
		return "double"
	case "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB":
		return "binary"
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return "timestamp"
	case "BOOLEAN", "BOOL":
		return "boolean"
	default:
		return "string"
	}
}

// convertSQLValue normalizes scanned driver values to the Go types the
// rest of the pipeline expects for the given portal type.
func convertSQLValue(value interface{}, typ string) interface{} {
	if value == nil {
		return nil
	}

	switch typ {
	case "binary":
		if v, ok := value.([]byte); ok {
			return v
		}
	case "string", "timestamp":
		switch v := value.(type) {
		case []byte:
			return string(v)
		case time.Time:
			return v.UTC().Format(time.RFC3339)
		}
	case "integer", "long":
		switch v := value.(type) {
		case int64:
			return v
		case []byte:
			return string(v)
		}
	case "float", "double":
		switch v := value.(type) {
		case float64:
			return v
		case []byte:
			return string(v)
		}
	case "boolean":
		if v, ok := value.(int64); ok {
			return v != 0
		}
	}

	return value
}
