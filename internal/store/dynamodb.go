package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
	"github.com/marcol480/fink-broker/internal/schemarow"
)

// rowKeyAttribute is the fixed partition-key attribute of every table.
// The catalog's row-key column name varies per catalog (data rows and
// schema rows use different key columns in the same table), so the key
// value is always stored under this one attribute and restored into the
// catalog's row-key column on Load.
const rowKeyAttribute = "rowkey"

// DynamoDBStore implements the core.Store interface using AWS DynamoDB as
// the wide-column store. Each catalog column is stored as an attribute
// named family:qualifier.
type DynamoDBStore struct {
	client *dynamodb.Client
	closed bool
}

// NewDynamoDBStore creates a new DynamoDB store connection.
func NewDynamoDBStore(region, endpoint, accessKeyID, secretAccessKey string) (*DynamoDBStore, error) {
	if region == "" {
		return nil, fmt.Errorf("region is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override credentials if provided
	if accessKeyID != "" && secretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")
	}

	clientOptions := []func(*dynamodb.Options){}
	if endpoint != "" {
		// Custom endpoint (e.g., for LocalStack)
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &DynamoDBStore{
		client: dynamodb.NewFromConfig(cfg, clientOptions...),
	}, nil
}

// Write pushes records to the table named by the catalog, creating the
// table first if it does not exist. newTableRegions is logged as advisory:
// partition pre-splitting is managed by the service.
func (d *DynamoDBStore) Write(ctx context.Context, records []core.Record, catalogJSON string, newTableRegions int) error {
	if d.closed {
		return fmt.Errorf("store is closed")
	}

	cat, err := catalog.Parse(catalogJSON)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := d.ensureTable(ctx, cat.Table.Name, newTableRegions); err != nil {
		return err
	}

	log.Printf("[DYNAMODB] Writing %d records to table %s", len(records), cat.Table.Name)

	// BatchWriteItem can handle up to 25 items per request
	const maxBatchSize = 25
	writeRequests := make([]types.WriteRequest, 0, maxBatchSize)

	flush := func() error {
		if len(writeRequests) == 0 {
			return nil
		}
		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				cat.Table.Name: writeRequests,
			},
		}
		out, err := d.client.BatchWriteItem(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to batch write to table %s: %w", cat.Table.Name, err)
		}
		// Retry unprocessed items once before giving up.
		if unprocessed := out.UnprocessedItems[cat.Table.Name]; len(unprocessed) > 0 {
			log.Printf("[DYNAMODB] Retrying %d unprocessed items for table %s", len(unprocessed), cat.Table.Name)
			retry := &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{cat.Table.Name: unprocessed},
			}
			out, err = d.client.BatchWriteItem(ctx, retry)
			if err != nil {
				return fmt.Errorf("failed to retry batch write to table %s: %w", cat.Table.Name, err)
			}
			if len(out.UnprocessedItems[cat.Table.Name]) > 0 {
				return fmt.Errorf("table %s left %d items unprocessed", cat.Table.Name, len(out.UnprocessedItems[cat.Table.Name]))
			}
		}
		writeRequests = writeRequests[:0]
		return nil
	}

	for _, rec := range records {
		item, err := d.encodeItem(rec, cat)
		if err != nil {
			return err
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
		if len(writeRequests) == maxBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Printf("[DYNAMODB] Successfully wrote %d records to table %s", len(records), cat.Table.Name)
	return nil
}

// Load scans the table described by the catalog and returns all data
// rows, excluding rows in the reserved schema-row key namespace. The row
// key is restored into the record under rowKeyName.
func (d *DynamoDBStore) Load(ctx context.Context, catalogJSON string, rowKeyName string) ([]core.Record, error) {
	if d.closed {
		return nil, fmt.Errorf("store is closed")
	}

	cat, err := catalog.Parse(catalogJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	log.Printf("[DYNAMODB] Scanning table %s (rowkey: %s)", cat.Table.Name, rowKeyName)

	records := make([]core.Record, 0)
	var startKey map[string]types.AttributeValue
	for {
		out, err := d.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(cat.Table.Name),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", cat.Table.Name, err)
		}

		for _, item := range out.Items {
			key, ok := item[rowKeyAttribute].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if schemarow.IsSchemaKey(key.Value) {
				continue
			}
			rec, err := d.decodeItem(item, cat, rowKeyName)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	log.Printf("[DYNAMODB] Loaded %d data rows from table %s", len(records), cat.Table.Name)
	return records, nil
}

// Close closes the connection to the store.
func (d *DynamoDBStore) Close() error {
	// The DynamoDB client has no explicit shutdown; mark as closed.
	d.closed = true
	return nil
}

// ensureTable creates the table if it does not exist and waits for it to
// become active.
func (d *DynamoDBStore) ensureTable(ctx context.Context, tableName string, newTableRegions int) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", tableName, err)
	}

	log.Printf("[DYNAMODB] Table %s does not exist, creating it (region hint %d is advisory, partitioning is managed by the service)",
		tableName, newTableRegions)

	_, err = d.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(rowKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(rowKeyAttribute), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(d.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("table %s did not become active: %w", tableName, err)
	}

	return nil
}

// encodeItem converts a record into a DynamoDB item following the catalog
// layout: the row key goes under the fixed key attribute, every other
// column under family:qualifier.
func (d *DynamoDBStore) encodeItem(rec core.Record, cat *catalog.Catalog) (map[string]types.AttributeValue, error) {
	keyValue, ok := rec[cat.RowKey]
	if !ok {
		return nil, fmt.Errorf("record has no row-key column %s", cat.RowKey)
	}

	item := map[string]types.AttributeValue{
		rowKeyAttribute: &types.AttributeValueMemberS{Value: dataset.CanonicalString(keyValue)},
	}

	for _, col := range cat.Columns {
		if col.Name == cat.RowKey || col.Name == catalog.AnnotationColumn {
			continue
		}
		value, exists := rec[col.Name]
		if !exists || value == nil {
			continue
		}
		attr, err := encodeAttribute(value, col.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %s: %w", col.Name, err)
		}
		item[col.Family+":"+col.Qualifier] = attr
	}

	return item, nil
}

// decodeItem converts a DynamoDB item back into a record using the catalog
// layout.
func (d *DynamoDBStore) decodeItem(item map[string]types.AttributeValue, cat *catalog.Catalog, rowKeyName string) (core.Record, error) {
	rec := make(core.Record, len(cat.Columns))

	if key, ok := item[rowKeyAttribute].(*types.AttributeValueMemberS); ok {
		rec[rowKeyName] = key.Value
	}

	for _, col := range cat.Columns {
		if col.Name == cat.RowKey || col.Name == catalog.AnnotationColumn {
			continue
		}
		attr, exists := item[col.Family+":"+col.Qualifier]
		if !exists {
			continue
		}
		value, err := decodeAttribute(attr, col.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to decode column %s: %w", col.Name, err)
		}
		rec[col.Name] = value
	}

	return rec, nil
}

// encodeAttribute maps a column value to a DynamoDB attribute based on its
// catalog type.
func encodeAttribute(value interface{}, typ string) (types.AttributeValue, error) {
	switch typ {
	case "binary":
		switch v := value.(type) {
		case []byte:
			return &types.AttributeValueMemberB{Value: v}, nil
		case string:
			return &types.AttributeValueMemberB{Value: []byte(v)}, nil
		default:
			return nil, fmt.Errorf("cannot encode %T as binary", value)
		}
	case "boolean":
		if v, ok := value.(bool); ok {
			return &types.AttributeValueMemberBOOL{Value: v}, nil
		}
		return nil, fmt.Errorf("cannot encode %T as boolean", value)
	case "integer", "int", "long", "bigint", "smallint", "float", "double":
		return &types.AttributeValueMemberN{Value: dataset.CanonicalString(value)}, nil
	default:
		return &types.AttributeValueMemberS{Value: dataset.CanonicalString(value)}, nil
	}
}

// decodeAttribute maps a DynamoDB attribute back to a column value based
// on its catalog type.
func decodeAttribute(attr types.AttributeValue, typ string) (interface{}, error) {
	switch v := attr.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		switch typ {
		case "integer", "int", "long", "bigint", "smallint":
			n, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as %s", v.Value, typ)
			}
			return n, nil
		default:
			f, err := strconv.ParseFloat(v.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as %s", v.Value, typ)
			}
			return f, nil
		}
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", attr)
	}
}

// DynamoDBStoreFactory implements the Factory interface for DynamoDB.
type DynamoDBStoreFactory struct{}

// Type returns the type identifier for this factory.
func (f *DynamoDBStoreFactory) Type() string {
	return "dynamodb"
}

// Validate validates the DynamoDB-specific configuration.
func (f *DynamoDBStoreFactory) Validate(config Config) error {
	if config.Type != "dynamodb" {
		return fmt.Errorf("invalid type for DynamoDB factory: %s", config.Type)
	}
	if config.Region == "" {
		return fmt.Errorf("region is required for DynamoDB")
	}
	return nil
}

// Create creates a new DynamoDB store instance.
func (f *DynamoDBStoreFactory) Create(config Config) (core.Store, error) {
	s, err := NewDynamoDBStore(config.Region, config.Endpoint, config.AccessKeyID, config.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB store: %w", err)
	}
	return s, nil
}

func init() {
	RegisterFactory(&DynamoDBStoreFactory{})
}
