// Package sciencedb is the public entry point of the science-portal store
// pipeline: it wires configuration to a store backend and runs the full
// push pipeline (column selection, family assignment, row-key
// construction, catalog compilation, store writes) on raw alert datasets.
package sciencedb

import (
	"context"
	"fmt"
	"log"

	"github.com/marcol480/fink-broker/internal/catalog"
	"github.com/marcol480/fink-broker/internal/config"
	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/publish"
	"github.com/marcol480/fink-broker/internal/selection"
	"github.com/marcol480/fink-broker/internal/store"
	"github.com/marcol480/fink-broker/internal/writer"
)

// Client pushes alert datasets to the science-portal table and reads them
// back.
type Client struct {
	config    *config.Config
	store     core.Store
	writer    *writer.Writer
	publisher publish.Publisher
	logger    selection.Logger
}

// NewClient builds a client from configuration: store backend via the
// factory registry, optional Redis catalog publisher, and the writer.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	st, err := store.Create(store.Config{
		Type:            cfg.Store.Type,
		Region:          cfg.Store.Region,
		Endpoint:        cfg.Store.Endpoint,
		AccessKeyID:     cfg.Store.AccessKeyID,
		SecretAccessKey: cfg.Store.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	var publisher publish.Publisher = publish.NopPublisher{}
	if cfg.Publish.Enabled {
		publisher, err = publish.NewRedisPublisher(publish.RedisConfig{
			Addr:      cfg.Publish.Addr,
			Password:  cfg.Publish.Password,
			DB:        cfg.Publish.DB,
			KeyPrefix: cfg.Publish.KeyPrefix,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("creating catalog publisher: %w", err)
		}
	}

	w, err := writer.New(st, writer.Config{
		TableName:      cfg.Table.Name,
		CatalogFolder:  cfg.Table.CatalogFolder,
		Regions:        cfg.Table.Regions,
		RowsPerSecond:  cfg.Table.RowsPerSecond,
		BatchSize:      cfg.Table.BatchSize,
		BrokerVersion:  cfg.Versions.Broker,
		ScienceVersion: cfg.Versions.Science,
		Publisher:      publisher,
	})
	if err != nil {
		publisher.Close()
		st.Close()
		return nil, fmt.Errorf("creating writer: %w", err)
	}

	return &Client{
		config:    cfg,
		store:     st,
		writer:    w,
		publisher: publisher,
		logger:    log.Default(),
	}, nil
}

// Push runs the full pipeline on a raw alert dataset: classify columns
// against the science-portal buckets, project, attach the row key, and
// push data rows plus the schema row with their catalogs.
func (c *Client) Push(ctx context.Context, df core.Dataset) error {
	keyed, keyName, cf, err := c.prepare(df)
	if err != nil {
		return err
	}

	return c.writer.Push(ctx, keyed, keyName, cf)
}

// Catalog compiles and returns the data catalog that Push would use for
// the given dataset, without writing anything.
func (c *Client) Catalog(df core.Dataset) (string, error) {
	keyed, keyName, cf, err := c.prepare(df)
	if err != nil {
		return "", err
	}

	return catalog.CompileJSON(keyed.Schema(), c.config.Table.Name, keyName, cf)
}

// Load reads the table's data rows through the persisted catalog.
func (c *Client) Load(ctx context.Context) (core.Dataset, error) {
	return c.writer.Load(ctx)
}

// Close releases the store and publisher connections.
func (c *Client) Close() error {
	pubErr := c.publisher.Close()
	if err := c.store.Close(); err != nil {
		return err
	}
	return pubErr
}

// prepare runs classification, projection, and row-key attachment.
func (c *Client) prepare(df core.Dataset) (keyed core.Dataset, keyName string, cf map[string]string, err error) {
	identity, valueAdded, binary := selection.SciencePortalColumns()

	cf = selection.AssignFamilyNames(df, identity, valueAdded, binary)

	desired := make([]core.ColumnExpr, 0, len(identity)+len(valueAdded)+len(binary))
	desired = append(desired, identity...)
	desired = append(desired, valueAdded...)
	desired = append(desired, binary...)

	projected, _, err := selection.SelectRelevantColumns(df, desired, nil, c.logger)
	if err != nil {
		return nil, "", nil, fmt.Errorf("selecting portal columns: %w", err)
	}

	keyed, keyName, err = selection.AttachRowKey(projected)
	if err != nil {
		return nil, "", nil, fmt.Errorf("attaching row key: %w", err)
	}

	return keyed, keyName, cf, nil
}
