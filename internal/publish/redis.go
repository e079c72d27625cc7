package publish

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the Redis catalog publisher.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// RedisPublisher publishes catalogs to Redis so portal readers can fetch
// the live catalog of a table without reading side files.
type RedisPublisher struct {
	client    *redis.Client
	keyPrefix string
	closed    bool
}

// NewRedisPublisher creates a Redis publisher and verifies the connection.
func NewRedisPublisher(config RedisConfig) (*RedisPublisher, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "sciencedb"
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{
		client:    client,
		keyPrefix: config.KeyPrefix,
	}, nil
}

// Publish stores both catalogs without expiry. A new push for the same
// table supersedes the previous catalogs.
func (p *RedisPublisher) Publish(ctx context.Context, tableName, dataCatalog, schemaRowCatalog string) error {
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	dataKey := fmt.Sprintf("%s:%s:catalog", p.keyPrefix, tableName)
	if err := p.client.Set(ctx, dataKey, dataCatalog, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish catalog for table %s: %w", tableName, err)
	}

	schemaKey := fmt.Sprintf("%s:%s:catalog:schema_row", p.keyPrefix, tableName)
	if err := p.client.Set(ctx, schemaKey, schemaRowCatalog, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish schema-row catalog for table %s: %w", tableName, err)
	}

	log.Printf("[REDIS] Published catalogs for table %s under %s", tableName, dataKey)
	return nil
}

// Catalog fetches the published data catalog of a table.
func (p *RedisPublisher) Catalog(ctx context.Context, tableName string) (string, error) {
	if p.closed {
		return "", fmt.Errorf("publisher is closed")
	}

	key := fmt.Sprintf("%s:%s:catalog", p.keyPrefix, tableName)
	val, err := p.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("no catalog published for table %s", tableName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch catalog for table %s: %w", tableName, err)
	}
	return val, nil
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.client.Close()
}
