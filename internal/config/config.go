package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the science-portal
// store pipeline.
type Config struct {
	Table    TableConfig    `yaml:"table"`
	Store    StoreConfig    `yaml:"store"`
	Source   SourceConfig   `yaml:"source"`
	Publish  PublishConfig  `yaml:"publish"`
	Versions VersionsConfig `yaml:"versions"`
}

// TableConfig names the target table and controls the write path.
type TableConfig struct {
	Name          string `yaml:"name"`
	CatalogFolder string `yaml:"catalog_folder"`
	Regions       int    `yaml:"regions"`
	RowsPerSecond int    `yaml:"rows_per_second"`
	BatchSize     int    `yaml:"batch_size"`
}

// StoreConfig selects and configures the store backend.
type StoreConfig struct {
	Type            string `yaml:"type"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// SourceConfig selects and configures where alert data is read from.
type SourceConfig struct {
	Type  string      `yaml:"type"` // "kafka" or "mysql"
	Kafka KafkaConfig `yaml:"kafka"`
	MySQL MySQLConfig `yaml:"mysql"`
}

// KafkaConfig configures the Kafka alert source.
type KafkaConfig struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	GroupID   string   `yaml:"group_id"`
	MaxAlerts int      `yaml:"max_alerts"`
}

// MySQLConfig configures the SQL alert source.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// PublishConfig configures the optional Redis catalog publisher.
type PublishConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// VersionsConfig carries the release identifiers combined into the
// schema-row version string.
type VersionsConfig struct {
	Broker  string `yaml:"broker"`
	Science string `yaml:"science"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Table: TableConfig{
			CatalogFolder: ".",
			Regions:       50,
			BatchSize:     100,
		},
		Store: StoreConfig{
			Type: "dynamodb",
		},
		Source: SourceConfig{
			Type: "kafka",
			Kafka: KafkaConfig{
				Brokers:   []string{"localhost:9092"},
				GroupID:   "fink-sciencedb",
				MaxAlerts: 1000,
			},
			MySQL: MySQLConfig{
				Host: "localhost",
				Port: 3306,
			},
		},
		Publish: PublishConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "sciencedb",
		},
	}
}

// applyEnv fills in empty credential fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.Store.Region == "" {
		c.Store.Region = os.Getenv("AWS_REGION")
	}
	if c.Store.AccessKeyID == "" {
		c.Store.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if c.Store.SecretAccessKey == "" {
		c.Store.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if c.Source.MySQL.Password == "" {
		c.Source.MySQL.Password = os.Getenv("MYSQL_PASSWORD")
	}
	if c.Publish.Password == "" {
		c.Publish.Password = os.Getenv("REDIS_PASSWORD")
	}
	if v := os.Getenv("SCIENCEDB_KAFKA_BROKERS"); v != "" {
		c.Source.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SCIENCEDB_MAX_ALERTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Source.Kafka.MaxAlerts = n
		}
	}
}

// Validate checks required fields and fills remaining defaults.
func (c *Config) Validate() error {
	if c.Table.Name == "" {
		return fmt.Errorf("table.name is required")
	}
	if c.Table.CatalogFolder == "" {
		c.Table.CatalogFolder = "."
	}
	if c.Table.Regions <= 0 {
		c.Table.Regions = 50
	}
	if c.Table.RowsPerSecond < 0 {
		return fmt.Errorf("table.rows_per_second must be non-negative, got: %d", c.Table.RowsPerSecond)
	}

	if c.Store.Type == "" {
		return fmt.Errorf("store.type is required")
	}
	if c.Store.Type == "dynamodb" && c.Store.Region == "" {
		return fmt.Errorf("store.region is required for DynamoDB")
	}

	switch c.Source.Type {
	case "kafka":
		if len(c.Source.Kafka.Brokers) == 0 {
			return fmt.Errorf("source.kafka.brokers is required")
		}
		if c.Source.Kafka.Topic == "" {
			return fmt.Errorf("source.kafka.topic is required")
		}
	case "mysql":
		if c.Source.MySQL.Database == "" {
			return fmt.Errorf("source.mysql.database is required")
		}
		if c.Source.MySQL.Table == "" {
			return fmt.Errorf("source.mysql.table is required")
		}
	case "":
		return fmt.Errorf("source.type is required")
	default:
		return fmt.Errorf("unsupported source.type: %s", c.Source.Type)
	}

	if c.Publish.Enabled && c.Publish.Addr == "" {
		return fmt.Errorf("publish.addr is required when publishing is enabled")
	}

	if c.Versions.Broker == "" {
		return fmt.Errorf("versions.broker is required")
	}
	if c.Versions.Science == "" {
		return fmt.Errorf("versions.science is required")
	}

	return nil
}
