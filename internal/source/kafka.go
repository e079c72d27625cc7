package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marcol480/fink-broker/internal/core"
	"github.com/marcol480/fink-broker/internal/dataset"
)

var (
	// ErrKafkaSourceClosed is returned when fetching from a closed source.
	ErrKafkaSourceClosed = errors.New("kafka source is closed")
)

// KafkaConfig holds configuration for the Kafka alert source.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
}

// messageReader is the subset of *kafka.Reader the source consumes.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource consumes JSON-encoded alert payloads from a Kafka topic and
// assembles them into datasets carrying the declared alert schema.
type KafkaSource struct {
	reader messageReader
	schema core.Schema
	topic  string
	mu     sync.RWMutex
	closed bool
}

// NewKafkaSource creates a Kafka alert source. The schema describes the
// alert payload structure; incoming messages are decoded against it.
func NewKafkaSource(config KafkaConfig, schema core.Schema) (*KafkaSource, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("Kafka topic is required")
	}
	if config.GroupID == "" {
		config.GroupID = "fink-sciencedb"
	}
	if config.MinBytes <= 0 {
		config.MinBytes = 1
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = 10 * 1024 * 1024
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 100 * time.Millisecond
	}

	log.Printf("[KAFKA] Initializing alert source...")
	log.Printf("[KAFKA] Brokers: %v", config.Brokers)
	log.Printf("[KAFKA] Topic: %s", config.Topic)
	log.Printf("[KAFKA] Consumer Group ID: %s", config.GroupID)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    config.MinBytes,
		MaxBytes:    config.MaxBytes,
		MaxWait:     config.MaxWait,
		StartOffset: kafka.FirstOffset,
	})

	return &KafkaSource{
		reader: reader,
		schema: schema,
		topic:  config.Topic,
	}, nil
}

// Fetch consumes up to maxRecords alerts from the topic and returns them
// as a dataset. It returns early when no further messages are available.
func (s *KafkaSource) Fetch(ctx context.Context, maxRecords int) (core.Dataset, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrKafkaSourceClosed
	}
	s.mu.RUnlock()

	if maxRecords <= 0 {
		maxRecords = 100
	}

	records := make([]core.Record, 0, maxRecords)

	for i := 0; i < maxRecords; i++ {
		readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		message, err := s.reader.ReadMessage(readCtx)
		cancel()

		if err != nil {
			// The per-message timeout means the topic ran dry; the
			// caller's context going away aborts the whole batch.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fetch from topic %s aborted: %w", s.topic, ctx.Err())
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return nil, fmt.Errorf("failed to read message from topic %s: %w", s.topic, err)
		}

		var rec core.Record
		if err := json.Unmarshal(message.Value, &rec); err != nil {
			log.Printf("[KAFKA] ERROR: Failed to unmarshal alert (partition %d, offset %d), skipping: %v",
				message.Partition, message.Offset, err)
			continue
		}

		records = append(records, rec)

		if err := s.reader.CommitMessages(ctx, message); err != nil {
			log.Printf("[KAFKA] WARNING: Failed to commit offset (partition %d, offset %d): %v",
				message.Partition, message.Offset, err)
		}
	}

	log.Printf("[KAFKA] Consumed %d alerts from topic %s", len(records), s.topic)

	return dataset.NewMemory(s.schema, records), nil
}

// Close closes the Kafka reader.
func (s *KafkaSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.reader.Close(); err != nil {
		log.Printf("[KAFKA] ERROR: Failed to close reader: %v", err)
		return err
	}
	return nil
}
