package source

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/marcol480/fink-broker/internal/core"
)

// stubReader serves queued messages and then reports the per-message read
// timeout, or the caller's context error once it is canceled.
type stubReader struct {
	messages  []kafka.Message
	committed int
	closed    bool
}

func (r *stubReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		return kafka.Message{}, context.DeadlineExceeded
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.committed += len(msgs)
	return nil
}

func (r *stubReader) Close() error {
	r.closed = true
	return nil
}

func alertSchema() core.Schema {
	return core.Schema{
		{Name: "objectId", Type: "string"},
		{Name: "jd", Type: "double"},
	}
}

func newStubSource(reader *stubReader) *KafkaSource {
	return &KafkaSource{reader: reader, schema: alertSchema(), topic: "ztf-alerts"}
}

func TestKafkaFetchDrainsTopic(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Value: []byte(`{"objectId":"ZTF18abc","jd":2458849.5}`)},
		{Value: []byte(`{"objectId":"ZTF19xyz","jd":2458850.5}`)},
	}}
	src := newStubSource(reader)

	df, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// The per-message timeout after the last message ends the batch
	// without error.
	if df.Count() != 2 {
		t.Errorf("Expected 2 alerts, got %d", df.Count())
	}
	if reader.committed != 2 {
		t.Errorf("Expected 2 committed offsets, got %d", reader.committed)
	}
	if got := df.Collect()[0]["objectId"]; got != "ZTF18abc" {
		t.Errorf("Unexpected first alert: %v", got)
	}
}

func TestKafkaFetchCanceledContext(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Value: []byte(`{"objectId":"ZTF18abc","jd":2458849.5}`)},
	}}
	src := newStubSource(reader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, 10)
	if err == nil {
		t.Fatal("Expected Fetch to fail when the caller's context is canceled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in the error chain, got: %v", err)
	}
}

func TestKafkaFetchSkipsMalformedAlerts(t *testing.T) {
	reader := &stubReader{messages: []kafka.Message{
		{Value: []byte(`not json`)},
		{Value: []byte(`{"objectId":"ZTF19xyz","jd":2458850.5}`)},
	}}
	src := newStubSource(reader)

	df, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if df.Count() != 1 {
		t.Errorf("Expected malformed alert skipped, got %d records", df.Count())
	}
}

func TestKafkaFetchAfterClose(t *testing.T) {
	reader := &stubReader{}
	src := newStubSource(reader)

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !reader.closed {
		t.Error("Expected the underlying reader to be closed")
	}
	if _, err := src.Fetch(context.Background(), 10); !errors.Is(err, ErrKafkaSourceClosed) {
		t.Errorf("Expected ErrKafkaSourceClosed, got: %v", err)
	}
}
