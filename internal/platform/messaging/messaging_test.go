package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"showingcover/internal/shared/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := bus.Subscribe(ctx, "claims.decided", "test", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(ctx, "claims.decided", events.Envelope{EventID: "evt-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("unexpected event %s", event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNewKafkaBusRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaBus([]string{" ", ""}, nil); err == nil {
		t.Fatal("expected broker validation error")
	}
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs chan kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg := <-f.msgs:
		return msg, nil
	}
}

func (f *fakeReader) Close() error { return nil }

func TestKafkaBusPublishKeysByPartition(t *testing.T) {
	writer := &fakeWriter{}
	bus := &KafkaBus{writer: writer, logger: testLogger()}

	event := events.Envelope{EventID: "evt-2", EventType: "claims.decided", PartitionKey: "claim-9"}
	if err := bus.Publish(context.Background(), "claims.decided", event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.msgs))
	}
	msg := writer.msgs[0]
	if msg.Topic != "claims.decided" || string(msg.Key) != "claim-9" {
		t.Fatalf("unexpected message routing: topic=%s key=%s", msg.Topic, msg.Key)
	}
	var decoded events.Envelope
	if err := json.Unmarshal(msg.Value, &decoded); err != nil || decoded.EventID != "evt-2" {
		t.Fatalf("unexpected payload: %v %+v", err, decoded)
	}
}

func TestKafkaBusSubscribeDecodesEnvelopes(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 2)}
	bus := &KafkaBus{
		newReader: func(string, string) kafkaReader { return reader },
		logger:    testLogger(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	if err := bus.Subscribe(ctx, "claims.decided", "notifier", func(_ context.Context, event events.Envelope) error {
		received <- event.EventID
		return errors.New("handler errors are logged")
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	value, _ := json.Marshal(events.Envelope{EventID: "evt-3"})
	reader.msgs <- kafka.Message{Value: []byte("not json")}
	reader.msgs <- kafka.Message{Value: value}

	select {
	case id := <-received:
		if id != "evt-3" {
			t.Fatalf("unexpected event %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("envelope not dispatched")
	}
}

func TestKafkaBusSubscribeRequiresGroup(t *testing.T) {
	bus := &KafkaBus{logger: testLogger()}
	if err := bus.Subscribe(context.Background(), "claims.decided", "", nil); err == nil {
		t.Fatal("expected consumer group validation")
	}
}
